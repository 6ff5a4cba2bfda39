package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
)

// ListProblems returns problems matching the server-side filter.
func (c *Client) ListProblems(ctx context.Context, filter domain.ProblemFilter) ([]domain.Problem, error) {
	var raw json.RawMessage
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/problems",
		path:   "/problems",
		query:  filter.Query(),
	}, &raw); err != nil {
		return nil, err
	}
	return decodeList[domain.Problem](raw, "problems")
}

// GetProblem returns the problem with its linked incidents.
func (c *Client) GetProblem(ctx context.Context, id string) (*domain.Problem, error) {
	var p domain.Problem
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/problems/{id}",
		path:   "/problems/" + escape(id),
	}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
