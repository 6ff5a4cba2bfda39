package api

import (
	"context"
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
)

// Dashboard returns the aggregated overview.
func (c *Client) Dashboard(ctx context.Context) (*domain.DashboardData, error) {
	var d domain.DashboardData
	if err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/dashboard",
		path:   "/dashboard",
	}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
