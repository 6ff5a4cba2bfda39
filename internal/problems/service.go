// Package problems implements read-only browsing of problem records.
package problems

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/demo"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
)

// API is the subset of the incident API used by the service.
type API interface {
	ListProblems(ctx context.Context, filter domain.ProblemFilter) ([]domain.Problem, error)
	GetProblem(ctx context.Context, id string) (*domain.Problem, error)
}

// Listing is a filtered problem list. Demo is set when the list came from
// the built-in dataset.
type Listing struct {
	Problems []domain.Problem
	Demo     bool
}

// Detail is a problem with its linked incidents.
type Detail struct {
	Problem domain.Problem
	Demo    bool
}

// Config holds service configuration.
type Config struct {
	Fallback bool
}

// Service serves problem views.
type Service struct {
	api      API
	now      func() time.Time
	fallback bool
}

// NewService creates a new problems service. now anchors demo data and may be
// nil.
func NewService(cfg Config, client API, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{api: client, now: now, fallback: cfg.Fallback}
}

func (s *Service) useDemo(ctx context.Context, op string, err error) bool {
	if !s.fallback || ctx.Err() != nil || !api.IsUnavailable(err) {
		return false
	}
	metrics.RecordFallback(op, metrics.SourceDemo)
	ctxlog.FromContext(ctx).Warn("incident api unavailable, serving demo problems",
		"operation", op,
		"error", err,
	)
	return true
}

// List returns problems matching filter. Search is applied client side only.
func (s *Service) List(ctx context.Context, filter domain.ProblemFilter) (*Listing, error) {
	problems, err := s.api.ListProblems(ctx, filter)
	if err != nil {
		if !s.useDemo(ctx, "list_problems", err) {
			return nil, fmt.Errorf("list problems: %w", err)
		}
		return &Listing{Problems: filter.Apply(demo.New(s.now()).Problems()), Demo: true}, nil
	}
	return &Listing{Problems: filter.Apply(problems)}, nil
}

// Get returns the problem detail.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	p, err := s.api.GetProblem(ctx, id)
	if err != nil {
		if !s.useDemo(ctx, "get_problem", err) {
			return nil, fmt.Errorf("get problem %s: %w", id, err)
		}
		return &Detail{Problem: demo.New(s.now()).Problem(id), Demo: true}, nil
	}
	return &Detail{Problem: *p}, nil
}
