// Package dashboard builds the overview screen and the recent activity feed.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/demo"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/lifecycle"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
)

// API is the subset of the incident API used by the service.
type API interface {
	Dashboard(ctx context.Context) (*domain.DashboardData, error)
}

// Journal exposes timeline entries recorded locally.
type Journal interface {
	AllEntries() []domain.TimelineEntry
}

// Overview is the normalised dashboard.
type Overview struct {
	domain.DashboardData
	SLAHealth domain.SLAHealth `json:"sla_health"`
	Demo      bool             `json:"demo"`
}

// Config holds service configuration.
type Config struct {
	Fallback      bool
	ActivityLimit int
}

// Service serves the dashboard.
type Service struct {
	api      API
	journal  Journal
	now      func() time.Time
	fallback bool
	limit    int
}

// NewService creates a new dashboard service. journal and now may be nil.
func NewService(cfg Config, client API, journal Journal, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	limit := cfg.ActivityLimit
	if limit <= 0 {
		limit = domain.DefaultActivityLimit
	}
	return &Service{
		api:      client,
		journal:  journal,
		now:      now,
		fallback: cfg.Fallback,
		limit:    limit,
	}
}

// Overview fetches the dashboard and normalises it: open incidents most
// severe first, activity newest first and bounded, SLA classified.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	data, isDemo, err := s.fetch(ctx, "dashboard")
	if err != nil {
		return nil, err
	}

	data.OpenIncidents = domain.SortBySeverity(data.OpenIncidents)
	data.RecentActivity = s.activity(data.RecentActivity, s.limit)

	return &Overview{
		DashboardData: *data,
		SLAHealth:     domain.ClassifySLA(data.SLACompliancePct),
		Demo:          isDemo,
	}, nil
}

// RecentActivity returns the newest limit timeline entries across all
// incidents, provisional ones included. A non-positive limit, or one above
// the configured bound, uses the bound.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]domain.TimelineEntry, bool, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	data, isDemo, err := s.fetch(ctx, "recent_activity")
	if err != nil {
		return nil, false, err
	}
	return s.activity(data.RecentActivity, limit), isDemo, nil
}

func (s *Service) fetch(ctx context.Context, op string) (*domain.DashboardData, bool, error) {
	data, err := s.api.Dashboard(ctx)
	if err == nil {
		return data, false, nil
	}
	if !s.fallback || ctx.Err() != nil || !api.IsUnavailable(err) {
		return nil, false, fmt.Errorf("load dashboard: %w", err)
	}

	metrics.RecordFallback(op, metrics.SourceDemo)
	ctxlog.FromContext(ctx).Warn("incident api unavailable, serving demo dashboard",
		"operation", op,
		"error", err,
	)
	d := demo.New(s.now()).Dashboard()
	return &d, true, nil
}

func (s *Service) activity(remote []domain.TimelineEntry, limit int) []domain.TimelineEntry {
	var local []domain.TimelineEntry
	if s.journal != nil {
		local = s.journal.AllEntries()
	}
	return lifecycle.TopN(lifecycle.MergeEntries(remote, local), limit)
}
