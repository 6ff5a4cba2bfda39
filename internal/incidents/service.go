// Package incidents implements incident browsing, creation, the status
// workflow and the timeline log on top of the incident API.
package incidents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/demo"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/lifecycle"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
)

// API is the subset of the incident API used by the service.
type API interface {
	ListIncidents(ctx context.Context, filter domain.IncidentFilter) ([]domain.Incident, error)
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	CreateIncident(ctx context.Context, input domain.CreateIncidentInput) (*domain.Incident, error)
	UpdateIncident(ctx context.Context, id string, input domain.UpdateIncidentInput) (*domain.Incident, error)
	UpdateIncidentStatus(ctx context.Context, id string, status domain.IncidentStatus, author string) (*domain.Incident, error)
	ResolveIncident(ctx context.Context, id string, input domain.ResolveIncidentInput) (*domain.Incident, error)
	AssignIncident(ctx context.Context, id, assignee, author string) (*domain.Incident, error)
	ListTimeline(ctx context.Context, incidentID string) ([]domain.TimelineEntry, error)
	AddTimelineEntry(ctx context.Context, incidentID string, input domain.TimelineEntryInput) (*domain.TimelineEntry, error)
}

// Actor identifies the user acting through the service.
type Actor interface {
	Username() string
}

// ErrLocalOnly is returned for operations that need a server-side record.
var ErrLocalOnly = errors.New("incident exists only locally")

// Origin tells where a result came from.
type Origin string

// Result origins.
const (
	OriginAPI   Origin = "api"
	OriginDemo  Origin = "demo"
	OriginLocal Origin = "local"
)

// Listing is a filtered incident list.
type Listing struct {
	Incidents []domain.Incident
	Origin    Origin
}

// Detail is a single incident with its merged timeline.
type Detail struct {
	Incident domain.Incident
	Origin   Origin
}

// Change is the outcome of a write. Entry is set when the change produced a
// timeline entry known to the client.
type Change struct {
	Incident domain.Incident       `json:"incident"`
	Entry    *domain.TimelineEntry `json:"entry,omitempty"`
	Origin   Origin                `json:"origin"`
}

// Provisional reports whether the change exists only locally.
func (c *Change) Provisional() bool {
	return c.Origin == OriginLocal
}

// Timeline is an incident timeline ordered newest first.
type Timeline struct {
	Entries []domain.TimelineEntry
	Origin  Origin
}

// Config holds service configuration.
type Config struct {
	// Fallback enables demo data on failed reads and local records on failed writes.
	Fallback bool
}

// Service coordinates the API, the lifecycle engine and the journal.
type Service struct {
	api      API
	actor    Actor
	engine   *lifecycle.Engine
	journal  *Journal
	fallback bool
}

// NewService creates a new incidents service.
func NewService(cfg Config, client API, actor Actor, engine *lifecycle.Engine, journal *Journal) *Service {
	return &Service{
		api:      client,
		actor:    actor,
		engine:   engine,
		journal:  journal,
		fallback: cfg.Fallback,
	}
}

// Journal returns the journal of provisional records.
func (s *Service) Journal() *Journal {
	return s.journal
}

// canFallBack reports whether err may be answered locally. Cancelled
// requests never fall back.
func (s *Service) canFallBack(ctx context.Context, err error) bool {
	return s.fallback && ctx.Err() == nil && api.IsUnavailable(err)
}

func (s *Service) demoData() *demo.Dataset {
	return demo.New(s.engine.Now())
}

func (s *Service) logFallback(ctx context.Context, op, source string, err error) {
	metrics.RecordFallback(op, source)
	ctxlog.FromContext(ctx).Warn("incident api unavailable, answering locally",
		"operation", op,
		"source", source,
		"error", err,
	)
}

// List returns incidents matching filter. The filter is sent to the server
// and applied again to whatever comes back.
func (s *Service) List(ctx context.Context, filter domain.IncidentFilter) (*Listing, error) {
	remote, err := s.api.ListIncidents(ctx, filter)
	if err != nil {
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("list incidents: %w", err)
		}
		s.logFallback(ctx, "list_incidents", metrics.SourceDemo, err)
		return &Listing{
			Incidents: filter.Apply(s.journal.Overlay(s.demoData().Incidents())),
			Origin:    OriginDemo,
		}, nil
	}

	return &Listing{
		Incidents: filter.Apply(s.journal.Overlay(remote)),
		Origin:    OriginAPI,
	}, nil
}

// Get returns the incident detail. Provisional timeline entries are merged
// into the returned timeline.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	if s.journal.IsCreated(id) {
		inc, _ := s.journal.Incident(id)
		inc.TimelineEntries = lifecycle.SortNewestFirst(inc.TimelineEntries)
		return &Detail{Incident: inc, Origin: OriginLocal}, nil
	}

	remote, err := s.api.GetIncident(ctx, id)
	if err != nil {
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("get incident %s: %w", id, err)
		}
		s.logFallback(ctx, "get_incident", metrics.SourceDemo, err)
		return &Detail{Incident: s.merge(s.demoData().Incident(id)), Origin: OriginDemo}, nil
	}

	return &Detail{Incident: s.merge(*remote), Origin: OriginAPI}, nil
}

func (s *Service) merge(inc domain.Incident) domain.Incident {
	remoteEntries := inc.TimelineEntries
	if local, ok := s.journal.Incident(inc.ID); ok {
		inc = local
	}
	inc.TimelineEntries = lifecycle.SortNewestFirst(
		lifecycle.MergeEntries(remoteEntries, s.journal.Entries(inc.ID)))
	return inc
}

// Create validates input and creates the incident. When the server is
// unavailable the incident is created locally and marked provisional.
func (s *Service) Create(ctx context.Context, input domain.CreateIncidentInput) (*Change, error) {
	input.Severity = input.Severity.Normalize()
	if err := domain.Validate(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ReportedBy) == "" {
		input.ReportedBy = s.actor.Username()
	}

	remote, err := s.api.CreateIncident(ctx, input)
	if err == nil {
		return &Change{Incident: *remote, Origin: OriginAPI}, nil
	}
	if !s.canFallBack(ctx, err) {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	s.logFallback(ctx, "create_incident", metrics.SourceProvisional, err)
	inc := s.localIncident(input)
	s.journal.PutIncident(inc, true)
	return &Change{Incident: inc, Origin: OriginLocal}, nil
}

func (s *Service) localIncident(input domain.CreateIncidentInput) domain.Incident {
	now := s.engine.Now()
	opt := func(v string) *string {
		if v = strings.TrimSpace(v); v == "" {
			return nil
		}
		return &v
	}

	return domain.Incident{
		ID:             s.engine.NewID(),
		IncidentNumber: fmt.Sprintf("INC-L%04d", now.UnixMilli()%10000),
		Title:          strings.TrimSpace(input.Title),
		Description:    opt(input.Description),
		Severity:       input.Severity,
		Category:       opt(input.Category),
		Status:         domain.IncidentStatusOpen,
		ReportedAt:     domain.NewTimestamp(now),
		UsersAffected:  input.UsersAffected,
		BusinessImpact: opt(input.BusinessImpact),
		ReportedBy:     opt(input.ReportedBy),
		AssignedTo:     opt(input.AssignedTo),
		Tags:           input.Tags,
		CreatedAt:      domain.TimestampPtr(now),
		UpdatedAt:      domain.TimestampPtr(now),
	}
}

// Update applies a partial field update. Updates are never synthesized
// locally.
func (s *Service) Update(ctx context.Context, id string, input domain.UpdateIncidentInput) (*Change, error) {
	if input.Severity != nil {
		severity := input.Severity.Normalize()
		input.Severity = &severity
	}
	if err := domain.Validate(input); err != nil {
		return nil, err
	}
	if s.journal.IsCreated(id) {
		return nil, fmt.Errorf("update incident %s: %w", id, ErrLocalOnly)
	}

	remote, err := s.api.UpdateIncident(ctx, id, input)
	if err != nil {
		return nil, fmt.Errorf("update incident %s: %w", id, err)
	}
	s.journal.Forget(id)
	return &Change{Incident: *remote, Origin: OriginAPI}, nil
}

// Advance moves the incident forward to target. The transition is checked
// before anything is sent.
func (s *Service) Advance(ctx context.Context, id string, target domain.IncidentStatus) (*Change, error) {
	target = target.Normalize()
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckTransition(current.Incident.Status, target); err != nil {
		return nil, err
	}

	actor := s.actor.Username()
	if current.Origin != OriginLocal {
		remote, err := s.api.UpdateIncidentStatus(ctx, id, target, actor)
		if err == nil {
			s.journal.Forget(id)
			return &Change{Incident: *remote, Origin: OriginAPI}, nil
		}
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("advance incident %s: %w", id, err)
		}
		s.logFallback(ctx, "advance_incident", metrics.SourceProvisional, err)
	}

	inc := current.Incident.Clone()
	inc.TimelineEntries = nil
	entry, err := s.engine.Advance(&inc, target, actor)
	if err != nil {
		return nil, err
	}
	return s.recordLocal(inc, entry, current.Incident.TimelineEntries), nil
}

// Resolve moves the incident to resolved with resolution details.
func (s *Service) Resolve(ctx context.Context, id string, input domain.ResolveIncidentInput) (*Change, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckTransition(current.Incident.Status, domain.IncidentStatusResolved); err != nil {
		return nil, err
	}

	actor := s.actor.Username()
	if strings.TrimSpace(input.ResolvedBy) == "" {
		input.ResolvedBy = actor
	}

	if current.Origin != OriginLocal {
		remote, err := s.api.ResolveIncident(ctx, id, input)
		if err == nil {
			s.journal.Forget(id)
			return &Change{Incident: *remote, Origin: OriginAPI}, nil
		}
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("resolve incident %s: %w", id, err)
		}
		s.logFallback(ctx, "resolve_incident", metrics.SourceProvisional, err)
	}

	inc := current.Incident.Clone()
	inc.TimelineEntries = nil
	entry, err := s.engine.Resolve(&inc, input, actor)
	if err != nil {
		return nil, err
	}
	return s.recordLocal(inc, entry, current.Incident.TimelineEntries), nil
}

// Assign sets the incident owner.
func (s *Service) Assign(ctx context.Context, id, assignee string) (*Change, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "assigned_to", Rule: "notblank"}}}
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	actor := s.actor.Username()
	if current.Origin != OriginLocal {
		remote, err := s.api.AssignIncident(ctx, id, assignee, actor)
		if err == nil {
			s.journal.Forget(id)
			return &Change{Incident: *remote, Origin: OriginAPI}, nil
		}
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("assign incident %s: %w", id, err)
		}
		s.logFallback(ctx, "assign_incident", metrics.SourceProvisional, err)
	}

	inc := current.Incident.Clone()
	inc.TimelineEntries = nil

	content := "Assigned to " + assignee
	if inc.AssignedTo != nil && *inc.AssignedTo != "" {
		content = fmt.Sprintf("Reassigned from %s to %s", *inc.AssignedTo, assignee)
	}
	entry, err := s.engine.NewEntry(inc.ID, domain.TimelineEntryInput{
		EntryType: domain.EntryTypeAssignment,
		Content:   content,
	}, actor)
	if err != nil {
		return nil, err
	}
	inc.AssignedTo = &assignee
	inc.UpdatedAt = domain.TimestampPtr(s.engine.Now())
	return s.recordLocal(inc, entry, current.Incident.TimelineEntries), nil
}

// recordLocal journals inc and entry. prior is the timeline the caller saw
// before the change.
func (s *Service) recordLocal(inc domain.Incident, entry domain.TimelineEntry, prior []domain.TimelineEntry) *Change {
	entry.Provisional = true
	entry.IncidentNumber = inc.IncidentNumber
	inc.TimelineEntries = nil
	s.journal.PutIncident(inc, false)
	s.journal.AddEntry(entry)

	local, _ := s.journal.Incident(inc.ID)
	local.TimelineEntries = lifecycle.SortNewestFirst(lifecycle.MergeEntries(prior, local.TimelineEntries))
	return &Change{Incident: local, Entry: &entry, Origin: OriginLocal}
}

// Timeline returns the incident timeline newest first, provisional entries
// included.
func (s *Service) Timeline(ctx context.Context, id string) (*Timeline, error) {
	if s.journal.IsCreated(id) {
		return &Timeline{Entries: lifecycle.SortNewestFirst(s.journal.Entries(id)), Origin: OriginLocal}, nil
	}

	remote, err := s.api.ListTimeline(ctx, id)
	origin := OriginAPI
	if err != nil {
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("list timeline of %s: %w", id, err)
		}
		s.logFallback(ctx, "list_timeline", metrics.SourceDemo, err)
		remote = s.demoData().Timeline(id)
		origin = OriginDemo
	}

	return &Timeline{
		Entries: lifecycle.SortNewestFirst(lifecycle.MergeEntries(remote, s.journal.Entries(id))),
		Origin:  origin,
	}, nil
}

// AddEntry validates input and appends it to the incident timeline. The
// author defaults to the session user.
func (s *Service) AddEntry(ctx context.Context, id string, input domain.TimelineEntryInput) (*Change, error) {
	entry, err := s.engine.NewEntry(id, input, s.actor.Username())
	if err != nil {
		return nil, err
	}
	input.Author = entry.AuthorName()
	input.Content = entry.Content

	if !s.journal.IsCreated(id) {
		remote, err := s.api.AddTimelineEntry(ctx, id, input)
		if err == nil {
			return &Change{Entry: remote, Origin: OriginAPI}, nil
		}
		if !s.canFallBack(ctx, err) {
			return nil, fmt.Errorf("add timeline entry to %s: %w", id, err)
		}
		s.logFallback(ctx, "add_timeline_entry", metrics.SourceProvisional, err)
	}

	entry.Provisional = true
	entry.IncidentNumber = s.lookupNumber(ctx, id)
	s.journal.AddEntry(entry)
	return &Change{Entry: &entry, Origin: OriginLocal}, nil
}

// lookupNumber resolves the incident number for a provisional entry. Reads
// may still succeed when writes fail, so the incident is fetched before
// falling back to local records.
func (s *Service) lookupNumber(ctx context.Context, id string) string {
	if inc, ok := s.journal.Incident(id); ok {
		return inc.IncidentNumber
	}
	if detail, err := s.Get(ctx, id); err == nil && detail.Incident.IncidentNumber != "" {
		return detail.Incident.IncidentNumber
	}
	return s.incidentNumber(id)
}

func (s *Service) incidentNumber(id string) string {
	if inc, ok := s.journal.Incident(id); ok {
		return inc.IncidentNumber
	}
	d := s.demoData()
	if d.HasIncident(id) {
		return d.Incident(id).IncidentNumber
	}
	return ""
}
