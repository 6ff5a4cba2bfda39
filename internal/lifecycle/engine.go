// Package lifecycle implements the incident status state machine and the
// rules for building timeline entries.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/google/uuid"
)

// SystemAuthor is recorded when no acting user is known.
const SystemAuthor = "system"

// LocalIDPrefix marks identifiers minted on the client.
const LocalIDPrefix = "local-"

// Engine applies lifecycle transitions to incidents.
type Engine struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how entry ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine creates a new engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: NewLocalID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewLocalID returns a client-side identifier.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was minted by NewLocalID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// NewID mints an identifier with the engine's generator.
func (e *Engine) NewID() string {
	return e.newID()
}

// CheckTransition returns ErrInvalidTransition unless target lies strictly
// after current.
func CheckTransition(current, target domain.IncidentStatus) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: %w: %q", domain.ErrInvalidTransition, domain.ErrUnknownStatus, target)
	}
	if !current.IsValid() {
		return fmt.Errorf("%w: current status %q is unknown", domain.ErrInvalidTransition, current)
	}
	if !current.CanAdvanceTo(target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Normalize(), target.Normalize())
	}
	return nil
}

// Advance moves inc to target and appends exactly one status_change entry.
// On error inc is left untouched.
func (e *Engine) Advance(inc *domain.Incident, target domain.IncidentStatus, actor string) (domain.TimelineEntry, error) {
	if err := CheckTransition(inc.Status, target); err != nil {
		return domain.TimelineEntry{}, err
	}

	from := inc.Status.Normalize()
	to := target.Normalize()
	now := e.now()

	e.setStatus(inc, to, now)

	entry := e.statusEntry(inc.ID, domain.EntryTypeStatusChange,
		fmt.Sprintf("Status changed from %s to %s", from, to), from, to, actor, now)
	inc.TimelineEntries = append(inc.TimelineEntries, entry)

	return entry, nil
}

// Resolve moves inc to resolved, records the resolution details and appends
// one resolution entry.
func (e *Engine) Resolve(inc *domain.Incident, input domain.ResolveIncidentInput, actor string) (domain.TimelineEntry, error) {
	if err := CheckTransition(inc.Status, domain.IncidentStatusResolved); err != nil {
		return domain.TimelineEntry{}, err
	}

	from := inc.Status.Normalize()
	now := e.now()
	resolvedBy := authorOr(input.ResolvedBy, actor)

	e.setStatus(inc, domain.IncidentStatusResolved, now)
	inc.ResolvedBy = &resolvedBy
	if s := strings.TrimSpace(input.ResolutionSummary); s != "" {
		inc.ResolutionSummary = &s
	}
	if s := strings.TrimSpace(input.RootCause); s != "" {
		inc.RootCause = &s
	}

	content := "Incident resolved"
	if s := strings.TrimSpace(input.ResolutionSummary); s != "" {
		content = s
	}

	entry := e.statusEntry(inc.ID, domain.EntryTypeResolution, content,
		from, domain.IncidentStatusResolved, resolvedBy, now)
	inc.TimelineEntries = append(inc.TimelineEntries, entry)

	return entry, nil
}

// NewEntry validates input and builds an entry for incidentID. Author falls
// back to defaultAuthor and then to SystemAuthor.
func (e *Engine) NewEntry(incidentID string, input domain.TimelineEntryInput, defaultAuthor string) (domain.TimelineEntry, error) {
	if err := domain.Validate(input); err != nil {
		return domain.TimelineEntry{}, err
	}

	author := authorOr(input.Author, defaultAuthor)
	return domain.TimelineEntry{
		ID:         e.newID(),
		IncidentID: incidentID,
		EntryType:  input.EntryType,
		Content:    strings.TrimSpace(input.Content),
		Author:     &author,
		CreatedAt:  domain.NewTimestamp(e.now()),
	}, nil
}

func (e *Engine) setStatus(inc *domain.Incident, to domain.IncidentStatus, now time.Time) {
	inc.Status = to
	inc.UpdatedAt = domain.TimestampPtr(now)

	switch to {
	case domain.IncidentStatusInvestigating:
		if inc.AcknowledgedAt == nil {
			inc.AcknowledgedAt = domain.TimestampPtr(now)
		}
	case domain.IncidentStatusResolved:
		if inc.ResolvedAt == nil {
			inc.ResolvedAt = domain.TimestampPtr(now)
		}
	case domain.IncidentStatusClosed:
		if inc.ClosedAt == nil {
			inc.ClosedAt = domain.TimestampPtr(now)
		}
	}
}

func (e *Engine) statusEntry(incidentID string, kind domain.EntryType, content string,
	from, to domain.IncidentStatus, actor string, now time.Time,
) domain.TimelineEntry {
	author := authorOr(actor, "")
	return domain.TimelineEntry{
		ID:         e.newID(),
		IncidentID: incidentID,
		EntryType:  kind,
		Content:    content,
		Author:     &author,
		CreatedAt:  domain.NewTimestamp(now),
		OldStatus:  &from,
		NewStatus:  &to,
	}
}

func authorOr(author, fallback string) string {
	if a := strings.TrimSpace(author); a != "" {
		return a
	}
	if f := strings.TrimSpace(fallback); f != "" {
		return f
	}
	return SystemAuthor
}
