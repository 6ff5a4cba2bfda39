package domain

import (
	"fmt"
	"strings"
)

// IncidentStatus represents a stage of the incident lifecycle.
type IncidentStatus string

// Incident statuses in lifecycle order.
const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusIdentified    IncidentStatus = "identified"
	IncidentStatusMonitoring    IncidentStatus = "monitoring"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusClosed        IncidentStatus = "closed"
)

var statusFlow = []IncidentStatus{
	IncidentStatusOpen,
	IncidentStatusInvestigating,
	IncidentStatusIdentified,
	IncidentStatusMonitoring,
	IncidentStatusResolved,
	IncidentStatusClosed,
}

// Statuses returns the lifecycle in order.
func Statuses() []IncidentStatus {
	return append([]IncidentStatus(nil), statusFlow...)
}

// ParseIncidentStatus parses a status case-insensitively.
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	status := IncidentStatus(s).Normalize()
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Normalize folds case and surrounding whitespace.
func (s IncidentStatus) Normalize() IncidentStatus {
	return IncidentStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

// Index returns the position in the lifecycle, or -1 for unknown statuses.
func (s IncidentStatus) Index() int {
	n := s.Normalize()
	for i, st := range statusFlow {
		if st == n {
			return i
		}
	}
	return -1
}

// IsValid checks if the status is part of the lifecycle.
func (s IncidentStatus) IsValid() bool {
	return s.Index() >= 0
}

// CanAdvanceTo reports whether target lies strictly after s in the lifecycle.
// Intermediate statuses may be skipped.
func (s IncidentStatus) CanAdvanceTo(target IncidentStatus) bool {
	from, to := s.Index(), target.Index()
	return from >= 0 && to >= 0 && to > from
}

// NextStatuses returns every status reachable from s.
func (s IncidentStatus) NextStatuses() []IncidentStatus {
	idx := s.Index()
	if idx < 0 {
		return nil
	}
	return append([]IncidentStatus(nil), statusFlow[idx+1:]...)
}

// IsActive reports whether the incident still needs work.
func (s IncidentStatus) IsActive() bool {
	n := s.Normalize()
	return n != IncidentStatusResolved && n != IncidentStatusClosed
}

// ShowsResolution reports whether resolution details are shown.
// Resolution fields are not required to enter these states.
func (s IncidentStatus) ShowsResolution() bool {
	return !s.IsActive() && s.IsValid()
}

// Label returns the human-readable form, e.g. "Investigating".
func (s IncidentStatus) Label() string {
	return titleLabel(string(s))
}
