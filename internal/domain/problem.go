package domain

import "strings"

// FixStatus represents the progress of a problem's permanent fix.
type FixStatus string

// Fix statuses.
const (
	FixStatusOpen       FixStatus = "open"
	FixStatusInProgress FixStatus = "in_progress"
	FixStatusResolved   FixStatus = "resolved"
	FixStatusClosed     FixStatus = "closed"
)

// ParseFixStatus accepts both "in progress" and "in_progress" spellings.
func ParseFixStatus(s string) FixStatus {
	return FixStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
}

// IsValid checks if the fix status is known.
func (s FixStatus) IsValid() bool {
	switch ParseFixStatus(string(s)) {
	case FixStatusOpen, FixStatusInProgress, FixStatusResolved, FixStatusClosed:
		return true
	}
	return false
}

// Label returns the human-readable form, e.g. "In Progress".
func (s FixStatus) Label() string {
	return titleLabel(strings.ReplaceAll(string(s), "_", " "))
}

// Priority ranks a problem on the severity scale.
type Priority string

// Priorities.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Label returns the human-readable form.
func (p Priority) Label() string {
	return titleLabel(string(p))
}

// Problem is a root-cause record aggregating related incidents.
// IncidentCount and TotalDowntimeMinutes are computed by the collaborator.
type Problem struct {
	ID                   string    `json:"id"`
	ProblemNumber        string    `json:"problem_number"`
	Title                string    `json:"title"`
	Description          *string   `json:"description"`
	RootCause            *string   `json:"root_cause"`
	RootCauseCategory    *string   `json:"root_cause_category"`
	PermanentFix         *string   `json:"permanent_fix"`
	FixStatus            FixStatus `json:"fix_status"`
	FixOwner             *string   `json:"fix_owner"`
	FixDueDate           *string   `json:"fix_due_date"`
	FixCompletedDate     *string   `json:"fix_completed_date"`
	EstimatedCost        *float64  `json:"estimated_cost"`
	IncidentCount        int       `json:"incident_count"`
	TotalDowntimeMinutes *int      `json:"total_downtime_minutes"`
	KnownError           int       `json:"known_error"`
	WikiURL              *string   `json:"wiki_url"`
	Workaround           *string   `json:"workaround"`
	Priority             Priority  `json:"priority"`
	CreatedAt            Timestamp `json:"created_at"`
	UpdatedAt            Timestamp `json:"updated_at"`

	Incidents []Incident `json:"incidents,omitempty"`
}

// IsKnownError reports whether the problem is flagged as a known error.
func (p *Problem) IsKnownError() bool {
	return p.KnownError != 0
}

// WikiReference returns the wiki link of a known error. The second result is
// false when the problem is not a known error or has no link.
func (p *Problem) WikiReference() (string, bool) {
	if !p.IsKnownError() || p.WikiURL == nil || strings.TrimSpace(*p.WikiURL) == "" {
		return "", false
	}
	return *p.WikiURL, true
}

// Downtime returns the reported total downtime, zero when absent.
func (p *Problem) Downtime() int {
	if p.TotalDowntimeMinutes == nil {
		return 0
	}
	return *p.TotalDowntimeMinutes
}
