package domain

import (
	"strings"
)

// Severity represents the severity level of an incident.
type Severity string

// Severity levels.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// unrankedSeverity sorts after every known severity.
const unrankedSeverity = 9

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Severities returns the known severities, most severe first.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Normalize folds case and surrounding whitespace.
func (s Severity) Normalize() Severity {
	return Severity(strings.ToLower(strings.TrimSpace(string(s))))
}

// IsValid checks if the severity is one of the known levels.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s.Normalize()]
	return ok
}

// Rank orders severities for display. Unknown values rank last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s.Normalize()]; ok {
		return r
	}
	return unrankedSeverity
}

// Label returns the human-readable form, e.g. "Critical".
func (s Severity) Label() string {
	return titleLabel(string(s))
}

// Incident is a tracked operational disruption.
type Incident struct {
	ID             string         `json:"id"`
	IncidentNumber string         `json:"incident_number"`
	Title          string         `json:"title"`
	Description    *string        `json:"description"`
	Severity       Severity       `json:"severity"`
	Category       *string        `json:"category"`
	Status         IncidentStatus `json:"status"`

	ReportedAt     Timestamp  `json:"reported_at"`
	DetectedAt     *Timestamp `json:"detected_at"`
	AcknowledgedAt *Timestamp `json:"acknowledged_at"`
	ResolvedAt     *Timestamp `json:"resolved_at"`
	ClosedAt       *Timestamp `json:"closed_at"`

	ImpactDescription *string `json:"impact_description"`
	UsersAffected     *int    `json:"users_affected"`
	BusinessImpact    *string `json:"business_impact"`
	DataBreach        int     `json:"data_breach"`

	ReportedBy *string `json:"reported_by"`
	AssignedTo *string `json:"assigned_to"`
	ResolvedBy *string `json:"resolved_by"`

	ResolutionSummary     *string `json:"resolution_summary"`
	RootCause             *string `json:"root_cause"`
	Workaround            *string `json:"workaround"`
	LessonsLearned        *string `json:"lessons_learned"`
	PreventiveActions     *string `json:"preventive_actions"`
	PostIncidentCompleted int     `json:"post_incident_completed"`

	ProblemID *string `json:"problem_id"`
	WikiURL   *string `json:"wiki_url"`
	Tags      string  `json:"tags"`

	CreatedAt *Timestamp `json:"created_at,omitempty"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`

	TimelineEntries []TimelineEntry     `json:"timeline_entries,omitempty"`
	Assets          []IncidentAsset     `json:"assets,omitempty"`
	Responders      []IncidentResponder `json:"responders,omitempty"`
	Communications  []Communication     `json:"communications,omitempty"`
}

// HasDataBreach reports whether the incident is flagged as a data breach.
func (i *Incident) HasDataBreach() bool {
	return i.DataBreach != 0
}

// TagList splits the comma-delimited tags string.
func (i *Incident) TagList() []string {
	raw := strings.Trim(strings.TrimSpace(i.Tags), "[]")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.Trim(strings.TrimSpace(p), `"'`)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// LinkedToProblem reports whether the incident references the given problem.
func (i *Incident) LinkedToProblem(problemID string) bool {
	return i.ProblemID != nil && *i.ProblemID == problemID
}

// Clone returns a copy whose slices do not alias the receiver's.
func (i Incident) Clone() Incident {
	i.TimelineEntries = append([]TimelineEntry(nil), i.TimelineEntries...)
	i.Assets = append([]IncidentAsset(nil), i.Assets...)
	i.Responders = append([]IncidentResponder(nil), i.Responders...)
	i.Communications = append([]Communication(nil), i.Communications...)
	return i
}

// IncidentAsset is an asset affected by an incident.
type IncidentAsset struct {
	ID         string  `json:"id"`
	IncidentID string  `json:"incident_id"`
	AssetName  string  `json:"asset_name"`
	AssetType  *string `json:"asset_type"`
	ImpactType *string `json:"impact_type"`
	Notes      *string `json:"notes"`
}

// IncidentResponder is a person assigned to work an incident.
type IncidentResponder struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	PersonName string    `json:"person_name"`
	Role       *string   `json:"role"`
	AssignedAt Timestamp `json:"assigned_at"`
}

// Communication is a message sent about an incident.
type Communication struct {
	ID         string    `json:"id"`
	IncidentID string    `json:"incident_id"`
	Channel    *string   `json:"channel"`
	Recipient  *string   `json:"recipient"`
	Message    *string   `json:"message"`
	SentAt     Timestamp `json:"sent_at"`
	SentBy     *string   `json:"sent_by"`
}

// CreateIncidentInput holds data for creating an incident.
type CreateIncidentInput struct {
	Title          string   `json:"title" validate:"notblank,max=255"`
	Description    string   `json:"description,omitempty"`
	Severity       Severity `json:"severity" validate:"required,severity"`
	Category       string   `json:"category,omitempty" validate:"max=50"`
	ReportedBy     string   `json:"reported_by,omitempty"`
	AssignedTo     string   `json:"assigned_to,omitempty"`
	UsersAffected  *int     `json:"users_affected,omitempty" validate:"omitempty,min=0"`
	BusinessImpact string   `json:"business_impact,omitempty"`
	Tags           string   `json:"tags,omitempty"`
}

// UpdateIncidentInput holds a partial field update. Nil fields are left untouched.
type UpdateIncidentInput struct {
	Title             *string   `json:"title,omitempty" validate:"omitempty,notblank,max=255"`
	Description       *string   `json:"description,omitempty"`
	Severity          *Severity `json:"severity,omitempty" validate:"omitempty,severity"`
	Category          *string   `json:"category,omitempty" validate:"omitempty,max=50"`
	AssignedTo        *string   `json:"assigned_to,omitempty"`
	ResolutionSummary *string   `json:"resolution_summary,omitempty"`
	RootCause         *string   `json:"root_cause,omitempty"`
	Workaround        *string   `json:"workaround,omitempty"`
	LessonsLearned    *string   `json:"lessons_learned,omitempty"`
	PreventiveActions *string   `json:"preventive_actions,omitempty"`
	ProblemID         *string   `json:"problem_id,omitempty"`
	Tags              *string   `json:"tags,omitempty"`
}

// ResolveIncidentInput holds data for resolving an incident.
type ResolveIncidentInput struct {
	ResolvedBy        string `json:"resolved_by,omitempty"`
	ResolutionSummary string `json:"resolution_summary,omitempty"`
	RootCause         string `json:"root_cause,omitempty"`
}
