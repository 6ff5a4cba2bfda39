package domain

import "strings"

// EntryType classifies a timeline entry.
type EntryType string

// Timeline entry types.
const (
	EntryTypeNote          EntryType = "note"
	EntryTypeStatusChange  EntryType = "status_change"
	EntryTypeAssignment    EntryType = "assignment"
	EntryTypeCommunication EntryType = "communication"
	EntryTypeEscalation    EntryType = "escalation"
	EntryTypeResolution    EntryType = "resolution"
)

// EntryTypes returns the entry types accepted on append.
func EntryTypes() []EntryType {
	return []EntryType{
		EntryTypeNote,
		EntryTypeStatusChange,
		EntryTypeAssignment,
		EntryTypeCommunication,
		EntryTypeEscalation,
		EntryTypeResolution,
	}
}

// IsValid checks if the entry type can be appended.
func (t EntryType) IsValid() bool {
	for _, et := range EntryTypes() {
		if et == t {
			return true
		}
	}
	return false
}

// Label returns the human-readable form, e.g. "Status Change".
func (t EntryType) Label() string {
	return titleLabel(strings.ReplaceAll(string(t), "_", " "))
}

// TimelineEntry is one immutable audit record of an incident.
// OldStatus and NewStatus are only set on status_change and resolution entries.
type TimelineEntry struct {
	ID         string          `json:"id"`
	IncidentID string          `json:"incident_id"`
	EntryType  EntryType       `json:"entry_type"`
	Content    string          `json:"content"`
	Author     *string         `json:"author"`
	CreatedAt  Timestamp       `json:"created_at"`
	OldStatus  *IncidentStatus `json:"old_status"`
	NewStatus  *IncidentStatus `json:"new_status"`

	// IncidentNumber is only populated in the recent activity feed.
	IncidentNumber string `json:"incident_number,omitempty"`
	// Provisional marks entries synthesized locally after a failed write.
	Provisional bool `json:"provisional,omitempty"`
}

// AuthorName returns the author or an empty string.
func (e *TimelineEntry) AuthorName() string {
	if e.Author == nil {
		return ""
	}
	return *e.Author
}

// TimelineEntryInput holds data for appending a timeline entry.
type TimelineEntryInput struct {
	EntryType EntryType `json:"entry_type" validate:"required,entrytype"`
	Content   string    `json:"content" validate:"notblank"`
	Author    string    `json:"author,omitempty"`
}
