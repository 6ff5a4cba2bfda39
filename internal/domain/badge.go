package domain

import "strings"

// Badge is the visual classification of a severity, status or priority.
type Badge string

// Badge variants. BadgeUnknown is used for any value outside the tables.
const (
	BadgeDanger  Badge = "danger"
	BadgeWarning Badge = "warning"
	BadgeInfo    Badge = "info"
	BadgeSuccess Badge = "success"
	BadgeMuted   Badge = "muted"
	BadgeUnknown Badge = "unknown"
)

var severityBadges = map[string]Badge{
	"critical": BadgeDanger,
	"high":     BadgeWarning,
	"medium":   BadgeInfo,
	"low":      BadgeMuted,
}

var statusBadges = map[string]Badge{
	"open":          BadgeDanger,
	"investigating": BadgeWarning,
	"identified":    BadgeInfo,
	"monitoring":    BadgeInfo,
	"resolved":      BadgeSuccess,
	"closed":        BadgeMuted,
}

var fixStatusBadges = map[string]Badge{
	"open":        BadgeInfo,
	"in_progress": BadgeWarning,
	"resolved":    BadgeSuccess,
	"closed":      BadgeMuted,
}

func lookupBadge(table map[string]Badge, value string) Badge {
	if b, ok := table[strings.ToLower(strings.TrimSpace(value))]; ok {
		return b
	}
	return BadgeUnknown
}

// SeverityBadge classifies a severity.
func SeverityBadge(s Severity) Badge {
	return lookupBadge(severityBadges, string(s))
}

// StatusBadge classifies an incident status.
func StatusBadge(s IncidentStatus) Badge {
	return lookupBadge(statusBadges, string(s))
}

// FixStatusBadge classifies a problem fix status.
func FixStatusBadge(s FixStatus) Badge {
	return lookupBadge(fixStatusBadges, string(ParseFixStatus(string(s))))
}

// PriorityBadge classifies a problem priority. Priorities share the severity scale.
func PriorityBadge(p Priority) Badge {
	return lookupBadge(severityBadges, string(p))
}
