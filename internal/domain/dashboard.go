package domain

import "slices"

// DefaultActivityLimit bounds the recent activity feed.
const DefaultActivityLimit = 10

// ChartSlice is one labelled value of a dashboard chart.
type ChartSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// DashboardData is the aggregated overview. KPIs are computed by the collaborator.
type DashboardData struct {
	ActiveIncidents     int             `json:"active_incidents"`
	ResolvedToday       int             `json:"resolved_today"`
	MTTRHours           float64         `json:"mttr_hours"`
	MTTAMinutes         float64         `json:"mtta_minutes"`
	SLACompliancePct    float64         `json:"sla_compliance_pct"`
	IncidentsBySeverity []ChartSlice    `json:"incidents_by_severity"`
	IncidentsByStatus   []ChartSlice    `json:"incidents_by_status"`
	IncidentsByCategory []ChartSlice    `json:"incidents_by_category"`
	RecentActivity      []TimelineEntry `json:"recent_activity"`
	TrendingProblems    []Problem       `json:"trending_problems"`
	OpenIncidents       []Incident      `json:"open_incidents"`
}

// SLAHealth bands the SLA compliance percentage.
type SLAHealth string

// SLA health bands.
const (
	SLAHealthGood    SLAHealth = "good"
	SLAHealthWarning SLAHealth = "warning"
	SLAHealthBreach  SLAHealth = "breach"
)

// ClassifySLA returns good above 90%, warning above 70%, breach otherwise.
func ClassifySLA(pct float64) SLAHealth {
	switch {
	case pct > 90:
		return SLAHealthGood
	case pct > 70:
		return SLAHealthWarning
	default:
		return SLAHealthBreach
	}
}

// SortBySeverity returns a copy ordered most severe first. Incidents of equal
// rank keep their relative order.
func SortBySeverity(incidents []Incident) []Incident {
	sorted := slices.Clone(incidents)
	slices.SortStableFunc(sorted, func(a, b Incident) int {
		return a.Severity.Rank() - b.Severity.Rank()
	})
	return sorted
}
