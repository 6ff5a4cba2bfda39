// Package demo provides the built-in demonstration data shown when the
// incident API cannot be reached.
package demo

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/lifecycle"
)

// Dataset is an immutable set of demo records anchored at a reference time.
// Every accessor returns copies.
type Dataset struct {
	now       time.Time
	incidents []domain.Incident
	problems  []domain.Problem
}

// New builds the dataset with all ages measured back from now.
func New(now time.Time) *Dataset {
	d := &Dataset{now: now.UTC()}

	entries := make(map[string][]domain.TimelineEntry)
	for i, s := range entrySeeds {
		author := s.author
		e := domain.TimelineEntry{
			ID:         fmt.Sprintf("demo-t%d", i+1),
			IncidentID: s.incidentID,
			EntryType:  s.kind,
			Content:    s.content,
			Author:     &author,
			CreatedAt:  domain.NewTimestamp(d.now.Add(-s.ago)),
		}
		if s.from != "" {
			from := s.from
			e.OldStatus = &from
		}
		if s.to != "" {
			to := s.to
			e.NewStatus = &to
		}
		entries[s.incidentID] = append(entries[s.incidentID], e)
	}

	for _, s := range incidentSeeds {
		inc := d.buildIncident(s)
		inc.TimelineEntries = entries[s.id]
		for i := range inc.TimelineEntries {
			inc.TimelineEntries[i].IncidentNumber = inc.IncidentNumber
		}
		d.incidents = append(d.incidents, inc)
	}

	for _, s := range problemSeeds {
		d.problems = append(d.problems, d.buildProblem(s))
	}

	return d
}

func (d *Dataset) at(ago time.Duration) *domain.Timestamp {
	if ago == 0 {
		return nil
	}
	return domain.TimestampPtr(d.now.Add(-ago))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (d *Dataset) buildIncident(s incidentSeed) domain.Incident {
	inc := domain.Incident{
		ID:             s.id,
		IncidentNumber: s.number,
		Title:          s.title,
		Description:    optional(s.description),
		Severity:       s.severity,
		Category:       optional(s.category),
		Status:         s.status,
		ReportedAt:     domain.NewTimestamp(d.now.Add(-s.reported)),
		ResolvedAt:     d.at(s.resolved),
		ClosedAt:       d.at(s.closed),

		ImpactDescription: optional(s.impact),
		BusinessImpact:    optional(s.business),
		ReportedBy:        optional(s.reportedBy),
		AssignedTo:        optional(s.assignedTo),
		ProblemID:         optional(s.problemID),
		Tags:              s.tags,
		CreatedAt:         domain.TimestampPtr(d.now.Add(-s.reported)),
	}
	if s.users >= 0 {
		users := s.users
		inc.UsersAffected = &users
	}
	if s.status != domain.IncidentStatusOpen {
		inc.AcknowledgedAt = domain.TimestampPtr(d.now.Add(-s.reported).Add(5 * time.Minute))
	}
	return inc
}

func (d *Dataset) buildProblem(s problemSeed) domain.Problem {
	p := domain.Problem{
		ID:                s.id,
		ProblemNumber:     s.number,
		Title:             s.title,
		Description:       optional(s.description),
		RootCause:         optional(s.rootCause),
		RootCauseCategory: optional(s.category),
		PermanentFix:      optional(s.permanentFix),
		FixStatus:         s.fixStatus,
		FixOwner:          optional(s.fixOwner),
		FixDueDate:        optional(s.fixDue),
		FixCompletedDate:  optional(s.fixDone),
		WikiURL:           optional(s.wikiURL),
		Workaround:        optional(s.workaround),
		Priority:          s.priority,
	}
	if s.cost > 0 {
		cost := s.cost
		p.EstimatedCost = &cost
	}
	downtime := s.downtime
	p.TotalDowntimeMinutes = &downtime
	if s.knownError {
		p.KnownError = 1
	}
	if ts, err := domain.ParseTimestamp(s.created); err == nil {
		p.CreatedAt = ts
	}
	if ts, err := domain.ParseTimestamp(s.updated); err == nil {
		p.UpdatedAt = ts
	}
	for _, inc := range incidentSeeds {
		if inc.problemID == s.id {
			p.IncidentCount++
		}
	}
	return p
}

// Now returns the reference time.
func (d *Dataset) Now() time.Time {
	return d.now
}

// Incidents returns the list view, without embedded detail collections.
func (d *Dataset) Incidents() []domain.Incident {
	out := make([]domain.Incident, 0, len(d.incidents))
	for _, inc := range d.incidents {
		inc.TimelineEntries = nil
		out = append(out, inc)
	}
	return out
}

// Incident returns the detail view of id. Unknown ids get the richest demo
// record relabelled with the requested id, so a detail page always renders.
func (d *Dataset) Incident(id string) domain.Incident {
	for _, inc := range d.incidents {
		if inc.ID == id {
			return d.detail(inc)
		}
	}

	inc := d.detail(d.incidents[0])
	inc.ID = id
	for i := range inc.TimelineEntries {
		inc.TimelineEntries[i].IncidentID = id
	}
	for i := range inc.Assets {
		inc.Assets[i].IncidentID = id
	}
	for i := range inc.Responders {
		inc.Responders[i].IncidentID = id
	}
	for i := range inc.Communications {
		inc.Communications[i].IncidentID = id
	}
	return inc
}

// HasIncident reports whether id is one of the demo records.
func (d *Dataset) HasIncident(id string) bool {
	return slices.ContainsFunc(d.incidents, func(inc domain.Incident) bool { return inc.ID == id })
}

func (d *Dataset) detail(inc domain.Incident) domain.Incident {
	inc = inc.Clone()
	if inc.ID != "inc-1" {
		return inc
	}

	ago := func(m int) domain.Timestamp { return domain.NewTimestamp(d.now.Add(-time.Duration(m) * time.Minute)) }
	str := func(s string) *string { return &s }

	inc.DetectedAt = domain.TimestampPtr(d.now.Add(-65 * time.Minute))
	inc.Workaround = str("Traffic routed through the backup gateway at reduced capacity")
	inc.Assets = []domain.IncidentAsset{
		{ID: "demo-a1", IncidentID: inc.ID, AssetName: "api-gateway-prod-01", AssetType: str("Server"), ImpactType: str("Degraded"), Notes: str("Primary gateway")},
		{ID: "demo-a2", IncidentID: inc.ID, AssetName: "api-gateway-prod-02", AssetType: str("Server"), ImpactType: str("Down"), Notes: str("Secondary gateway unresponsive")},
		{ID: "demo-a3", IncidentID: inc.ID, AssetName: "lb-external-01", AssetType: str("Load Balancer"), ImpactType: str("Misconfigured"), Notes: str("Bad config pushed")},
	}
	inc.Responders = []domain.IncidentResponder{
		{ID: "demo-r1", IncidentID: inc.ID, PersonName: "john.doe", Role: str("Incident Commander"), AssignedAt: ago(58)},
		{ID: "demo-r2", IncidentID: inc.ID, PersonName: "jane.smith", Role: str("Communications Lead"), AssignedAt: ago(57)},
		{ID: "demo-r3", IncidentID: inc.ID, PersonName: "infra_lead", Role: str("Subject Matter Expert"), AssignedAt: ago(30)},
	}
	inc.Communications = []domain.Communication{
		{ID: "demo-c1", IncidentID: inc.ID, Channel: str("Status Page"), Recipient: str("External Users"), Message: str("We are investigating issues with our API."), SentAt: ago(45), SentBy: str("admin")},
		{ID: "demo-c2", IncidentID: inc.ID, Channel: str("Slack"), Recipient: str("#engineering"), Message: str("P1 in progress, API gateway down"), SentAt: ago(57), SentBy: str("john.doe")},
		{ID: "demo-c3", IncidentID: inc.ID, Channel: str("Email"), Recipient: str("VP Engineering"), Message: str("Critical API outage affecting 1500 users"), SentAt: ago(30), SentBy: str("jane.smith")},
	}
	return inc
}

// Timeline returns the stored timeline of incidentID in insertion order.
func (d *Dataset) Timeline(incidentID string) []domain.TimelineEntry {
	return d.Incident(incidentID).TimelineEntries
}

// Problems returns the problem list.
func (d *Dataset) Problems() []domain.Problem {
	return slices.Clone(d.problems)
}

// Problem returns the detail view of id with its linked incidents. Unknown
// ids get the first problem relabelled with the requested id.
func (d *Dataset) Problem(id string) domain.Problem {
	p := d.problems[0]
	found := false
	for _, candidate := range d.problems {
		if candidate.ID == id {
			p = candidate
			found = true
			break
		}
	}

	linkID := p.ID
	p.ID = id
	p.Incidents = nil
	for _, inc := range d.Incidents() {
		if inc.LinkedToProblem(linkID) {
			p.Incidents = append(p.Incidents, inc)
		}
	}
	if !found {
		p.IncidentCount = len(p.Incidents)
	}
	return p
}

// Dashboard aggregates the dataset into the overview.
func (d *Dataset) Dashboard() domain.DashboardData {
	data := domain.DashboardData{SLACompliancePct: slaCompliancePct}

	var ackTotal, resolveTotal time.Duration
	var acked, resolvedCount int
	bySeverity := map[string]int{}
	byStatus := map[string]int{}
	byCategory := map[string]int{}
	var categories []string

	for _, inc := range d.incidents {
		if inc.Status.IsActive() {
			data.ActiveIncidents++
			data.OpenIncidents = append(data.OpenIncidents, d.stripped(inc))
		}
		if inc.ResolvedAt != nil {
			if d.now.Sub(inc.ResolvedAt.Time) <= 24*time.Hour {
				data.ResolvedToday++
			}
			resolveTotal += inc.ResolvedAt.Sub(inc.ReportedAt.Time)
			resolvedCount++
		}
		if inc.AcknowledgedAt != nil {
			ackTotal += inc.AcknowledgedAt.Sub(inc.ReportedAt.Time)
			acked++
		}

		bySeverity[string(inc.Severity)]++
		byStatus[string(inc.Status)]++
		if inc.Category != nil {
			if byCategory[*inc.Category] == 0 {
				categories = append(categories, *inc.Category)
			}
			byCategory[*inc.Category]++
		}
	}

	if resolvedCount > 0 {
		data.MTTRHours = roundTenth((resolveTotal / time.Duration(resolvedCount)).Hours())
	}
	if acked > 0 {
		data.MTTAMinutes = roundTenth((ackTotal / time.Duration(acked)).Minutes())
	}

	for _, s := range domain.Severities() {
		data.IncidentsBySeverity = append(data.IncidentsBySeverity, slice(s.Label(), string(s), bySeverity[string(s)]))
	}
	for _, s := range domain.Statuses() {
		if n := byStatus[string(s)]; n > 0 {
			data.IncidentsByStatus = append(data.IncidentsByStatus, slice(s.Label(), string(s), n))
		}
	}
	for _, c := range categories {
		data.IncidentsByCategory = append(data.IncidentsByCategory, slice(c, c, byCategory[c]))
	}

	data.RecentActivity = lifecycle.RecentActivity(d.incidents, domain.DefaultActivityLimit)

	for _, p := range d.problems {
		if p.FixStatus != domain.FixStatusResolved && p.FixStatus != domain.FixStatusClosed {
			data.TrendingProblems = append(data.TrendingProblems, p)
		}
	}
	slices.SortStableFunc(data.TrendingProblems, func(a, b domain.Problem) int {
		return b.IncidentCount - a.IncidentCount
	})

	return data
}

func (d *Dataset) stripped(inc domain.Incident) domain.Incident {
	inc.TimelineEntries = nil
	return inc
}

func slice(name, colorKey string, value int) domain.ChartSlice {
	color, ok := chartColors[colorKey]
	if !ok {
		color = chartColors[strings.ToLower(colorKey)]
	}
	return domain.ChartSlice{Name: name, Value: value, Color: color}
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
