package demo

import (
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refTime = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func TestDataset_Incidents(t *testing.T) {
	d := New(refTime)

	incidents := d.Incidents()
	require.Len(t, incidents, 10)

	for _, inc := range incidents {
		assert.NotEmpty(t, inc.ID)
		assert.True(t, inc.Severity.IsValid(), inc.ID)
		assert.True(t, inc.Status.IsValid(), inc.ID)
		assert.False(t, inc.ReportedAt.After(refTime), inc.ID)
		assert.Nil(t, inc.TimelineEntries, "list view carries no timeline")
	}

	incidents[0].Title = "mutated"
	assert.NotEqual(t, "mutated", d.Incidents()[0].Title)
}

func TestDataset_Incident(t *testing.T) {
	d := New(refTime)

	t.Run("known id with detail", func(t *testing.T) {
		inc := d.Incident("inc-1")
		assert.Equal(t, "INC-001", inc.IncidentNumber)
		assert.Len(t, inc.TimelineEntries, 7)
		assert.Len(t, inc.Assets, 3)
		assert.Len(t, inc.Responders, 3)
		assert.Len(t, inc.Communications, 3)
	})

	t.Run("unknown id is relabelled", func(t *testing.T) {
		inc := d.Incident("inc-999")
		assert.Equal(t, "inc-999", inc.ID)
		require.NotEmpty(t, inc.TimelineEntries)
		for _, e := range inc.TimelineEntries {
			assert.Equal(t, "inc-999", e.IncidentID)
		}
		assert.False(t, d.HasIncident("inc-999"))
	})
}

func TestDataset_Problem(t *testing.T) {
	d := New(refTime)

	p := d.Problem("p1")
	assert.Equal(t, "PRB-001", p.ProblemNumber)
	url, ok := p.WikiReference()
	assert.True(t, ok)
	assert.Contains(t, url, "auth-memory-leak")
	require.NotEmpty(t, p.Incidents)
	for _, inc := range p.Incidents {
		assert.True(t, inc.LinkedToProblem("p1"))
	}

	p2 := d.Problem("p2")
	_, ok = p2.WikiReference()
	assert.False(t, ok)

	assert.Len(t, d.Problems(), 5)
}

func TestDataset_Dashboard(t *testing.T) {
	data := New(refTime).Dashboard()

	assert.Equal(t, 7, data.ActiveIncidents)
	assert.Len(t, data.OpenIncidents, 7)
	assert.Equal(t, 1, data.ResolvedToday)
	assert.Positive(t, data.MTTRHours)
	assert.Positive(t, data.MTTAMinutes)
	assert.Equal(t, domain.SLAHealthWarning, domain.ClassifySLA(data.SLACompliancePct))

	require.Len(t, data.IncidentsBySeverity, 4)
	total := 0
	for _, s := range data.IncidentsBySeverity {
		assert.NotEmpty(t, s.Color)
		total += s.Value
	}
	assert.Equal(t, 10, total)

	require.Len(t, data.RecentActivity, domain.DefaultActivityLimit)
	for i := 1; i < len(data.RecentActivity); i++ {
		assert.False(t, data.RecentActivity[i].CreatedAt.After(data.RecentActivity[i-1].CreatedAt.Time))
	}
	for _, e := range data.RecentActivity {
		assert.NotEmpty(t, e.IncidentNumber)
	}

	for _, p := range data.TrendingProblems {
		assert.NotEqual(t, domain.FixStatusResolved, p.FixStatus)
	}
}
