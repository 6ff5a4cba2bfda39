package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	data *domain.DashboardData
	err  error
}

func (f *fakeAPI) Dashboard(context.Context) (*domain.DashboardData, error) {
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.data
	return &copied, nil
}

type fakeJournal []domain.TimelineEntry

func (j fakeJournal) AllEntries() []domain.TimelineEntry { return j }

func entryAt(id string, ago time.Duration) domain.TimelineEntry {
	return domain.TimelineEntry{
		ID:             id,
		IncidentID:     "srv-1",
		IncidentNumber: "INC-101",
		EntryType:      domain.EntryTypeNote,
		Content:        id,
		CreatedAt:      domain.NewTimestamp(now.Add(-ago)),
	}
}

func TestService_Overview(t *testing.T) {
	fake := &fakeAPI{data: &domain.DashboardData{
		ActiveIncidents:  3,
		SLACompliancePct: 95.5,
		OpenIncidents: []domain.Incident{
			{ID: "low", Severity: domain.SeverityLow},
			{ID: "crit", Severity: domain.SeverityCritical},
			{ID: "odd", Severity: "unknown"},
			{ID: "high", Severity: domain.SeverityHigh},
		},
		RecentActivity: []domain.TimelineEntry{
			entryAt("old", 3*time.Hour),
			entryAt("new", time.Minute),
		},
	}}
	journal := fakeJournal{entryAt("local-1", 30*time.Minute)}
	svc := NewService(Config{Fallback: true, ActivityLimit: 2}, fake, journal, func() time.Time { return now })

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, overview.Demo)
	assert.Equal(t, domain.SLAHealthGood, overview.SLAHealth)

	ids := func(incidents []domain.Incident) []string {
		out := make([]string, 0, len(incidents))
		for _, inc := range incidents {
			out = append(out, inc.ID)
		}
		return out
	}
	assert.Equal(t, []string{"crit", "high", "low", "odd"}, ids(overview.OpenIncidents))

	require.Len(t, overview.RecentActivity, 2)
	assert.Equal(t, "new", overview.RecentActivity[0].ID)
	assert.Equal(t, "local-1", overview.RecentActivity[1].ID)
}

func TestService_OverviewFallback(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback bool
		wantDemo bool
	}{
		{name: "server error", err: &api.StatusError{Code: http.StatusBadGateway}, fallback: true, wantDemo: true},
		{name: "transport error", err: &api.TransportError{Err: fmt.Errorf("timeout")}, fallback: true, wantDemo: true},
		{name: "disabled", err: &api.StatusError{Code: http.StatusBadGateway}},
		{name: "forbidden", err: &api.StatusError{Code: http.StatusForbidden}, fallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(Config{Fallback: tt.fallback}, &fakeAPI{err: tt.err}, nil, func() time.Time { return now })

			overview, err := svc.Overview(context.Background())
			if !tt.wantDemo {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, overview.Demo)
			assert.Equal(t, domain.SLAHealthWarning, overview.SLAHealth)
			assert.Len(t, overview.RecentActivity, domain.DefaultActivityLimit)
			require.NotEmpty(t, overview.OpenIncidents)
			assert.Equal(t, domain.SeverityCritical, overview.OpenIncidents[0].Severity)
		})
	}
}

func TestService_RecentActivity(t *testing.T) {
	var remote []domain.TimelineEntry
	for i := range 15 {
		remote = append(remote, entryAt(fmt.Sprintf("e%d", i), time.Duration(i+1)*time.Minute))
	}
	svc := NewService(Config{}, &fakeAPI{data: &domain.DashboardData{RecentActivity: remote}}, nil, nil)

	entries, isDemo, err := svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, isDemo)
	require.Len(t, entries, domain.DefaultActivityLimit)
	assert.Equal(t, "e0", entries[0].ID)

	entries, _, err = svc.RecentActivity(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestService_RecentActivityNeverExceedsBound(t *testing.T) {
	var remote []domain.TimelineEntry
	for i := range 8 {
		remote = append(remote, entryAt(fmt.Sprintf("r%d", i), time.Duration(i+1)*time.Minute))
	}
	var journal fakeJournal
	for i := range 12 {
		journal = append(journal, entryAt(fmt.Sprintf("local-%d", i), time.Duration(i+1)*time.Hour))
	}
	svc := NewService(Config{ActivityLimit: 10}, &fakeAPI{data: &domain.DashboardData{RecentActivity: remote}}, journal, nil)

	for _, limit := range []int{0, 10, 11, 50} {
		entries, _, err := svc.RecentActivity(context.Background(), limit)
		require.NoError(t, err)
		assert.Len(t, entries, 10, "limit %d", limit)
	}

	entries, _, err := svc.RecentActivity(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
