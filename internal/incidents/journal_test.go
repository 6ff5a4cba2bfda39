package incidents

import (
	"testing"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_PutIncident(t *testing.T) {
	j := NewJournal()

	j.PutIncident(domain.Incident{
		ID:             "local-1",
		IncidentNumber: "INC-L0001",
		Status:         domain.IncidentStatusOpen,
		TimelineEntries: []domain.TimelineEntry{
			{ID: "local-2", IncidentID: "local-1", EntryType: domain.EntryTypeNote, Content: "created"},
		},
	}, true)

	inc, ok := j.Incident("local-1")
	require.True(t, ok)
	require.Len(t, inc.TimelineEntries, 1)
	assert.True(t, inc.TimelineEntries[0].Provisional)
	assert.Equal(t, "INC-L0001", inc.TimelineEntries[0].IncidentNumber)
	assert.True(t, j.IsCreated("local-1"))

	j.PutIncident(domain.Incident{ID: "local-1", IncidentNumber: "INC-L0001", Status: domain.IncidentStatusMonitoring}, false)
	assert.True(t, j.IsCreated("local-1"), "created flag survives updates")
	require.Len(t, j.Created(), 1)
	assert.Equal(t, domain.IncidentStatusMonitoring, j.Created()[0].Status)
}

func TestJournal_Forget(t *testing.T) {
	j := NewJournal()
	j.PutIncident(domain.Incident{ID: "local-1"}, true)
	j.PutIncident(domain.Incident{ID: "srv-1"}, false)
	j.AddEntry(domain.TimelineEntry{ID: "local-2", IncidentID: "srv-1"})

	j.Forget("local-1")
	j.Forget("srv-1")

	_, ok := j.Incident("local-1")
	assert.True(t, ok)
	_, ok = j.Incident("srv-1")
	assert.False(t, ok)
	assert.Len(t, j.Entries("srv-1"), 1, "entries are never dropped")
}

func TestJournal_Overlay(t *testing.T) {
	j := NewJournal()
	j.PutIncident(domain.Incident{ID: "srv-2", Status: domain.IncidentStatusResolved}, false)
	j.PutIncident(domain.Incident{ID: "local-1", Status: domain.IncidentStatusOpen}, true)

	remote := []domain.Incident{
		{ID: "srv-1", Status: domain.IncidentStatusOpen},
		{ID: "srv-2", Status: domain.IncidentStatusMonitoring},
	}

	out := j.Overlay(remote)
	require.Len(t, out, 3)
	assert.Equal(t, "srv-1", out[0].ID)
	assert.Equal(t, domain.IncidentStatusResolved, out[1].Status)
	assert.Equal(t, "local-1", out[2].ID)
	assert.Equal(t, domain.IncidentStatusMonitoring, remote[1].Status, "input is not modified")
}

func TestJournal_EntriesAreCopies(t *testing.T) {
	j := NewJournal()
	j.AddEntry(domain.TimelineEntry{ID: "local-1", IncidentID: "srv-1", Content: "first"})

	entries := j.Entries("srv-1")
	entries[0].Content = "changed"

	assert.Equal(t, "first", j.Entries("srv-1")[0].Content)
	assert.Len(t, j.AllEntries(), 1)
}
