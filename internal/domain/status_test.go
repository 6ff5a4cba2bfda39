package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncidentStatus_CanAdvanceTo(t *testing.T) {
	tests := []struct {
		from, to IncidentStatus
		want     bool
	}{
		{IncidentStatusOpen, IncidentStatusInvestigating, true},
		{IncidentStatusOpen, IncidentStatusResolved, true},
		{IncidentStatusMonitoring, IncidentStatusClosed, true},
		{IncidentStatusResolved, IncidentStatusClosed, true},
		{IncidentStatusInvestigating, IncidentStatusOpen, false},
		{IncidentStatusIdentified, IncidentStatusIdentified, false},
		{IncidentStatusClosed, IncidentStatusResolved, false},
		{"Open", "MONITORING", true},
		{"paused", IncidentStatusClosed, false},
		{IncidentStatusOpen, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestIncidentStatus_NextStatuses(t *testing.T) {
	assert.Equal(t, []IncidentStatus{IncidentStatusResolved, IncidentStatusClosed},
		IncidentStatusMonitoring.NextStatuses())
	assert.Empty(t, IncidentStatusClosed.NextStatuses())
	assert.Nil(t, IncidentStatus("unknown").NextStatuses())

	next := IncidentStatusOpen.NextStatuses()
	next[0] = IncidentStatusClosed
	assert.Equal(t, IncidentStatusInvestigating, Statuses()[1])
}

func TestIncidentStatus_Flags(t *testing.T) {
	for _, s := range Statuses() {
		active := s != IncidentStatusResolved && s != IncidentStatusClosed
		assert.Equal(t, active, s.IsActive(), s)
		assert.Equal(t, !active, s.ShowsResolution(), s)
	}
	assert.False(t, IncidentStatus("weird").ShowsResolution())
	assert.Equal(t, "Investigating", IncidentStatusInvestigating.Label())
}

func TestParseIncidentStatus(t *testing.T) {
	s, err := ParseIncidentStatus("  Identified ")
	require.NoError(t, err)
	assert.Equal(t, IncidentStatusIdentified, s)

	_, err = ParseIncidentStatus("paused")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestBadges(t *testing.T) {
	assert.Equal(t, BadgeDanger, SeverityBadge("Critical"))
	assert.Equal(t, BadgeMuted, SeverityBadge(SeverityLow))
	assert.Equal(t, BadgeUnknown, SeverityBadge("urgent"))
	assert.Equal(t, BadgeDanger, StatusBadge(IncidentStatusOpen))
	assert.Equal(t, BadgeSuccess, StatusBadge(IncidentStatusResolved))
	assert.Equal(t, BadgeUnknown, StatusBadge(""))
	assert.Equal(t, BadgeWarning, FixStatusBadge("In Progress"))
	assert.Equal(t, BadgeWarning, PriorityBadge(PriorityHigh))
}
