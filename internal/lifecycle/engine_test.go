package lifecycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	n := 0
	return NewEngine(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("local-%d", n)
		}),
	)
}

func TestEngine_Advance_AllForwardPairs(t *testing.T) {
	statuses := domain.Statuses()

	for i, from := range statuses {
		for j, to := range statuses {
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				engine := newTestEngine()
				inc := &domain.Incident{ID: "inc-1", Status: from}

				entry, err := engine.Advance(inc, to, "alice")

				if j > i {
					require.NoError(t, err)
					assert.Equal(t, to, inc.Status)
					require.Len(t, inc.TimelineEntries, 1)
					assert.Equal(t, domain.EntryTypeStatusChange, entry.EntryType)
					assert.Equal(t, fmt.Sprintf("Status changed from %s to %s", from, to), entry.Content)
					require.NotNil(t, entry.OldStatus)
					require.NotNil(t, entry.NewStatus)
					assert.Equal(t, from, *entry.OldStatus)
					assert.Equal(t, to, *entry.NewStatus)
					assert.Equal(t, "alice", entry.AuthorName())
					assert.True(t, entry.CreatedAt.Equal(fixedNow))
					return
				}

				require.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.Equal(t, from, inc.Status)
				assert.Empty(t, inc.TimelineEntries)
			})
		}
	}
}

func TestEngine_Advance_SkipsIntermediateStates(t *testing.T) {
	engine := newTestEngine()
	inc := &domain.Incident{ID: "inc-1", Status: domain.IncidentStatusOpen}

	_, err := engine.Advance(inc, domain.IncidentStatusResolved, "")
	require.NoError(t, err)

	assert.Equal(t, domain.IncidentStatusResolved, inc.Status)
	require.Len(t, inc.TimelineEntries, 1)
	assert.Equal(t, SystemAuthor, inc.TimelineEntries[0].AuthorName())
	assert.NotNil(t, inc.ResolvedAt)
	assert.Nil(t, inc.ResolutionSummary, "resolution fields are not required")
}

func TestEngine_Advance_StampsTimestamps(t *testing.T) {
	earlier := domain.TimestampPtr(fixedNow.Add(-time.Hour))

	tests := []struct {
		name   string
		start  domain.Incident
		target domain.IncidentStatus
		check  func(t *testing.T, inc *domain.Incident)
	}{
		{
			name:   "investigating sets acknowledged_at",
			start:  domain.Incident{Status: domain.IncidentStatusOpen},
			target: domain.IncidentStatusInvestigating,
			check: func(t *testing.T, inc *domain.Incident) {
				require.NotNil(t, inc.AcknowledgedAt)
				assert.True(t, inc.AcknowledgedAt.Equal(fixedNow))
			},
		},
		{
			name:   "existing acknowledged_at is kept",
			start:  domain.Incident{Status: domain.IncidentStatusOpen, AcknowledgedAt: earlier},
			target: domain.IncidentStatusInvestigating,
			check: func(t *testing.T, inc *domain.Incident) {
				assert.True(t, inc.AcknowledgedAt.Equal(earlier.Time))
			},
		},
		{
			name:   "closed sets closed_at",
			start:  domain.Incident{Status: domain.IncidentStatusResolved},
			target: domain.IncidentStatusClosed,
			check: func(t *testing.T, inc *domain.Incident) {
				require.NotNil(t, inc.ClosedAt)
				assert.Nil(t, inc.AcknowledgedAt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc := tt.start
			_, err := newTestEngine().Advance(&inc, tt.target, "bob")
			require.NoError(t, err)
			tt.check(t, &inc)
		})
	}
}

func TestEngine_Advance_UnknownStatus(t *testing.T) {
	engine := newTestEngine()

	inc := &domain.Incident{Status: domain.IncidentStatusOpen}
	_, err := engine.Advance(inc, "paused", "bob")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.ErrorIs(t, err, domain.ErrUnknownStatus)

	inc = &domain.Incident{Status: "weird"}
	_, err = engine.Advance(inc, domain.IncidentStatusClosed, "bob")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.IncidentStatus("weird"), inc.Status)
}

func TestEngine_Resolve(t *testing.T) {
	t.Run("with summary", func(t *testing.T) {
		inc := &domain.Incident{ID: "inc-2", Status: domain.IncidentStatusMonitoring}

		entry, err := newTestEngine().Resolve(inc, domain.ResolveIncidentInput{
			ResolutionSummary: "Rolled back deploy",
			RootCause:         "Bad config",
		}, "carol")
		require.NoError(t, err)

		assert.Equal(t, domain.IncidentStatusResolved, inc.Status)
		assert.Equal(t, domain.EntryTypeResolution, entry.EntryType)
		assert.Equal(t, "Rolled back deploy", entry.Content)
		require.NotNil(t, entry.OldStatus)
		require.NotNil(t, entry.NewStatus)
		assert.Equal(t, domain.IncidentStatusMonitoring, *entry.OldStatus)
		assert.Equal(t, domain.IncidentStatusResolved, *entry.NewStatus)
		require.NotNil(t, inc.ResolvedBy)
		assert.Equal(t, "carol", *inc.ResolvedBy)
		require.NotNil(t, inc.RootCause)
		assert.Equal(t, "Bad config", *inc.RootCause)
		assert.Len(t, inc.TimelineEntries, 1)
	})

	t.Run("without summary", func(t *testing.T) {
		inc := &domain.Incident{Status: domain.IncidentStatusOpen}

		entry, err := newTestEngine().Resolve(inc, domain.ResolveIncidentInput{ResolvedBy: "dave"}, "carol")
		require.NoError(t, err)
		assert.Equal(t, "Incident resolved", entry.Content)
		assert.Equal(t, "dave", entry.AuthorName())
	})

	t.Run("already closed", func(t *testing.T) {
		inc := &domain.Incident{Status: domain.IncidentStatusClosed}

		_, err := newTestEngine().Resolve(inc, domain.ResolveIncidentInput{}, "carol")
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Nil(t, inc.ResolvedBy)
	})
}

func TestEngine_NewEntry(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.TimelineEntryInput
		wantErr    bool
		wantAuthor string
	}{
		{
			name:       "note with default author",
			input:      domain.TimelineEntryInput{EntryType: domain.EntryTypeNote, Content: "Checked logs"},
			wantAuthor: "alice",
		},
		{
			name:       "explicit author wins",
			input:      domain.TimelineEntryInput{EntryType: domain.EntryTypeEscalation, Content: "Paged DBA", Author: "bob"},
			wantAuthor: "bob",
		},
		{
			name:    "blank content",
			input:   domain.TimelineEntryInput{EntryType: domain.EntryTypeNote, Content: "   "},
			wantErr: true,
		},
		{
			name:    "unknown entry type",
			input:   domain.TimelineEntryInput{EntryType: "gossip", Content: "hello"},
			wantErr: true,
		},
		{
			name:    "missing entry type",
			input:   domain.TimelineEntryInput{Content: "hello"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := newTestEngine().NewEntry("inc-1", tt.input, "alice")
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				assert.Empty(t, entry.ID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "local-1", entry.ID)
			assert.Equal(t, "inc-1", entry.IncidentID)
			assert.Equal(t, tt.wantAuthor, entry.AuthorName())
			assert.Nil(t, entry.OldStatus)
		})
	}
}

func TestLocalID(t *testing.T) {
	id := NewLocalID()
	assert.True(t, IsLocalID(id))
	assert.False(t, IsLocalID("t-1"))
	assert.NotEqual(t, id, NewLocalID())
}
