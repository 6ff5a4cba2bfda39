package lifecycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(id string, minutesAgo int) domain.TimelineEntry {
	return domain.TimelineEntry{
		ID:        id,
		EntryType: domain.EntryTypeNote,
		Content:   id,
		CreatedAt: domain.NewTimestamp(fixedNow.Add(-time.Duration(minutesAgo) * time.Minute)),
	}
}

func ids(entries []domain.TimelineEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestSortNewestFirst(t *testing.T) {
	entries := []domain.TimelineEntry{
		entryAt("a", 30),
		entryAt("b", 5),
		entryAt("c", 30),
		entryAt("d", 60),
		entryAt("e", 5),
	}

	sorted := SortNewestFirst(entries)

	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, ids(sorted))
	assert.Equal(t, "a", entries[0].ID, "input must not be reordered")
}

func TestRecentActivity(t *testing.T) {
	var incidents []domain.Incident
	for i := 0; i < 3; i++ {
		inc := domain.Incident{ID: fmt.Sprintf("inc-%d", i), IncidentNumber: fmt.Sprintf("INC-00%d", i)}
		for j := 0; j < 5; j++ {
			inc.TimelineEntries = append(inc.TimelineEntries, entryAt(fmt.Sprintf("%d-%d", i, j), i*5+j))
		}
		incidents = append(incidents, inc)
	}

	t.Run("default limit", func(t *testing.T) {
		activity := RecentActivity(incidents, 0)
		require.Len(t, activity, domain.DefaultActivityLimit)
		assert.Equal(t, "0-0", activity[0].ID)
		assert.Equal(t, "INC-000", activity[0].IncidentNumber)
		assert.Equal(t, "1-4", activity[9].ID)
		assert.Equal(t, "INC-001", activity[9].IncidentNumber)

		for i := 1; i < len(activity); i++ {
			assert.False(t, activity[i].CreatedAt.After(activity[i-1].CreatedAt.Time))
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		assert.Len(t, RecentActivity(incidents, 3), 3)
	})

	t.Run("fewer entries than limit", func(t *testing.T) {
		assert.Len(t, RecentActivity(incidents[:1], 10), 5)
	})
}

func TestMergeEntries(t *testing.T) {
	remote := []domain.TimelineEntry{entryAt("r1", 10), entryAt("shared", 3)}
	local := []domain.TimelineEntry{entryAt("local-1", 1), entryAt("shared", 3)}

	merged := MergeEntries(remote, local)

	assert.Equal(t, []string{"r1", "shared", "local-1"}, ids(merged))
}
