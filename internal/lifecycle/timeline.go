package lifecycle

import (
	"slices"

	"github.com/bissquit/incident-console/internal/domain"
)

// SortNewestFirst returns a copy ordered by created_at descending. Entries with
// equal timestamps keep their original relative order.
func SortNewestFirst(entries []domain.TimelineEntry) []domain.TimelineEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.TimelineEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	return sorted
}

// RecentActivity flattens the timelines of incidents, tags each entry with its
// incident number and returns the newest limit entries.
func RecentActivity(incidents []domain.Incident, limit int) []domain.TimelineEntry {
	var all []domain.TimelineEntry
	for _, inc := range incidents {
		for _, e := range inc.TimelineEntries {
			if e.IncidentNumber == "" {
				e.IncidentNumber = inc.IncidentNumber
			}
			all = append(all, e)
		}
	}
	return TopN(all, limit)
}

// TopN sorts entries newest first and keeps at most limit of them. A
// non-positive limit uses domain.DefaultActivityLimit.
func TopN(entries []domain.TimelineEntry, limit int) []domain.TimelineEntry {
	if limit <= 0 {
		limit = domain.DefaultActivityLimit
	}
	sorted := SortNewestFirst(entries)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// MergeEntries combines remote entries with local ones, dropping local
// entries whose id is already present remotely.
func MergeEntries(remote, local []domain.TimelineEntry) []domain.TimelineEntry {
	seen := make(map[string]struct{}, len(remote))
	out := make([]domain.TimelineEntry, 0, len(remote)+len(local))
	for _, e := range remote {
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range local {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		out = append(out, e)
	}
	return out
}
