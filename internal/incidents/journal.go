package incidents

import (
	"slices"
	"sync"

	"github.com/bissquit/incident-console/internal/domain"
)

// Journal keeps the records synthesized locally after failed writes. Records
// live for the lifetime of the process and are never sent to the server.
type Journal struct {
	mu        sync.RWMutex
	created   []string
	incidents map[string]domain.Incident
	entries   map[string][]domain.TimelineEntry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{
		incidents: make(map[string]domain.Incident),
		entries:   make(map[string][]domain.TimelineEntry),
	}
}

// PutIncident stores the local version of inc. Timeline entries embedded in
// inc are moved into the entry log.
func (j *Journal) PutIncident(inc domain.Incident, created bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range inc.TimelineEntries {
		j.appendLocked(e)
	}
	inc = inc.Clone()
	inc.TimelineEntries = nil

	if _, exists := j.incidents[inc.ID]; !exists && created {
		j.created = append(j.created, inc.ID)
	}
	j.incidents[inc.ID] = inc
}

// Incident returns the local version of id, timeline included.
func (j *Journal) Incident(id string) (domain.Incident, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	inc, ok := j.incidents[id]
	if !ok {
		return domain.Incident{}, false
	}
	inc = inc.Clone()
	inc.TimelineEntries = slices.Clone(j.entries[id])
	return inc, true
}

// Forget drops the local override of a server-side incident. Incidents
// created locally and timeline entries are kept.
func (j *Journal) Forget(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if slices.Contains(j.created, id) {
		return
	}
	delete(j.incidents, id)
}

// Created returns incidents created locally, oldest first.
func (j *Journal) Created() []domain.Incident {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]domain.Incident, 0, len(j.created))
	for _, id := range j.created {
		out = append(out, j.incidents[id].Clone())
	}
	return out
}

// IsCreated reports whether id was created locally.
func (j *Journal) IsCreated(id string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Contains(j.created, id)
}

// AddEntry records a provisional entry.
func (j *Journal) AddEntry(e domain.TimelineEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.appendLocked(e)
}

func (j *Journal) appendLocked(e domain.TimelineEntry) {
	e.Provisional = true
	if e.IncidentNumber == "" {
		if inc, ok := j.incidents[e.IncidentID]; ok {
			e.IncidentNumber = inc.IncidentNumber
		}
	}
	j.entries[e.IncidentID] = append(j.entries[e.IncidentID], e)
}

// Entries returns the provisional entries of incidentID in insertion order.
func (j *Journal) Entries(incidentID string) []domain.TimelineEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return slices.Clone(j.entries[incidentID])
}

// AllEntries returns every provisional entry.
func (j *Journal) AllEntries() []domain.TimelineEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []domain.TimelineEntry
	for _, entries := range j.entries {
		out = append(out, entries...)
	}
	return out
}

// Overlay replaces incidents in list with their local versions and appends
// locally created incidents that are not yet present.
func (j *Journal) Overlay(list []domain.Incident) []domain.Incident {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]domain.Incident, 0, len(list)+len(j.created))
	seen := make(map[string]struct{}, len(list))
	for _, inc := range list {
		if local, ok := j.incidents[inc.ID]; ok {
			inc = local.Clone()
		}
		seen[inc.ID] = struct{}{}
		out = append(out, inc)
	}
	for _, id := range j.created {
		if _, ok := seen[id]; ok {
			continue
		}
		out = append(out, j.incidents[id].Clone())
	}
	return out
}
