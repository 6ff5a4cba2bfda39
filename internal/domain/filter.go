package domain

import (
	"net/url"
	"strings"
)

// FilterAll is the sentinel that disables a predicate.
const FilterAll = "All"

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, FilterAll)
}

func equalFold(value, want string) bool {
	return isAll(want) || strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(want))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IncidentFilter narrows an incident list. Predicates are combined with AND.
type IncidentFilter struct {
	Severity string
	Status   string
	Category string
	Search   string
}

// Match reports whether the incident passes every active predicate.
func (f IncidentFilter) Match(inc Incident) bool {
	if !equalFold(string(inc.Severity), f.Severity) {
		return false
	}
	if !equalFold(string(inc.Status), f.Status) {
		return false
	}
	if !equalFold(deref(inc.Category), f.Category) {
		return false
	}
	q := strings.TrimSpace(f.Search)
	if q == "" {
		return true
	}
	return containsFold(inc.Title, q) ||
		containsFold(inc.IncidentNumber, q) ||
		containsFold(deref(inc.AssignedTo), q)
}

// Apply returns the incidents that match, preserving order.
func (f IncidentFilter) Apply(incidents []Incident) []Incident {
	out := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		if f.Match(inc) {
			out = append(out, inc)
		}
	}
	return out
}

// Query encodes the active predicates as collaborator query parameters.
func (f IncidentFilter) Query() url.Values {
	q := url.Values{}
	if !isAll(f.Severity) {
		q.Set("severity", strings.ToLower(strings.TrimSpace(f.Severity)))
	}
	if !isAll(f.Status) {
		q.Set("status", strings.ToLower(strings.TrimSpace(f.Status)))
	}
	if !isAll(f.Category) {
		q.Set("category", strings.TrimSpace(f.Category))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	return q
}

// ProblemFilter narrows a problem list. Predicates are combined with AND.
type ProblemFilter struct {
	FixStatus string
	Priority  string
	Search    string
}

// Match reports whether the problem passes every active predicate.
func (f ProblemFilter) Match(p Problem) bool {
	if !isAll(f.FixStatus) && ParseFixStatus(string(p.FixStatus)) != ParseFixStatus(f.FixStatus) {
		return false
	}
	if !equalFold(string(p.Priority), f.Priority) {
		return false
	}
	q := strings.TrimSpace(f.Search)
	if q == "" {
		return true
	}
	return containsFold(p.Title, q) || containsFold(p.ProblemNumber, q)
}

// Apply returns the problems that match, preserving order.
func (f ProblemFilter) Apply(problems []Problem) []Problem {
	out := make([]Problem, 0, len(problems))
	for _, p := range problems {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Query encodes the server-side predicates. Search is applied client side only.
func (f ProblemFilter) Query() url.Values {
	q := url.Values{}
	if !isAll(f.FixStatus) {
		q.Set("fix_status", string(ParseFixStatus(f.FixStatus)))
	}
	if !isAll(f.Priority) {
		q.Set("priority", strings.ToLower(strings.TrimSpace(f.Priority)))
	}
	return q
}
