package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/lifecycle"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

func contextWithUser(r *http.Request, user domain.User) context.Context {
	return context.WithValue(r.Context(), userKey{}, user)
}

func userFrom(r *http.Request) domain.User {
	user, _ := r.Context().Value(userKey{}).(domain.User)
	return user
}

func (c *Collaborator) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	acct, ok := c.accounts[creds.Username]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(creds.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	c.mu.Lock()
	token := c.issueLocked(acct.user.Username, time.Hour)
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"token":        token,
		"access_token": token,
		"user":         acct.user,
	})
}

func (c *Collaborator) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r))
}

func (c *Collaborator) findLocked(id string) *domain.Incident {
	for _, inc := range c.incidents {
		if inc.ID == id {
			return inc
		}
	}
	return nil
}

func (c *Collaborator) detailLocked(inc *domain.Incident) domain.Incident {
	out := inc.Clone()
	out.TimelineEntries = append([]domain.TimelineEntry(nil), c.timeline[inc.ID]...)
	return out
}

// withIncident runs fn with mu held and the incident named in the path.
func (c *Collaborator) withIncident(w http.ResponseWriter, r *http.Request, fn func(inc *domain.Incident)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inc := c.findLocked(chi.URLParam(r, "id"))
	if inc == nil {
		writeMessage(w, http.StatusNotFound, "Incident not found")
		return
	}
	fn(inc)
}

// applyLocked stores the entries the engine appended to inc.
func (c *Collaborator) applyLocked(inc *domain.Incident) {
	c.timeline[inc.ID] = append(c.timeline[inc.ID], inc.TimelineEntries...)
	inc.TimelineEntries = nil
}

func (c *Collaborator) dashboard(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := domain.DashboardData{SLACompliancePct: 93.5}
	var all []domain.Incident
	bySeverity := map[domain.Severity]int{}
	for _, inc := range c.incidents {
		detail := c.detailLocked(inc)
		all = append(all, detail)
		bySeverity[inc.Severity]++
		if inc.Status.IsActive() {
			data.ActiveIncidents++
			data.OpenIncidents = append(data.OpenIncidents, inc.Clone())
		}
		if inc.ResolvedAt != nil && time.Since(inc.ResolvedAt.Time) <= 24*time.Hour {
			data.ResolvedToday++
		}
	}
	for _, s := range domain.Severities() {
		data.IncidentsBySeverity = append(data.IncidentsBySeverity, domain.ChartSlice{Name: s.Label(), Value: bySeverity[s]})
	}
	// Oldest first so that clients have to sort.
	activity := lifecycle.RecentActivity(all, 50)
	for i, j := 0, len(activity)-1; i < j; i, j = i+1, j-1 {
		activity[i], activity[j] = activity[j], activity[i]
	}
	data.RecentActivity = activity
	data.TrendingProblems = append(data.TrendingProblems, c.problems...)

	writeJSON(w, http.StatusOK, data)
}

func (c *Collaborator) listIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.IncidentFilter{
		Severity: q.Get("severity"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	c.mu.Lock()
	list := make([]domain.Incident, 0, len(c.incidents))
	for _, inc := range c.incidents {
		list = append(list, inc.Clone())
	}
	c.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"incidents": filter.Apply(list)})
}

func (c *Collaborator) getIncident(w http.ResponseWriter, r *http.Request) {
	c.withIncident(w, r, func(inc *domain.Incident) {
		writeJSON(w, http.StatusOK, c.detailLocked(inc))
	})
}

func (c *Collaborator) createIncident(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateIncidentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := domain.Validate(input); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	c.seq++
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	inc := &domain.Incident{
		ID:             fmt.Sprintf("srv-%d", c.seq),
		IncidentNumber: fmt.Sprintf("INC-%d-%04d", now.Year(), c.seq),
		Title:          input.Title,
		Description:    opt(input.Description),
		Severity:       input.Severity,
		Category:       opt(input.Category),
		Status:         domain.IncidentStatusOpen,
		ReportedAt:     domain.NewTimestamp(now),
		UsersAffected:  input.UsersAffected,
		BusinessImpact: opt(input.BusinessImpact),
		ReportedBy:     opt(input.ReportedBy),
		AssignedTo:     opt(input.AssignedTo),
		Tags:           input.Tags,
		CreatedAt:      domain.TimestampPtr(now),
		UpdatedAt:      domain.TimestampPtr(now),
	}
	c.incidents = append(c.incidents, inc)

	entry, _ := c.engine.NewEntry(inc.ID, domain.TimelineEntryInput{
		EntryType: domain.EntryTypeNote,
		Content:   "Incident reported",
	}, input.ReportedBy)
	c.timeline[inc.ID] = append(c.timeline[inc.ID], entry)

	writeJSON(w, http.StatusCreated, c.detailLocked(inc))
}

func (c *Collaborator) updateIncident(w http.ResponseWriter, r *http.Request) {
	var input domain.UpdateIncidentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	c.withIncident(w, r, func(inc *domain.Incident) {
		set := func(dst **string, src *string) {
			if src != nil {
				v := *src
				*dst = &v
			}
		}
		if input.Title != nil {
			inc.Title = *input.Title
		}
		if input.Severity != nil {
			inc.Severity = *input.Severity
		}
		if input.Tags != nil {
			inc.Tags = *input.Tags
		}
		set(&inc.Description, input.Description)
		set(&inc.Category, input.Category)
		set(&inc.AssignedTo, input.AssignedTo)
		set(&inc.ResolutionSummary, input.ResolutionSummary)
		set(&inc.RootCause, input.RootCause)
		set(&inc.Workaround, input.Workaround)
		set(&inc.LessonsLearned, input.LessonsLearned)
		set(&inc.PreventiveActions, input.PreventiveActions)
		set(&inc.ProblemID, input.ProblemID)
		inc.UpdatedAt = domain.TimestampPtr(time.Now())

		writeJSON(w, http.StatusOK, c.detailLocked(inc))
	})
}

func (c *Collaborator) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.IncidentStatus `json:"status"`
		Author string                `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	c.withIncident(w, r, func(inc *domain.Incident) {
		if _, err := c.engine.Advance(inc, req.Status, authorOf(req.Author, r)); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		c.applyLocked(inc)
		writeJSON(w, http.StatusOK, c.detailLocked(inc))
	})
}

func (c *Collaborator) resolveIncident(w http.ResponseWriter, r *http.Request) {
	var input domain.ResolveIncidentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	c.withIncident(w, r, func(inc *domain.Incident) {
		if _, err := c.engine.Resolve(inc, input, userFrom(r).Username); err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		c.applyLocked(inc)
		writeJSON(w, http.StatusOK, c.detailLocked(inc))
	})
}

func (c *Collaborator) assignIncident(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssignedTo string `json:"assigned_to"`
		Author     string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	c.withIncident(w, r, func(inc *domain.Incident) {
		content := "Assigned to " + req.AssignedTo
		if inc.AssignedTo != nil && *inc.AssignedTo != "" {
			content = fmt.Sprintf("Reassigned from %s to %s", *inc.AssignedTo, req.AssignedTo)
		}
		entry, err := c.engine.NewEntry(inc.ID, domain.TimelineEntryInput{
			EntryType: domain.EntryTypeAssignment,
			Content:   content,
		}, authorOf(req.Author, r))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		assignee := req.AssignedTo
		inc.AssignedTo = &assignee
		c.timeline[inc.ID] = append(c.timeline[inc.ID], entry)
		writeJSON(w, http.StatusOK, c.detailLocked(inc))
	})
}

func (c *Collaborator) listTimeline(w http.ResponseWriter, r *http.Request) {
	c.withIncident(w, r, func(inc *domain.Incident) {
		writeJSON(w, http.StatusOK, c.detailLocked(inc).TimelineEntries)
	})
}

func (c *Collaborator) addTimelineEntry(w http.ResponseWriter, r *http.Request) {
	var input domain.TimelineEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	c.withIncident(w, r, func(inc *domain.Incident) {
		entry, err := c.engine.NewEntry(inc.ID, input, userFrom(r).Username)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		c.timeline[inc.ID] = append(c.timeline[inc.ID], entry)
		writeJSON(w, http.StatusCreated, entry)
	})
}

func (c *Collaborator) listProblems(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProblemFilter{
		FixStatus: r.URL.Query().Get("fix_status"),
		Priority:  r.URL.Query().Get("priority"),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	writeJSON(w, http.StatusOK, filter.Apply(c.problems))
}

func (c *Collaborator) getProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.problems {
		if p.ID != id {
			continue
		}
		for _, inc := range c.incidents {
			if inc.LinkedToProblem(id) {
				p.Incidents = append(p.Incidents, inc.Clone())
			}
		}
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeMessage(w, http.StatusNotFound, "Problem not found")
}

func authorOf(author string, r *http.Request) string {
	if a := strings.TrimSpace(author); a != "" {
		return a
	}
	return userFrom(r).Username
}
