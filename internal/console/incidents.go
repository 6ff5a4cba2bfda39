package console

import (
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidents"
	"github.com/bissquit/incident-console/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// AdvanceRequest is the body of PATCH /incidents/{id}/status.
type AdvanceRequest struct {
	Status domain.IncidentStatus `json:"status"`
}

// AssignRequest is the body of PUT /incidents/{id}/assign.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// ChangeResponse is returned by incident writes. Entry is present when the
// change produced a timeline entry known to the console.
type ChangeResponse struct {
	Incident *domain.Incident      `json:"incident,omitempty"`
	Entry    *domain.TimelineEntry `json:"entry,omitempty"`
}

func respondChange(w http.ResponseWriter, status int, change *incidents.Change) {
	resp := ChangeResponse{Entry: change.Entry}
	if change.Incident.ID != "" {
		resp.Incident = &change.Incident
	}
	httputil.Respond(w, status, httputil.Envelope{Data: resp, Provisional: change.Provisional()})
}

func incidentFilter(r *http.Request) domain.IncidentFilter {
	q := r.URL.Query()
	return domain.IncidentFilter{
		Severity: q.Get("severity"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	listing, err := h.incidents.List(r.Context(), incidentFilter(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{
		Data: listing.Incidents,
		Demo: listing.Origin == incidents.OriginDemo,
	})
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateIncidentInput
	if !decode(w, r, &input) {
		return
	}

	change, err := h.incidents.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondChange(w, http.StatusCreated, change)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	detail, err := h.incidents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{
		Data:        detail.Incident,
		Demo:        detail.Origin == incidents.OriginDemo,
		Provisional: detail.Origin == incidents.OriginLocal,
	})
}

// UpdateIncident handles PUT /incidents/{id}.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	var input domain.UpdateIncidentInput
	if !decode(w, r, &input) {
		return
	}

	change, err := h.incidents.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondChange(w, http.StatusOK, change)
}

// AdvanceIncident handles PATCH /incidents/{id}/status.
func (h *Handler) AdvanceIncident(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if !decode(w, r, &req) {
		return
	}

	change, err := h.incidents.Advance(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondChange(w, http.StatusOK, change)
}

// ResolveIncident handles PUT /incidents/{id}/resolve.
func (h *Handler) ResolveIncident(w http.ResponseWriter, r *http.Request) {
	var input domain.ResolveIncidentInput
	if !decode(w, r, &input) {
		return
	}

	change, err := h.incidents.Resolve(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondChange(w, http.StatusOK, change)
}

// AssignIncident handles PUT /incidents/{id}/assign.
func (h *Handler) AssignIncident(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !decode(w, r, &req) {
		return
	}

	change, err := h.incidents.Assign(r.Context(), chi.URLParam(r, "id"), req.AssignedTo)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondChange(w, http.StatusOK, change)
}

// GetTimeline handles GET /incidents/{id}/timeline.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := h.incidents.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{
		Data:        timeline.Entries,
		Demo:        timeline.Origin == incidents.OriginDemo,
		Provisional: timeline.Origin == incidents.OriginLocal,
	})
}

// AddTimelineEntry handles POST /incidents/{id}/timeline.
func (h *Handler) AddTimelineEntry(w http.ResponseWriter, r *http.Request) {
	var input domain.TimelineEntryInput
	if !decode(w, r, &input) {
		return
	}

	change, err := h.incidents.AddEntry(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusCreated, httputil.Envelope{Data: change.Entry, Provisional: change.Provisional()})
}
