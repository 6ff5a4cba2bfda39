// Package console provides the local JSON gateway over the incident
// workflows. It owns the session and applies the same fallback policy as the
// CLI.
package console

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/dashboard"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidents"
	"github.com/bissquit/incident-console/internal/pkg/httputil"
	"github.com/bissquit/incident-console/internal/problems"
	"github.com/bissquit/incident-console/internal/session"
	"github.com/go-chi/chi/v5"
)

// Sessions is the session store used by the gateway.
type Sessions interface {
	IsAuthenticated() bool
	User() (domain.User, bool)
	Login(ctx context.Context, auth session.Authenticator, creds domain.Credentials) (domain.User, error)
	Logout() error
}

// Handler handles console gateway requests.
type Handler struct {
	sessions  Sessions
	auth      session.Authenticator
	incidents *incidents.Service
	problems  *problems.Service
	dashboard *dashboard.Service
}

// NewHandler creates a new console handler.
func NewHandler(
	sessions Sessions,
	auth session.Authenticator,
	incidentsService *incidents.Service,
	problemsService *problems.Service,
	dashboardService *dashboard.Service,
) *Handler {
	return &Handler{
		sessions:  sessions,
		auth:      auth,
		incidents: incidentsService,
		problems:  problemsService,
		dashboard: dashboardService,
	}
}

// RegisterRoutes registers the session routes and, behind RequireSession,
// everything else.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/", h.Login)
		r.Delete("/", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(httputil.RequireSession(h.sessions))

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/activity", h.GetActivity)

		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", h.ListIncidents)
			r.Post("/", h.CreateIncident)
			r.Get("/{id}", h.GetIncident)
			r.Put("/{id}", h.UpdateIncident)
			r.Patch("/{id}/status", h.AdvanceIncident)
			r.Put("/{id}/resolve", h.ResolveIncident)
			r.Put("/{id}/assign", h.AssignIncident)
			r.Get("/{id}/timeline", h.GetTimeline)
			r.Post("/{id}/timeline", h.AddTimelineEntry)
		})

		r.Route("/problems", func(r chi.Router) {
			r.Get("/", h.ListProblems)
			r.Get("/{id}", h.GetProblem)
		})
	})
}

var errorMappings = []httputil.ErrorMapping{
	{Error: api.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid username or password"},
	{Error: api.ErrNotAuthenticated, Status: http.StatusUnauthorized, Message: "not signed in"},
	{Error: api.ErrUnauthorized, Status: http.StatusUnauthorized, Message: "session expired, sign in again"},
	{Error: api.ErrNotFound, Status: http.StatusNotFound},
	{Error: api.ErrBadRequest, Status: http.StatusBadRequest},
	{Error: domain.ErrInvalidTransition, Status: http.StatusConflict},
	{Error: incidents.ErrLocalOnly, Status: http.StatusConflict},
	{Error: api.ErrUnavailable, Status: http.StatusBadGateway, Message: "incident api unavailable"},
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, errorMappings)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// GetSession handles GET /session.
func (h *Handler) GetSession(w http.ResponseWriter, _ *http.Request) {
	user, ok := h.sessions.User()
	if !ok {
		httputil.Unauthorized(w, "not signed in")
		return
	}
	httputil.Success(w, http.StatusOK, user)
}

// Login handles POST /session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if !decode(w, r, &creds) {
		return
	}

	user, err := h.sessions.Login(r.Context(), h.auth, creds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, user)
}

// Logout handles DELETE /session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDashboard handles GET /dashboard.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboard.Overview(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{Data: overview, Demo: overview.Demo})
}

// GetActivity handles GET /activity.
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, isDemo, err := h.dashboard.RecentActivity(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.Respond(w, http.StatusOK, httputil.Envelope{Data: entries, Demo: isDemo})
}
