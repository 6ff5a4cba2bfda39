package console

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/dashboard"
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/incidents"
	"github.com/bissquit/incident-console/internal/lifecycle"
	"github.com/bissquit/incident-console/internal/pkg/httputil"
	"github.com/bissquit/incident-console/internal/problems"
	"github.com/bissquit/incident-console/internal/session"
	"github.com/bissquit/incident-console/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	collab *testutil.Collaborator
	client *testutil.Client
	store  *session.Store
}

func newTestEnv(t *testing.T, fallback bool) *testEnv {
	t.Helper()

	collab := testutil.NewCollaborator(t)
	store, err := session.Open(session.NewMemoryStorage(nil))
	require.NoError(t, err)

	apiClient, err := api.New(api.Config{BaseURL: collab.URL(), Timeout: 2 * time.Second}, store)
	require.NoError(t, err)

	journal := incidents.NewJournal()
	h := NewHandler(
		store,
		apiClient,
		incidents.NewService(incidents.Config{Fallback: fallback}, apiClient, store, lifecycle.NewEngine(), journal),
		problems.NewService(problems.Config{Fallback: fallback}, apiClient, nil),
		dashboard.NewService(dashboard.Config{Fallback: fallback}, apiClient, journal, nil),
	)

	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{collab: collab, client: testutil.NewClient(srv.URL), store: store}
}

func signedIn(t *testing.T, fallback bool) *testEnv {
	t.Helper()
	env := newTestEnv(t, fallback)
	env.client.LoginAsAdmin(t)
	return env
}

func TestHandler_SessionFlow(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := env.client.GET("/api/session")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body testutil.ErrorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, httputil.LoginPath, body.Login)

	resp, err = env.client.GET("/api/incidents")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "not signed in", body.Error.Message)
	assert.Zero(t, env.collab.TotalRequests())

	resp, err = env.client.POST("/api/session", domain.Credentials{Username: testutil.AdminUsername, Password: "nope"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "invalid username or password", body.Error.Message)

	env.client.LoginAsAdmin(t)
	assert.True(t, env.store.IsAuthenticated())

	resp, err = env.client.GET("/api/session")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := testutil.DecodeEnvelope[domain.User](t, resp)
	assert.Equal(t, testutil.AdminUsername, user.Data.Username)

	resp, err = env.client.DELETE("/api/session")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.False(t, env.store.IsAuthenticated())

	resp, err = env.client.GET("/api/dashboard")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_LoginValidation(t *testing.T) {
	env := newTestEnv(t, true)

	resp, err := env.client.POST("/api/session", domain.Credentials{Username: " ", Password: "x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body testutil.ErrorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "validation error", body.Error.Message)
	assert.Zero(t, env.collab.Requests(http.MethodPost, "/api/auth/login"))
}

func TestHandler_RevokedToken(t *testing.T) {
	env := signedIn(t, true)
	env.collab.RevokeTokens()

	resp, err := env.client.GET("/api/dashboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body testutil.ErrorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, httputil.LoginPath, body.Login)
	assert.False(t, env.store.IsAuthenticated())
}

func TestHandler_ListIncidents(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		outage   bool
		wantIDs  []string
		wantDemo bool
	}{
		{name: "all", query: "", wantIDs: []string{"srv-1", "srv-2", "srv-3"}},
		{name: "by severity", query: "?severity=Critical", wantIDs: []string{"srv-1"}},
		{name: "by status", query: "?status=monitoring&severity=All", wantIDs: []string{"srv-2"}},
		{name: "search", query: "?search=vpn", wantIDs: []string{"srv-3"}},
		{name: "outage serves demo", query: "?status=open", outage: true, wantIDs: []string{"inc-4", "inc-6", "inc-7"}, wantDemo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := signedIn(t, true)
			if tt.outage {
				env.collab.FailWith(http.StatusServiceUnavailable)
			}

			resp, err := env.client.GET("/api/incidents" + tt.query)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			env2 := testutil.DecodeEnvelope[[]domain.Incident](t, resp)
			ids := make([]string, 0, len(env2.Data))
			for _, inc := range env2.Data {
				ids = append(ids, inc.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantDemo, env2.Demo)
		})
	}
}

func TestHandler_OutageWithoutFallback(t *testing.T) {
	env := signedIn(t, false)
	env.collab.FailWith(http.StatusInternalServerError)

	resp, err := env.client.GET("/api/incidents")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body testutil.ErrorBody
	testutil.DecodeJSON(t, resp, &body)
	assert.Equal(t, "incident api unavailable", body.Error.Message)
}

func TestHandler_GetIncident(t *testing.T) {
	env := signedIn(t, true)

	resp, err := env.client.GET("/api/incidents/srv-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := testutil.DecodeEnvelope[domain.Incident](t, resp)
	assert.Equal(t, "INC-2026-0001", detail.Data.IncidentNumber)
	assert.False(t, detail.Demo)
	assert.False(t, detail.Provisional)

	resp, err = env.client.GET("/api/incidents/nope")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_CreateIncident(t *testing.T) {
	t.Run("stored remotely", func(t *testing.T) {
		env := signedIn(t, true)

		resp, err := env.client.POST("/api/incidents", domain.CreateIncidentInput{
			Title:    "Login page blank",
			Severity: "High",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := testutil.DecodeEnvelope[ChangeResponse](t, resp)
		require.NotNil(t, created.Data.Incident)
		assert.False(t, created.Provisional)
		assert.Equal(t, domain.SeverityHigh, created.Data.Incident.Severity)

		stored, ok := env.collab.Incident(created.Data.Incident.ID)
		require.True(t, ok)
		require.NotNil(t, stored.ReportedBy)
		assert.Equal(t, testutil.AdminUsername, *stored.ReportedBy)
	})

	t.Run("provisional during outage", func(t *testing.T) {
		env := signedIn(t, true)
		env.collab.FailWith(http.StatusBadGateway)

		resp, err := env.client.POST("/api/incidents", domain.CreateIncidentInput{
			Title:    "Login page blank",
			Severity: domain.SeverityHigh,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created := testutil.DecodeEnvelope[ChangeResponse](t, resp)
		require.NotNil(t, created.Data.Incident)
		assert.True(t, created.Provisional)
		id := created.Data.Incident.ID
		assert.True(t, lifecycle.IsLocalID(id))

		resp, err = env.client.GET("/api/incidents/" + id)
		require.NoError(t, err)
		detail := testutil.DecodeEnvelope[domain.Incident](t, resp)
		assert.True(t, detail.Provisional)
		assert.Equal(t, "Login page blank", detail.Data.Title)
	})

	t.Run("validation", func(t *testing.T) {
		env := signedIn(t, true)

		resp, err := env.client.POST("/api/incidents", map[string]any{"title": "  ", "severity": "urgent"})
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body struct {
			Error struct {
				Message string              `json:"message"`
				Details []domain.FieldError `json:"details"`
			} `json:"error"`
		}
		testutil.DecodeJSON(t, resp, &body)
		assert.Equal(t, "validation error", body.Error.Message)

		fields := make([]string, 0, len(body.Error.Details))
		for _, d := range body.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"title", "severity"}, fields)
		assert.Zero(t, env.collab.Requests(http.MethodPost, "/api/incidents"))
	})

	t.Run("malformed json", func(t *testing.T) {
		env := signedIn(t, true)

		req, err := http.NewRequest(http.MethodPost, env.client.BaseURL+"/api/incidents", strings.NewReader("{"))
		require.NoError(t, err)
		resp, err := env.client.HTTPClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandler_AdvanceIncident(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		env := signedIn(t, true)

		resp, err := env.client.PATCH("/api/incidents/srv-1/status", AdvanceRequest{Status: "Investigating"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		change := testutil.DecodeEnvelope[ChangeResponse](t, resp)
		require.NotNil(t, change.Data.Incident)
		assert.Equal(t, domain.IncidentStatusInvestigating, change.Data.Incident.Status)
		assert.False(t, change.Provisional)
		assert.Equal(t, 1, env.collab.Requests(http.MethodPatch, "/api/incidents/{id}/status"))
	})

	t.Run("backward is rejected before sending", func(t *testing.T) {
		env := signedIn(t, true)

		resp, err := env.client.PATCH("/api/incidents/srv-2/status", AdvanceRequest{Status: domain.IncidentStatusOpen})
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Zero(t, env.collab.Requests(http.MethodPatch, "/api/incidents/{id}/status"))
	})

	t.Run("provisional during outage", func(t *testing.T) {
		env := signedIn(t, true)
		env.collab.FailWith(http.StatusServiceUnavailable)

		// inc-1 is investigating in the demo dataset.
		resp, err := env.client.PATCH("/api/incidents/inc-1/status", AdvanceRequest{Status: domain.IncidentStatusMonitoring})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		change := testutil.DecodeEnvelope[ChangeResponse](t, resp)
		assert.True(t, change.Provisional)
		require.NotNil(t, change.Data.Entry)
		assert.Equal(t, "Status changed from investigating to monitoring", change.Data.Entry.Content)
		assert.True(t, change.Data.Entry.Provisional)
	})
}

func TestHandler_ResolveAndAssign(t *testing.T) {
	env := signedIn(t, true)

	resp, err := env.client.PUT("/api/incidents/srv-1/assign", AssignRequest{AssignedTo: "sam.lee"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assigned := testutil.DecodeEnvelope[ChangeResponse](t, resp)
	require.NotNil(t, assigned.Data.Incident)
	require.NotNil(t, assigned.Data.Incident.AssignedTo)
	assert.Equal(t, "sam.lee", *assigned.Data.Incident.AssignedTo)

	stored, _ := env.collab.Incident("srv-1")
	last := stored.TimelineEntries[len(stored.TimelineEntries)-1]
	assert.Equal(t, "Reassigned from jane.smith to sam.lee", last.Content)

	resp, err = env.client.PUT("/api/incidents/srv-1/assign", AssignRequest{AssignedTo: " "})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = env.client.PUT("/api/incidents/srv-1/resolve", domain.ResolveIncidentInput{ResolutionSummary: "Pool size raised"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := testutil.DecodeEnvelope[ChangeResponse](t, resp)
	require.NotNil(t, resolved.Data.Incident)
	assert.Equal(t, domain.IncidentStatusResolved, resolved.Data.Incident.Status)
	require.NotNil(t, resolved.Data.Incident.ResolvedBy)
	assert.Equal(t, testutil.AdminUsername, *resolved.Data.Incident.ResolvedBy)

	resp, err = env.client.PUT("/api/incidents/srv-1/resolve", domain.ResolveIncidentInput{})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandler_Timeline(t *testing.T) {
	env := signedIn(t, true)

	resp, err := env.client.POST("/api/incidents/srv-1/timeline", domain.TimelineEntryInput{
		EntryType: domain.EntryTypeEscalation,
		Content:   "Paged database on-call",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := testutil.DecodeEnvelope[domain.TimelineEntry](t, resp)
	assert.False(t, added.Provisional)

	resp, err = env.client.GET("/api/incidents/srv-1/timeline")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	timeline := testutil.DecodeEnvelope[[]domain.TimelineEntry](t, resp)
	require.Len(t, timeline.Data, 2)
	assert.Equal(t, "Paged database on-call", timeline.Data[0].Content)

	resp, err = env.client.POST("/api/incidents/srv-1/timeline", domain.TimelineEntryInput{
		EntryType: "gossip",
		Content:   "x",
	})
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Problems(t *testing.T) {
	env := signedIn(t, true)

	resp, err := env.client.GET("/api/problems?fix_status=in%20progress")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := testutil.DecodeEnvelope[[]ProblemView](t, resp)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "https://wiki.example.com/kb/gateway-connections", list.Data[0].KnowledgeBaseURL)

	resp, err = env.client.GET("/api/problems/prb-2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := testutil.DecodeEnvelope[ProblemView](t, resp)
	assert.Empty(t, detail.Data.KnowledgeBaseURL)

	env.collab.FailWith(http.StatusServiceUnavailable)
	resp, err = env.client.GET("/api/problems")
	require.NoError(t, err)
	demo := testutil.DecodeEnvelope[[]ProblemView](t, resp)
	assert.True(t, demo.Demo)
	assert.NotEmpty(t, demo.Data)
}

func TestHandler_Dashboard(t *testing.T) {
	env := signedIn(t, true)

	resp, err := env.client.GET("/api/dashboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := testutil.DecodeEnvelope[dashboard.Overview](t, resp)
	assert.False(t, overview.Demo)
	assert.Equal(t, domain.SLAHealthGood, overview.Data.SLAHealth)
	require.NotEmpty(t, overview.Data.OpenIncidents)
	assert.Equal(t, domain.SeverityCritical, overview.Data.OpenIncidents[0].Severity)

	env.collab.FailWith(http.StatusServiceUnavailable)
	resp, err = env.client.GET("/api/dashboard")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview = testutil.DecodeEnvelope[dashboard.Overview](t, resp)
	assert.True(t, overview.Demo)
}

func TestHandler_Activity(t *testing.T) {
	env := signedIn(t, true)

	resp, err := env.client.GET("/api/activity?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	activity := testutil.DecodeEnvelope[[]domain.TimelineEntry](t, resp)
	assert.Len(t, activity.Data, 2)

	for _, limit := range []string{"0", "-1", "ten"} {
		resp, err := env.client.GET("/api/activity?limit=" + limit)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
	}
}
