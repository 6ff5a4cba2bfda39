package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/lifecycle"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Demo accounts known to the collaborator.
const (
	AdminUsername     = "admin"
	AdminPassword     = "admin123"
	ResponderUsername = "responder"
	ResponderPassword = "resp123"
)

// ContractFile returns the absolute path of the incident API contract.
func ContractFile() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "api", "openapi", "openapi.yaml")
}

type account struct {
	user domain.User
	hash []byte
}

// Collaborator is an in-memory incident API served over httptest. Every
// request is checked against the OpenAPI contract.
type Collaborator struct {
	t         *testing.T
	server    *httptest.Server
	contract  *Contract
	engine    *lifecycle.Engine

	mu        sync.Mutex
	secret    []byte
	accounts  map[string]account
	incidents []*domain.Incident
	timeline  map[string][]domain.TimelineEntry
	problems  []domain.Problem
	failCode  int
	delay     time.Duration
	requests  map[string]int
	seq       int
	entrySeq  int
}

// NewCollaborator starts a collaborator seeded with three incidents and two
// problems. It is closed when the test ends.
func NewCollaborator(t *testing.T) *Collaborator {
	t.Helper()

	c := &Collaborator{
		t:         t,
		contract:  MustLoadContract(t, ContractFile()),
		secret:    []byte("collaborator-secret"),
		accounts:  make(map[string]account),
		timeline:  make(map[string][]domain.TimelineEntry),
		requests:  make(map[string]int),
	}
	c.engine = lifecycle.NewEngine(lifecycle.WithIDGenerator(c.nextEntryID))

	c.addAccount(t, domain.User{ID: "1", Username: AdminUsername, Role: domain.RoleAdmin, Name: "Admin User"}, AdminPassword)
	c.addAccount(t, domain.User{ID: "2", Username: ResponderUsername, Role: domain.RoleResponder, Name: "On-call Responder"}, ResponderPassword)
	c.seed()

	c.server = httptest.NewServer(c.router())
	t.Cleanup(c.server.Close)
	return c
}

func (c *Collaborator) addAccount(t *testing.T, user domain.User, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	c.accounts[user.Username] = account{user: user, hash: hash}
}

func (c *Collaborator) seed() {
	now := time.Now().UTC()
	str := func(s string) *string { return &s }

	c.incidents = []*domain.Incident{
		{
			ID: "srv-1", IncidentNumber: "INC-2026-0001", Title: "Checkout returning 502",
			Severity: domain.SeverityCritical, Category: str("Application"), Status: domain.IncidentStatusOpen,
			ReportedAt: domain.NewTimestamp(now.Add(-90 * time.Minute)), AssignedTo: str("jane.smith"),
			ProblemID: str("prb-1"), Tags: "checkout,payments",
		},
		{
			ID: "srv-2", IncidentNumber: "INC-2026-0002", Title: "Disk pressure on log nodes",
			Severity: domain.SeverityLow, Category: str("Infrastructure"), Status: domain.IncidentStatusMonitoring,
			ReportedAt:     domain.NewTimestamp(now.Add(-5 * time.Hour)),
			AcknowledgedAt: domain.TimestampPtr(now.Add(-290 * time.Minute)),
		},
		{
			ID: "srv-3", IncidentNumber: "INC-2026-0003", Title: "VPN flapping for remote staff",
			Severity: domain.SeverityHigh, Category: str("Network"), Status: domain.IncidentStatusResolved,
			ReportedAt:     domain.NewTimestamp(now.Add(-26 * time.Hour)),
			AcknowledgedAt: domain.TimestampPtr(now.Add(-25 * time.Hour)),
			ResolvedAt:     domain.TimestampPtr(now.Add(-20 * time.Hour)),
			ProblemID:      str("prb-1"),
		},
	}

	author := "monitoring"
	for _, inc := range c.incidents {
		c.timeline[inc.ID] = []domain.TimelineEntry{{
			ID:         c.nextEntryID(),
			IncidentID: inc.ID,
			EntryType:  domain.EntryTypeNote,
			Content:    "Incident reported",
			Author:     &author,
			CreatedAt:  inc.ReportedAt,
		}}
	}
	c.seq = len(c.incidents)

	downtime := 240
	c.problems = []domain.Problem{
		{
			ID: "prb-1", ProblemNumber: "PRB-2026-0001", Title: "Upstream gateway exhausts connections",
			FixStatus: domain.FixStatusInProgress, Priority: domain.PriorityHigh, KnownError: 1,
			WikiURL: str("https://wiki.example.com/kb/gateway-connections"), IncidentCount: 2,
			TotalDowntimeMinutes: &downtime,
		},
		{
			ID: "prb-2", ProblemNumber: "PRB-2026-0002", Title: "Log retention misconfigured",
			FixStatus: domain.FixStatusOpen, Priority: domain.PriorityLow,
		},
	}
}

// nextEntryID is called with mu held.
func (c *Collaborator) nextEntryID() string {
	c.entrySeq++
	return fmt.Sprintf("srv-t%d", c.entrySeq)
}

// URL returns the API root, including the /api prefix.
func (c *Collaborator) URL() string {
	return c.server.URL + "/api"
}

// Close stops the server. Subsequent calls fail at the transport level.
func (c *Collaborator) Close() {
	c.server.Close()
}

// FailWith makes every request except login answer with code. Zero restores
// normal service.
func (c *Collaborator) FailWith(code int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failCode = code
}

// SetDelay delays every answer by d.
func (c *Collaborator) SetDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// RevokeTokens invalidates every token issued so far.
func (c *Collaborator) RevokeTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = append(c.secret, '!')
}

// Requests returns how many requests matched method and route, e.g.
// ("PATCH", "/api/incidents/{id}/status").
func (c *Collaborator) Requests(method, route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[method+" "+route]
}

// TotalRequests returns the number of requests received.
func (c *Collaborator) TotalRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.requests {
		n += v
	}
	return n
}

// Incident returns the stored incident with its timeline.
func (c *Collaborator) Incident(id string) (domain.Incident, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inc := c.findLocked(id)
	if inc == nil {
		return domain.Incident{}, false
	}
	return c.detailLocked(inc), true
}

// IssueToken signs a token for username that expires after ttl.
func (c *Collaborator) IssueToken(username string, ttl time.Duration) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked(username, ttl)
}

func (c *Collaborator) issueLocked(username string, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		c.t.Errorf("sign token: %v", err)
	}
	return signed
}

func (c *Collaborator) router() http.Handler {
	r := chi.NewRouter()
	r.Use(c.countRequests, c.injectFailures, c.validateContract)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", c.login)

		r.Group(func(r chi.Router) {
			r.Use(c.authenticate)

			r.Get("/auth/me", c.me)
			r.Get("/dashboard", c.dashboard)
			r.Get("/incidents", c.listIncidents)
			r.Post("/incidents", c.createIncident)
			r.Get("/incidents/{id}", c.getIncident)
			r.Put("/incidents/{id}", c.updateIncident)
			r.Patch("/incidents/{id}/status", c.updateStatus)
			r.Put("/incidents/{id}/resolve", c.resolveIncident)
			r.Put("/incidents/{id}/assign", c.assignIncident)
			r.Get("/incidents/{id}/timeline", c.listTimeline)
			r.Post("/incidents/{id}/timeline", c.addTimelineEntry)
			r.Get("/problems", c.listProblems)
			r.Get("/problems/{id}", c.getProblem)
		})
	})
	return r
}

func (c *Collaborator) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		c.mu.Lock()
		c.requests[r.Method+" "+route]++
		c.mu.Unlock()
	})
}

// validateContract checks the request and the recorded response against the
// contract before the response is written.
func (c *Collaborator) validateContract(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "unreadable body")
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, r)

		c.contract.Check(c.t, Exchange{
			Method:       r.Method,
			Path:         r.URL.Path,
			Query:        r.URL.RawQuery,
			Header:       r.Header,
			RequestBody:  body,
			Status:       rec.Code,
			RespHeader:   rec.Header(),
			ResponseBody: rec.Body.Bytes(),
		})

		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
	})
}

func (c *Collaborator) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		delay, code := c.delay, c.failCode
		c.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if code != 0 && !strings.HasSuffix(r.URL.Path, "/auth/login") {
			writeMessage(w, code, http.StatusText(code))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (c *Collaborator) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeNested(w, http.StatusUnauthorized, "missing token")
			return
		}

		c.mu.Lock()
		secret := slices.Clone(c.secret)
		c.mu.Unlock()

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeNested(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		acct, ok := c.accounts[claims.Subject]
		if !ok {
			writeNested(w, http.StatusUnauthorized, "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r, acct.user)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage uses the flat {"message": ...} error shape.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeNested uses the {"error": {"message": ...}} error shape.
func writeNested(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"message": msg}})
}
