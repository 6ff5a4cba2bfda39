// Package api is the HTTP client for the incident management API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// Config holds API client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables pacing
	Burst     int
}

// Session supplies the bearer token and is torn down when the server rejects it.
type Session interface {
	Token() string
	Invalidate(token, reason string)
}

// Client calls the incident API on behalf of a session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	limiter    *rate.Limiter
}

// New creates a new API client.
func New(cfg Config, session Session) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api client: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api client: parse base URL: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		session:    session,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c, nil
}

// BaseURL returns the API root, e.g. "http://localhost:5000/api".
func (c *Client) BaseURL() string {
	return c.baseURL
}

type call struct {
	method    string
	route     string
	path      string
	query     url.Values
	body      any
	anonymous bool
}

// do performs the call and decodes a 2xx body into out. When ctx is done by
// the time an answer arrives, the answer is dropped and ctx.Err() returned.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	logger := ctxlog.FromContext(ctx)

	var token string
	if !cl.anonymous {
		token = c.session.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	req, err := c.newRequest(ctx, cl, token)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			observe(cl, "cancelled", start)
			return ctxErr
		}
		observe(cl, "transport_error", start)
		logger.Warn("incident api unreachable", "method", cl.method, "path", cl.path, "error", err)
		return &TransportError{Method: cl.method, Path: cl.path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if ctxErr := ctx.Err(); ctxErr != nil {
		observe(cl, "cancelled", start)
		return ctxErr
	}
	if err != nil {
		observe(cl, "transport_error", start)
		return &TransportError{Method: cl.method, Path: cl.path, Err: fmt.Errorf("read response: %w", err)}
	}
	observe(cl, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode >= http.StatusBadRequest {
		statusErr := &StatusError{
			Method:  cl.method,
			Path:    cl.path,
			Code:    resp.StatusCode,
			Message: errorMessage(body),
		}
		if resp.StatusCode == http.StatusUnauthorized && !cl.anonymous {
			c.session.Invalidate(token, "unauthorized")
		}
		logger.Debug("incident api error", "method", cl.method, "path", cl.path, "status", resp.StatusCode)
		return statusErr
	}

	logger.Debug("incident api call", "method", cl.method, "path", cl.path, "status", resp.StatusCode)

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", cl.method, cl.path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call, token string) (*http.Request, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func observe(cl call, outcome string, start time.Time) {
	metrics.APIRequestDuration.WithLabelValues(cl.method, cl.route, outcome).Observe(time.Since(start).Seconds())
}

// errorMessage extracts {"message": ...} or {"error": {"message": ...}}.
func errorMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return truncate(strings.TrimSpace(string(body)))
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if err := json.Unmarshal(payload.Error, &plain); err == nil {
			return plain
		}
	}
	return ""
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// decodeList accepts a bare JSON array or an object carrying the array
// under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	inner, ok := wrapped[key]
	if !ok {
		inner, ok = wrapped["data"]
	}
	if !ok || bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
