// Package session holds the authenticated session shared by every API call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/bissquit/incident-console/internal/pkg/metrics"
	"github.com/golang-jwt/jwt/v5"
)

// Invalidation reasons.
const (
	ReasonLogout       = "logout"
	ReasonUnauthorized = "unauthorized"
	ReasonExpired      = "expired"
)

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
}

// Store is the single owner of the current session. It reads storage once
// when opened and writes it on login and teardown.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	token   string
	user    *domain.User
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates a store from whatever storage holds. A stored token that has
// already expired is discarded.
func Open(storage Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	values, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	token := values[TokenKey]
	rawUser := values[UserKey]
	if token == "" || rawUser == "" {
		return s, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		slog.Warn("discarding unreadable stored user", "error", err)
		return s, s.clearStorage()
	}

	if expired(token, s.now()) {
		slog.Info("discarding expired session", "username", user.Username)
		metrics.SessionInvalidations.WithLabelValues(ReasonExpired).Inc()
		return s, s.clearStorage()
	}

	s.token = token
	s.user = &user
	return s, nil
}

// expired reports whether token is a JWT whose exp claim has passed. Opaque
// tokens never expire client side.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

// Token returns the bearer token, empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user.
func (s *Store) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Username returns the current username, empty when logged out.
func (s *Store) Username() string {
	u, _ := s.User()
	return u.Username
}

// IsAuthenticated reports whether both token and user are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// Login validates creds, authenticates them and persists the result. On any
// error the current session and storage are left as they were.
func (s *Store) Login(ctx context.Context, auth Authenticator, creds domain.Credentials) (domain.User, error) {
	if err := domain.Validate(creds); err != nil {
		return domain.User{}, err
	}

	result, err := auth.Login(ctx, creds)
	if err != nil {
		return domain.User{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	if result == nil || result.Token == "" {
		return domain.User{}, errors.New("login response carried no token")
	}

	rawUser, err := json.Marshal(result.User)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Save(map[string]string{
		TokenKey: result.Token,
		UserKey:  string(rawUser),
	}); err != nil {
		return domain.User{}, fmt.Errorf("persist session: %w", err)
	}

	user := result.User
	s.token = result.Token
	s.user = &user

	slog.Info("logged in", "username", user.Username, "role", user.Role)
	return user, nil
}

// Logout clears the session.
func (s *Store) Logout() error {
	return s.teardown("", ReasonLogout)
}

// Invalidate clears the session after the collaborator rejected token. A
// token that has since been replaced by a new login is ignored.
func (s *Store) Invalidate(token, reason string) {
	if err := s.teardown(token, reason); err != nil {
		slog.Error("failed to clear session storage", "reason", reason, "error", err)
	}
}

// teardown clears the session. A non-empty token must match the current one.
func (s *Store) teardown(token, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != "" && token != s.token {
		slog.Debug("ignoring rejection of a replaced token", "reason", reason)
		return nil
	}

	wasActive := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil

	if wasActive {
		metrics.SessionInvalidations.WithLabelValues(reason).Inc()
		slog.Info("session cleared", "reason", reason)
	}
	return s.clearStorageLocked()
}

func (s *Store) clearStorage() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearStorageLocked()
}

func (s *Store) clearStorageLocked() error {
	if err := s.storage.Save(map[string]string{}); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
