package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bissquit/incident-console/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBadCredentials = errors.New("invalid credentials")

type fakeAuthenticator struct {
	calls  int
	result *domain.LoginResult
	err    error
}

func (f *fakeAuthenticator) Login(_ context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.LoginResult{
		Token: "token-" + creds.Username,
		User:  domain.User{ID: "u1", Username: creds.Username, Role: domain.RoleResponder},
	}, nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestOpen(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	user := `{"id":"u1","username":"alice","role":"admin"}`

	tests := []struct {
		name      string
		values    map[string]string
		wantAuth  bool
		wantClear bool
	}{
		{
			name:     "empty storage",
			values:   nil,
			wantAuth: false,
		},
		{
			name:     "opaque token",
			values:   map[string]string{TokenKey: "abc", UserKey: user},
			wantAuth: true,
		},
		{
			name:     "valid jwt",
			values:   map[string]string{TokenKey: signedToken(t, now.Add(time.Hour)), UserKey: user},
			wantAuth: true,
		},
		{
			name:      "expired jwt",
			values:    map[string]string{TokenKey: signedToken(t, now.Add(-time.Minute)), UserKey: user},
			wantAuth:  false,
			wantClear: true,
		},
		{
			name:      "corrupt user",
			values:    map[string]string{TokenKey: "abc", UserKey: "{"},
			wantAuth:  false,
			wantClear: true,
		},
		{
			name:     "token without user",
			values:   map[string]string{TokenKey: "abc"},
			wantAuth: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage(tt.values)

			store, err := Open(storage, WithClock(func() time.Time { return now }))
			require.NoError(t, err)

			assert.Equal(t, tt.wantAuth, store.IsAuthenticated())
			if tt.wantAuth {
				assert.Equal(t, "alice", store.Username())
				assert.Equal(t, tt.values[TokenKey], store.Token())
			}

			values, _ := storage.Load()
			if tt.wantClear {
				assert.Empty(t, values)
			}
		})
	}
}

func TestStore_Login(t *testing.T) {
	t.Run("success persists both keys", func(t *testing.T) {
		storage := NewMemoryStorage(nil)
		store, err := Open(storage)
		require.NoError(t, err)

		user, err := store.Login(context.Background(), &fakeAuthenticator{}, domain.Credentials{Username: "alice", Password: "pw"})
		require.NoError(t, err)

		assert.Equal(t, "alice", user.Username)
		assert.True(t, store.IsAuthenticated())
		assert.Equal(t, "token-alice", store.Token())

		values, _ := storage.Load()
		assert.Equal(t, "token-alice", values[TokenKey])
		assert.Contains(t, values[UserKey], `"username":"alice"`)
	})

	t.Run("rejected credentials leave session untouched", func(t *testing.T) {
		storage := NewMemoryStorage(map[string]string{TokenKey: "old", UserKey: `{"id":"u0","username":"bob","role":"viewer"}`})
		store, err := Open(storage)
		require.NoError(t, err)
		saves := storage.Saves()

		_, err = store.Login(context.Background(), &fakeAuthenticator{err: errBadCredentials}, domain.Credentials{Username: "bob", Password: "wrong"})
		require.ErrorIs(t, err, errBadCredentials)

		assert.Equal(t, saves, storage.Saves(), "storage must not be written")
		assert.Equal(t, "old", store.Token())
		assert.Equal(t, "bob", store.Username())
	})

	t.Run("blank username is a validation error", func(t *testing.T) {
		auth := &fakeAuthenticator{}
		store, err := Open(NewMemoryStorage(nil))
		require.NoError(t, err)

		_, err = store.Login(context.Background(), auth, domain.Credentials{Username: "  ", Password: "pw"})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, auth.calls)
	})

	t.Run("cancelled context discards result", func(t *testing.T) {
		storage := NewMemoryStorage(nil)
		store, err := Open(storage)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = store.Login(ctx, &fakeAuthenticator{}, domain.Credentials{Username: "alice", Password: "pw"})
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, store.IsAuthenticated())
		assert.Zero(t, storage.Saves())
	})
}

func TestStore_Teardown(t *testing.T) {
	seed := map[string]string{TokenKey: "abc", UserKey: `{"id":"u1","username":"alice","role":"admin"}`}

	t.Run("logout", func(t *testing.T) {
		storage := NewMemoryStorage(seed)
		store, err := Open(storage)
		require.NoError(t, err)

		require.NoError(t, store.Logout())
		assert.False(t, store.IsAuthenticated())
		assert.Empty(t, store.Token())
		values, _ := storage.Load()
		assert.Empty(t, values)
	})

	t.Run("invalidate", func(t *testing.T) {
		storage := NewMemoryStorage(seed)
		store, err := Open(storage)
		require.NoError(t, err)

		store.Invalidate("abc", ReasonUnauthorized)
		_, ok := store.User()
		assert.False(t, ok)
		values, _ := storage.Load()
		assert.Empty(t, values)
	})

	t.Run("rejection of a replaced token keeps the new session", func(t *testing.T) {
		storage := NewMemoryStorage(seed)
		store, err := Open(storage)
		require.NoError(t, err)

		_, err = store.Login(context.Background(), &fakeAuthenticator{}, domain.Credentials{Username: "bob", Password: "secret"})
		require.NoError(t, err)

		store.Invalidate("abc", ReasonUnauthorized)
		assert.True(t, store.IsAuthenticated())
		assert.Equal(t, "token-bob", store.Token())
		values, _ := storage.Load()
		assert.Equal(t, "token-bob", values[TokenKey])
	})
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	storage := NewFileStorage(path)

	values, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, storage.Save(map[string]string{TokenKey: "abc", UserKey: "{}"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	values, err = storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", values[TokenKey])

	require.NoError(t, storage.Save(map[string]string{}))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := Open(NewFileStorage(path))
	require.Error(t, err)
}
