package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
)

func newManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m, err := NewManager(
		config.AdminConfig{Username: "admin", Password: "admin123"},
		config.SessionConfig{Secret: "test-secret", TTL: 24 * time.Hour},
		store,
	)
	require.NoError(t, err)
	return m
}

func TestLogin_ResolveLogout(t *testing.T) {
	m := newManager(t, NewMemoryStore())
	ctx := context.Background()

	token, p, err := m.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "admin", p.Username)
	require.NotEmpty(t, p.SessionID)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), p.ExpiresAt, time.Minute)

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, p, got)

	require.NoError(t, m.Logout(ctx, got))
	_, err = m.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_BadCredentials(t *testing.T) {
	m := newManager(t, NewMemoryStore())
	ctx := context.Background()

	_, _, err := m.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = m.Login(ctx, "root", "admin123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_RejectsTamperedAndForeignTokens(t *testing.T) {
	m := newManager(t, NewMemoryStore())
	ctx := context.Background()

	token, _, err := m.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	_, err = m.Resolve(ctx, token+"x")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Resolve(ctx, "not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	other := newManager(t, NewMemoryStore())
	other.secret = []byte("another-secret")
	_, err = other.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolve_Expired(t *testing.T) {
	m := newManager(t, NewMemoryStore())
	ctx := context.Background()

	token, _, err := m.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_, err = m.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager_UsesConfiguredHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	m, err := NewManager(
		config.AdminConfig{Username: "camp", Password: "ignored", PasswordHash: hash},
		config.SessionConfig{Secret: "x"},
		NewMemoryStore(),
	)
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, m.TTL())

	_, _, err = m.Login(context.Background(), "camp", "s3cret")
	require.NoError(t, err)
	_, _, err = m.Login(context.Background(), "camp", "ignored")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewManager(config.AdminConfig{Username: "camp", PasswordHash: "plain"}, config.SessionConfig{}, NewMemoryStore())
	require.Error(t, err)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	p := Principal{Username: "admin", SessionID: "abc", ExpiresAt: time.Now()}
	got, ok := FromContext(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	require.Equal(t, p, got)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	p := Principal{Username: "admin", SessionID: "id-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.Save(ctx, p))
	got, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	require.Equal(t, p, got)

	// Already expired sessions are never stored.
	require.NoError(t, s.Save(ctx, Principal{SessionID: "old", ExpiresAt: time.Now().Add(-time.Second)}))
	_, err = s.Get(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestRedisStore runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	s := NewRedisStore(rdb)
	p := Principal{Username: "admin", SessionID: "redis-test-session", ExpiresAt: time.Now().Add(time.Minute).Truncate(time.Second)}
	require.NoError(t, s.Save(ctx, p))

	got, err := s.Get(ctx, p.SessionID)
	require.NoError(t, err)
	require.True(t, p.ExpiresAt.Equal(got.ExpiresAt))
	require.Equal(t, p.Username, got.Username)

	require.NoError(t, s.Delete(ctx, p.SessionID))
	_, err = s.Get(ctx, p.SessionID)
	require.ErrorIs(t, err, ErrNotFound)
}
