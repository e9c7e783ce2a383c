// Package session authenticates the camp administrator and tracks the
// resulting sessions server-side.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/keerthik-19/summer-camp-registration/internal/config"
)

var (
	ErrNotFound           = errors.New("session not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid session token")
)

// Principal is the authenticated admin behind a request.
type Principal struct {
	Username  string    `json:"username"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Store keeps live sessions. Entries expire on their own at ExpiresAt.
type Store interface {
	Save(ctx context.Context, p Principal) error
	Get(ctx context.Context, id string) (Principal, error)
	Delete(ctx context.Context, id string) error
}

// Manager checks the single admin credential pair and issues signed session
// tokens backed by a Store entry.
type Manager struct {
	store        Store
	secret       []byte
	ttl          time.Duration
	username     string
	passwordHash []byte
	now          func() time.Time
}

// NewManager prefers a configured bcrypt hash; otherwise the plain password
// is hashed once at startup.
func NewManager(admin config.AdminConfig, cfg config.SessionConfig, store Store) (*Manager, error) {
	hash := []byte(admin.PasswordHash)
	if len(hash) == 0 {
		if admin.Password == "" {
			return nil, errors.New("admin password or password hash is required")
		}
		h, err := HashPassword(admin.Password)
		if err != nil {
			return nil, err
		}
		hash = []byte(h)
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store:        store,
		secret:       []byte(cfg.Secret),
		ttl:          ttl,
		username:     admin.Username,
		passwordHash: hash,
		now:          time.Now,
	}, nil
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login verifies the credentials and opens a session. It returns the signed
// token to place in the cookie.
func (m *Manager) Login(ctx context.Context, username, password string) (string, Principal, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return "", Principal{}, ErrInvalidCredentials
	}

	now := m.now()
	p := Principal{
		Username:  m.username,
		SessionID: uuid.NewString(),
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}
	if err := m.store.Save(ctx, p); err != nil {
		return "", Principal{}, fmt.Errorf("save session: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Subject:   p.Username,
		ID:        p.SessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Principal{}, fmt.Errorf("sign session: %w", err)
	}
	return token, p, nil
}

// Resolve validates a token and returns the live session it names.
func (m *Manager) Resolve(ctx context.Context, token string) (Principal, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		return Principal{}, err
	}
	if p.Username != claims.Subject || !m.now().Before(p.ExpiresAt) {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

// Logout revokes the session.
func (m *Manager) Logout(ctx context.Context, p Principal) error {
	return m.store.Delete(ctx, p.SessionID)
}

func (m *Manager) TTL() time.Duration { return m.ttl }
