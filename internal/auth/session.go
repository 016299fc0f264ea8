package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// SessionStore keeps opaque cookie-backed sessions in Redis. The cookie value
// is a random id; everything else lives server-side, so the subsystem never
// inspects token internals.
type SessionStore struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

type sessionPayload struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// Create opens a session for the identity and writes the cookie.
func (s *SessionStore) Create(ctx context.Context, w http.ResponseWriter, identity shared.Identity) (string, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(sessionPayload{
		UserID:    identity.ID,
		Email:     identity.Email,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.redisKey(id), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.ttl),
	})
	return id, nil
}

// Identity resolves the caller from the session cookie. A missing cookie is
// ErrNoCredentials; an unknown or expired session id is ErrInvalidToken.
func (s *SessionStore) Identity(ctx context.Context, r *http.Request) (shared.Identity, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return shared.Identity{}, ErrNoCredentials
	}
	data, err := s.client.Get(ctx, s.redisKey(cookie.Value)).Bytes()
	if errors.Is(err, redis.Nil) {
		return shared.Identity{}, ErrInvalidToken
	}
	if err != nil {
		return shared.Identity{}, fmt.Errorf("auth: load session: %w", err)
	}
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return shared.Identity{}, ErrInvalidToken
	}
	return shared.Identity{ID: payload.UserID, Email: payload.Email}, nil
}

// Destroy removes the caller's session and clears the cookie.
func (s *SessionStore) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(s.cookieName)
	if err == nil && cookie.Value != "" {
		if err := s.client.Del(ctx, s.redisKey(cookie.Value)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("auth: delete session: %w", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// CookieName returns the session cookie identifier.
func (s *SessionStore) CookieName() string {
	return s.cookieName
}

func (s *SessionStore) redisKey(id string) string {
	return "session:" + id
}
