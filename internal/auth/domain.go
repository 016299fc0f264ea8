// Package auth resolves caller identities from session cookies or bearer
// tokens and owns credential records (users, API tokens, sessions).
package auth

import (
	"errors"
	"time"
)

// User is an account with credentials. Role is stored as free text and
// narrowed by the authorizer at the boundary.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// APIToken is the persisted half of a bearer token. The signed JWT references
// the record by ID so tokens stay revocable.
type APIToken struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Sentinel errors for the authentication paths. The middleware maps these to
// the client-visible taxonomy; anything else becomes an internal error.
var (
	// ErrNoCredentials means no session cookie or bearer token was presented.
	ErrNoCredentials = errors.New("auth: no credentials presented")
	// ErrInvalidToken covers malformed, unknown, and revoked credentials.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired covers credentials that were valid but have expired.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrInvalidCredentials covers failed email/password login attempts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrEmailTaken means signup collided with an existing account.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrTokenNotFound means a revocation target does not exist.
	ErrTokenNotFound = errors.New("auth: token not found")
)
