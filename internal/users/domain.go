// Package users reads and updates account profiles. Credential fields stay in
// the auth package; this package never sees password hashes.
package users

import (
	"errors"
	"time"
)

// User is a profile view of an account.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotFound indicates the requested account does not exist.
var ErrNotFound = errors.New("users: not found")
