package authz

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// RoleSource looks up the raw role string stored on a caller's profile.
type RoleSource interface {
	UserRole(ctx context.Context, userID string) (string, error)
}

// Resolver turns a caller id into a Role. Lookups go through a short-TTL LRU
// so a burst of requests from the same caller does one profile read; role
// changes take effect within the TTL.
type Resolver struct {
	source RoleSource
	cache  *expirable.LRU[string, Role]
	logger *slog.Logger
}

const (
	roleCacheSize = 4096
	roleCacheTTL  = 30 * time.Second
)

// NewResolver constructs a Resolver backed by source.
func NewResolver(source RoleSource, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		cache:  expirable.NewLRU[string, Role](roleCacheSize, nil, roleCacheTTL),
		logger: logger,
	}
}

// Role resolves the caller's role. It never fails: lookup errors and
// unrecognized values resolve to the least-privileged role so an unresolved
// role degrades privilege instead of crashing the request.
func (r *Resolver) Role(ctx context.Context, userID string) Role {
	if userID == "" {
		return RoleUser
	}
	if role, ok := r.cache.Get(userID); ok {
		return role
	}
	raw, err := r.source.UserRole(ctx, userID)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("role lookup failed, defaulting to user",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
		return RoleUser
	}
	role := ParseRole(raw)
	r.cache.Add(userID, role)
	return role
}

// Invalidate drops the cached role for a caller, e.g. after an admin changes
// it.
func (r *Resolver) Invalidate(userID string) {
	r.cache.Remove(userID)
}
