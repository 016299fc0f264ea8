package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
)

type roleContextKey struct{}

// ContextWithRole stores the resolved role in context.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the resolved role, defaulting to user when none was
// stored.
func RoleFromContext(ctx context.Context) Role {
	if role, ok := ctx.Value(roleContextKey{}).(Role); ok {
		return role
	}
	return RoleUser
}

// Middleware gates routes on permissions. It expects an authenticated
// identity in context; authorization failures surface as FORBIDDEN, distinct
// from the authenticator's UNAUTHORIZED.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Require allows the request only when the resolved role grants every listed
// permission. The resolved role is stored in context for handlers.
func (m Middleware) Require(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.NewError(httpx.CodeUnauthorized, "authentication required"))
				return
			}
			role := m.Resolver.Role(r.Context(), identity.ID)
			if missing := Missing(role, perms...); len(missing) > 0 {
				m.denied(w, r, identity.ID, role)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}

// RequireSuperAdmin allows only super_admin callers. Destructive routes apply
// this on top of their permission checks.
func (m Middleware) RequireSuperAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.NewError(httpx.CodeUnauthorized, "authentication required"))
				return
			}
			role := m.Resolver.Role(r.Context(), identity.ID)
			if !IsSuperAdmin(role) {
				m.denied(w, r, identity.ID, role)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}

func (m Middleware) denied(w http.ResponseWriter, r *http.Request, userID string, role Role) {
	if m.Logger != nil {
		m.Logger.Warn("authorization denied",
			slog.String("user_id", userID),
			slog.String("role", string(role)),
			slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, httpx.NewError(httpx.CodeForbidden, "insufficient permissions"))
}
