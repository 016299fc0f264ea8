package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kristianfreeman/saas-starter/internal/platform/httpx"
	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// Middleware authenticates every request entering a protected route group and
// stores the resolved identity in context.
type Middleware struct {
	Authenticator *Authenticator
	Logger        *slog.Logger
	OnFailure     func()
}

// RequireAuth rejects requests without a resolvable identity. Rate-limit
// headers set by the preceding pipeline step survive on the 401 response.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.Authenticator.Authenticate(r)
		if err != nil {
			if m.OnFailure != nil {
				m.OnFailure()
			}
			apiErr := mapAuthError(err)
			if m.Logger != nil {
				m.Logger.Warn("authentication failed",
					slog.String("code", string(apiErr.Code)),
					slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, apiErr)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mapAuthError converts authentication sentinels to the client-visible
// taxonomy. Provider outages and other unexpected failures become internal
// errors rather than leaking provider detail.
func mapAuthError(err error) *httpx.Error {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return httpx.NewError(httpx.CodeUnauthorized, "authentication required")
	case errors.Is(err, ErrTokenExpired):
		return httpx.NewError(httpx.CodeTokenExpired, "token expired")
	case errors.Is(err, ErrInvalidToken):
		return httpx.NewError(httpx.CodeInvalidToken, "invalid or expired token")
	default:
		return httpx.WrapError(httpx.CodeInternal, "internal server error", err)
	}
}
