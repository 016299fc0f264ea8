package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/kristianfreeman/saas-starter/internal/shared"
)

// Provider validates credentials against the identity backend. The pipeline
// never inspects token internals itself.
type Provider interface {
	AuthenticateSession(ctx context.Context, r *http.Request) (shared.Identity, error)
	AuthenticateBearer(ctx context.Context, token string) (shared.Identity, error)
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Authenticator composes the two authentication paths.
type Authenticator struct {
	provider Provider
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(provider Provider) *Authenticator {
	return &Authenticator{provider: provider}
}

// Authenticate tries the session path first, then the bearer path. The first
// identity wins. When both fail the session-path error is reported; browser
// cookie sessions are the common case and existing clients depend on that
// precedence.
func (a *Authenticator) Authenticate(r *http.Request) (shared.Identity, error) {
	identity, sessionErr := a.provider.AuthenticateSession(r.Context(), r)
	if sessionErr == nil {
		return identity, nil
	}
	if token, ok := BearerToken(r); ok {
		if identity, err := a.provider.AuthenticateBearer(r.Context(), token); err == nil {
			return identity, nil
		}
	}
	return shared.Identity{}, sessionErr
}
