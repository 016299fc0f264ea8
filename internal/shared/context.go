package shared

import "context"

// Identity is the authenticated caller for one request. It is created by the
// authenticator from a trusted session or token and never persisted.
type Identity struct {
	ID    string
	Email string
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity, reporting whether one was
// resolved.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
