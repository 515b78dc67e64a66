package auth

import "context"

// Identity is the authenticated principal for one request, as asserted by
// the fronting identity provider. The user id is opaque to this service.
type Identity struct {
	UserID string
}

type identityKey struct{}

// WithIdentity returns a new context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the identity, or nil for an unauthenticated request.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
