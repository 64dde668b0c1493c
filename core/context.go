package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
// Only this package can create values of this type, so no other package can
// overwrite or shadow the identity slot.
type contextKey int

const (
	identityKey contextKey = iota
)

// WithIdentity returns a copy of ctx carrying the given Identity.
//
// The authentication middleware is the only component expected to call this;
// it does so at most once per request. Because the identity travels on the
// request context, concurrent requests can never observe each other's value.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// FromContext returns the Identity stored in ctx, or the anonymous Identity
// when none has been set. Downstream stages can therefore always read a
// well-formed Identity without checking for presence first.
func FromContext(ctx context.Context) Identity {
	if identity, ok := ctx.Value(identityKey).(Identity); ok {
		return identity
	}
	return Anonymous()
}

// HasIdentity reports whether an Identity has been stored in ctx, regardless
// of whether it is authenticated. The middleware uses this to detect a
// conflicting earlier authentication stage.
func HasIdentity(ctx context.Context) bool {
	_, ok := ctx.Value(identityKey).(Identity)
	return ok
}

// IsAuthenticated reports whether ctx carries an authenticated Identity.
func IsAuthenticated(ctx context.Context) bool {
	return FromContext(ctx).Authenticated
}
