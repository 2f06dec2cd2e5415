package middleware

import (
	"context"

	"fooddelivery-client/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the caller's identity on ctx.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity set by Auth.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}
