package auth

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID      uuid.UUID
	LocalSiteID *uuid.UUID // nil for users of the global site
	IsAdmin     bool
}

// IsGlobalAdmin reports whether the caller administers the whole server.
func (p Principal) IsGlobalAdmin() bool {
	return p.IsAdmin && p.LocalSiteID == nil
}

// InLocalSite reports whether the caller belongs to the local site id.
func (p Principal) InLocalSite(id uuid.UUID) bool {
	return p.LocalSiteID != nil && *p.LocalSiteID == id
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the caller from the request context.
// Returns false when the request is unauthenticated.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
