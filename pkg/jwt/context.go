package jwt

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{ name string }

var (
	claimsContextKey = &contextKey{name: "jwt_claims"}
	userContextKey   = &contextKey{name: "jwt_user_id"}
)

// WithClaims stores verified claims and their user ID in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	if id, err := claims.UserID(); err == nil {
		ctx = context.WithValue(ctx, userContextKey, id)
	}
	return ctx
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated user's ID, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userContextKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
