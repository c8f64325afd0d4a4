package middleware

import (
	"context"

	"github.com/localspot/localspot-backend/pkg/clerk"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
	ctxClaims contextKey = "session_claims"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the session claims seeded by the Session
// middleware, or nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *clerk.SessionClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClaims).(*clerk.SessionClaims); ok {
		return v
	}
	return nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithClaims injects parsed session claims plus the derived identity fields.
func WithClaims(ctx context.Context, claims *clerk.SessionClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if claims == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxClaims, claims)
	ctx = context.WithValue(ctx, ctxUserID, claims.UserID())
	if role, ok := claims.Role(); ok {
		ctx = context.WithValue(ctx, ctxRole, string(role))
	}
	return ctx
}
