package middleware

import (
	"net/http"
	"strings"

	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/logger"
)

const sessionCookieName = "__session"

// Session parses the provider session token from the Authorization header or
// the session cookie and seeds the request context with the claims. Parsing
// is best effort: an absent or invalid token leaves the request anonymous
// and lets the gate decide what that means for the route.
func Session(cfg config.ClerkConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := clerk.ParseSessionToken(cfg, token)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "dropping unverifiable session token")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID())
				if role, ok := claims.Role(); ok {
					ctx = logg.WithActorRole(ctx, string(role))
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
