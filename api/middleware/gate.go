package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/enums"
	"github.com/localspot/localspot-backend/pkg/logger"
	"github.com/localspot/localspot-backend/pkg/metrics"
)

const webhookPrefix = "/api/webhooks"

var publicExactRoutes = []string{
	"/",
	"/search",
	"/about",
	"/api/businesses/nearby",
	"/api/categories",
	"/metrics",
}

var publicPrefixRoutes = []string{
	"/businesses",
	"/categories",
	"/api/search",
	"/sign-in",
	"/sign-up",
	"/health",
}

// Gate enforces the route policy from session claims alone: no database
// reads, so a stale token is honored until it expires. Public routes and
// webhook routes pass untouched; protected routes redirect rather than
// error so the browser lands somewhere useful.
func Gate(cfg config.GateConfig, gateMetrics *metrics.GateMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	signInPath := cfg.SignInPath
	if signInPath == "" {
		signInPath = "/sign-in"
	}
	dashboardPath := cfg.DashboardPath
	if dashboardPath == "" {
		dashboardPath = "/dashboard"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// Webhooks authenticate by signature, never by session.
			if strings.HasPrefix(path, webhookPrefix) {
				gateMetrics.IncDecision("webhook")
				next.ServeHTTP(w, r)
				return
			}

			if isPublicRoute(path) {
				gateMetrics.IncDecision("public")
				next.ServeHTTP(w, r)
				return
			}

			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				gateMetrics.IncDecision("sign_in_redirect")
				target := signInPath + "?redirect_url=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}

			if denied, ok := requiredDenied(path, claims); ok {
				gateMetrics.IncDecision("rbac_redirect")
				if logg != nil {
					logg.Warn(r.Context(), "insufficient role, redirecting to "+denied)
				}
				http.Redirect(w, r, dashboardPath, http.StatusTemporaryRedirect)
				return
			}

			gateMetrics.IncDecision("allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// requiredDenied reports whether the path carries a role requirement the
// claims do not meet, and names the area for logging.
func requiredDenied(path string, claims interface {
	HasRole(role enums.UserRole) bool
}) (string, bool) {
	switch {
	case strings.HasPrefix(path, "/admin"):
		if !claims.HasRole(enums.UserRoleAdmin) {
			return "admin", true
		}
	case strings.HasPrefix(path, "/business"):
		if !claims.HasRole(enums.UserRoleBusinessOwner) && !claims.HasRole(enums.UserRoleAdmin) {
			return "business", true
		}
	}
	return "", false
}

func isPublicRoute(path string) bool {
	for _, route := range publicExactRoutes {
		if path == route {
			return true
		}
	}
	for _, prefix := range publicPrefixRoutes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
