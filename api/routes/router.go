package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/localspot/localspot-backend/api/controllers"
	webhookcontrollers "github.com/localspot/localspot-backend/api/controllers/webhooks"
	"github.com/localspot/localspot-backend/api/middleware"
	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/logger"
	"github.com/localspot/localspot-backend/pkg/metrics"
)

// RouterParams collects everything the HTTP surface needs. Controllers take
// narrow interfaces, so any implementation satisfying them wires in.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        controllers.Pinger
	RedisPinger     controllers.Pinger
	UserService     controllers.UserReadService
	RoleService     controllers.RoleService
	BrowseService   controllers.BrowseService
	WebhookService  webhookcontrollers.ClerkWebhookService
	WebhookVerifier webhookcontrollers.ClerkVerifier
	ReplayGuard     webhookcontrollers.ReplayGuard
	Registry        *prometheus.Registry
}

// NewRouter assembles the full route table behind the session and gate
// middleware. Route classification lives in the gate, so the layout here
// mirrors the public/protected split one to one.
func NewRouter(p RouterParams) http.Handler {
	logg := p.Logger

	var registerer prometheus.Registerer
	if p.Registry != nil {
		registerer = p.Registry
	}
	webhookMetrics := metrics.NewWebhookMetrics(registerer)
	gateMetrics := metrics.NewGateMetrics(registerer)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(),
		middleware.Logging(logg),
		middleware.Session(p.Config.Clerk, logg),
		middleware.Gate(p.Config.Gate, gateMetrics, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, logg, p.DBPinger, p.RedisPinger))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Post("/api/webhooks/clerk", webhookcontrollers.ClerkWebhook(p.WebhookService, p.WebhookVerifier, p.ReplayGuard, webhookMetrics, logg))

	// Public browse surface.
	r.Get("/api/search", controllers.SearchBusinesses(p.BrowseService, logg))
	r.Get("/api/businesses/nearby", controllers.NearbyBusinesses(p.BrowseService, logg))
	r.Get("/api/categories", controllers.ListCategories(p.BrowseService, logg))
	r.Get("/businesses/{slug}", controllers.BusinessBySlug(p.BrowseService, logg))

	// Authenticated account surface. The gate has already required a session.
	r.Route("/api/account", func(r chi.Router) {
		r.Get("/me", controllers.Me(p.UserService, logg))
		r.Post("/upgrade", controllers.UpgradeToBusinessOwner(p.RoleService, logg))
	})

	// Owner dashboard data, behind the /business* role requirement.
	r.Get("/business/dashboard", controllers.BusinessDashboard(p.BrowseService, logg))

	// Admin mutations, behind the /admin* role requirement.
	r.Route("/admin/users", func(r chi.Router) {
		r.Put("/{userID}/role", controllers.AdminSetRole(p.RoleService, logg))
		r.Post("/{userID}/ban", controllers.AdminBanUser(p.RoleService, logg))
	})

	return r
}
