package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/localspot/localspot-backend/api/routes"
	"github.com/localspot/localspot-backend/internal/businesses"
	"github.com/localspot/localspot-backend/internal/claimssync"
	"github.com/localspot/localspot-backend/internal/roles"
	"github.com/localspot/localspot-backend/internal/users"
	clerkwebhook "github.com/localspot/localspot-backend/internal/webhooks/clerk"
	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/db"
	"github.com/localspot/localspot-backend/pkg/logger"
	"github.com/localspot/localspot-backend/pkg/migrate"
	"github.com/localspot/localspot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	clerkClient, err := clerk.NewClient(cfg.Clerk)
	if err != nil {
		logg.Error(context.Background(), "failed to create clerk client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())

	userService, err := users.NewService(users.ServiceParams{
		Repo:   userRepo,
		Cache:  redisClient,
		Config: cfg.Cache,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	webhookVerifier, err := clerkwebhook.NewVerifier(cfg.Clerk)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook verifier", err)
		os.Exit(1)
	}

	webhookService, err := clerkwebhook.NewService(clerkwebhook.ServiceParams{
		UserRepo: userRepo,
		Cache:    redisClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	roleService, err := roles.NewService(roles.ServiceParams{
		UserRepo: userRepo,
		Provider: clerkClient,
		Cache:    redisClient,
		Outbox:   claimssync.NewRepository(dbClient.DB()),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create roles service", err)
		os.Exit(1)
	}

	browseService, err := businesses.NewService(businesses.ServiceParams{
		Repo:       businesses.NewRepository(dbClient.DB()),
		Categories: businesses.NewCategoryRepository(dbClient.DB()),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create businesses service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			UserService:     userService,
			RoleService:     roleService,
			BrowseService:   browseService,
			WebhookService:  webhookService,
			WebhookVerifier: webhookVerifier,
			ReplayGuard:     redisClient,
			Registry:        registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
