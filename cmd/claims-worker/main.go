package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/localspot/localspot-backend/internal/claimssync"
	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/db"
	"github.com/localspot/localspot-backend/pkg/logger"
	"github.com/localspot/localspot-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "claims-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "claims-worker",
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

	clerkClient, err := clerk.NewClient(cfg.Clerk)
	if err != nil {
		logg.Error(context.Background(), "failed to create clerk client", err)
		os.Exit(1)
	}

	worker, err := claimssync.NewWorker(claimssync.WorkerParams{
		Repository: claimssync.NewRepository(dbClient.DB()),
		Provider:   clerkClient,
		Config:     cfg.ClaimsSync,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create claims worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "claims-worker",
	})
	logg.Info(ctx, "starting claims worker")

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "claims worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "claims worker shutting down gracefully")
}
