package claimssync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/config"
	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/logger"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 30 * time.Second
	defaultMaxAttempts  = 10
	defaultPushTimeout  = 15 * time.Second
	baseRetryDelay      = 30 * time.Second
	maxRetryDelay       = 30 * time.Minute
)

type eventRepository interface {
	FetchDue(ctx context.Context, limit int, now time.Time) ([]models.ClaimsSyncEvent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error, nextRetryAt time.Time) error
}

type metadataPusher interface {
	UpdateUserMetadata(ctx context.Context, userID string, metadata clerk.PublicMetadata) error
}

// Worker drains queued claim pushes until the provider accepts them. Rows
// that keep failing past the attempt ceiling are dropped: the next role
// mutation re-derives and re-pushes the claims anyway.
type Worker struct {
	repo         eventRepository
	provider     metadataPusher
	logg         *logger.Logger
	batchSize    int
	pollInterval time.Duration
	maxAttempts  int
	pushTimeout  time.Duration
}

// WorkerParams bundles the dependencies required to build a claims worker.
type WorkerParams struct {
	Repository eventRepository
	Provider   metadataPusher
	Config     config.ClaimsSyncConfig
	Logger     *logger.Logger
}

// NewWorker constructs the retry worker.
func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Repository == nil {
		return nil, errors.New("claims sync repository is required")
	}
	if params.Provider == nil {
		return nil, errors.New("provider client is required")
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := params.Config.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	timeout := params.Config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}

	return &Worker{
		repo:         params.Repository,
		provider:     params.Provider,
		logg:         params.Logger,
		batchSize:    batch,
		pollInterval: interval,
		maxAttempts:  maxAttempts,
		pushTimeout:  timeout,
	}, nil
}

// Run polls for due rows until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if err := w.ProcessBatch(ctx); err != nil && w.logg != nil {
			w.logg.Error(ctx, "claims sync batch error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessBatch pushes every due row once. Per-row failures are aggregated
// so one bad row never blocks the rest of the batch.
func (w *Worker) ProcessBatch(ctx context.Context) error {
	rows, err := w.repo.FetchDue(ctx, w.batchSize, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("fetch due claims events: %w", err)
	}

	var errs []error
	for _, row := range rows {
		if err := w.processRow(ctx, row); err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
	}
	return multierr.Combine(errs...)
}

func (w *Worker) processRow(ctx context.Context, row models.ClaimsSyncEvent) error {
	logCtx := ctx
	if w.logg != nil {
		logCtx = w.logg.WithFields(ctx, map[string]any{
			"claims_event_id": row.ID.String(),
			"user_id":         row.UserID,
			"attempts":        row.Attempts,
		})
	}

	var metadata clerk.PublicMetadata
	if err := json.Unmarshal(row.Payload, &metadata); err != nil {
		if w.logg != nil {
			w.logg.Error(logCtx, "dropping undecodable claims payload", err)
		}
		return w.repo.Delete(ctx, row.ID)
	}

	pushCtx, cancel := context.WithTimeout(ctx, w.pushTimeout)
	pushErr := w.provider.UpdateUserMetadata(pushCtx, row.UserID, metadata)
	cancel()

	if pushErr == nil {
		if w.logg != nil {
			w.logg.Info(logCtx, "deferred claims push delivered")
		}
		return w.repo.Delete(ctx, row.ID)
	}

	if row.Attempts+1 >= w.maxAttempts {
		if w.logg != nil {
			w.logg.Error(logCtx, "abandoning claims push after max attempts", pushErr)
		}
		return w.repo.Delete(ctx, row.ID)
	}

	if w.logg != nil {
		w.logg.Warn(logCtx, "claims push retry failed")
	}
	next := time.Now().UTC().Add(retryDelay(row.Attempts + 1))
	if err := w.repo.MarkFailed(ctx, row.ID, pushErr, next); err != nil {
		return fmt.Errorf("mark claims event failed %s: %w", row.ID, err)
	}
	return nil
}

// retryDelay doubles per attempt from the base, capped at the ceiling.
func retryDelay(attempts int) time.Duration {
	delay := baseRetryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return delay
}
