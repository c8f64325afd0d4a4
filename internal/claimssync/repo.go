package claimssync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/db/models"
)

// Repository persists deferred claim pushes. One row per user: a newer
// failed push supersedes anything already queued for that user.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue records a failed metadata push for retry. Existing rows for the
// same user are replaced so the worker only ever pushes the latest claims.
func (r *Repository) Enqueue(ctx context.Context, userID string, metadata clerk.PublicMetadata) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Delete(&models.ClaimsSyncEvent{}).Error; err != nil {
			return err
		}
		row := models.ClaimsSyncEvent{
			ID:          uuid.New(),
			UserID:      userID,
			Payload:     payload,
			NextRetryAt: time.Now().UTC(),
		}
		return tx.Create(&row).Error
	})
}

// FetchDue returns rows whose retry time has arrived, oldest first.
func (r *Repository) FetchDue(ctx context.Context, limit int, now time.Time) ([]models.ClaimsSyncEvent, error) {
	var rows []models.ClaimsSyncEvent
	err := r.db.WithContext(ctx).
		Where("next_retry_at <= ?", now).
		Order("next_retry_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Delete removes a row after the provider accepted the push, or when the
// row is abandoned.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ClaimsSyncEvent{}).Error
}

// MarkFailed bumps the attempt counter and schedules the next retry.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error, nextRetryAt time.Time) error {
	var lastError *string
	if cause != nil {
		msg := cause.Error()
		lastError = &msg
	}
	return r.db.WithContext(ctx).
		Model(&models.ClaimsSyncEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":      gorm.Expr("attempts + 1"),
			"last_error":    lastError,
			"next_retry_at": nextRetryAt,
		}).Error
}
