package claimssync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/clerk"
	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/enums"
)

func setupClaimsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS claims_sync_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  next_retry_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(table).Error)
	require.NoError(t, db.Exec(`DELETE FROM claims_sync_events`).Error)
	return db
}

func TestEnqueue_LatestPushWinsPerUser(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := clerk.PublicMetadata{Role: enums.UserRoleBusinessOwner, Roles: []string{"CUSTOMER", "BUSINESS_OWNER"}}
	require.NoError(t, repo.Enqueue(ctx, "user_1", first))

	second := clerk.PublicMetadata{Role: enums.UserRoleAdmin, Roles: []string{"CUSTOMER", "BUSINESS_OWNER", "ADMIN"}}
	require.NoError(t, repo.Enqueue(ctx, "user_1", second))

	rows, err := repo.FetchDue(ctx, 10, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "user_1", rows[0].UserID)

	var metadata clerk.PublicMetadata
	require.NoError(t, json.Unmarshal(rows[0].Payload, &metadata))
	assert.Equal(t, enums.UserRoleAdmin, metadata.Role)
}

func TestFetchDue_SkipsFutureRetries(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "user_due", clerk.PublicMetadata{Role: enums.UserRoleAdmin}))
	require.NoError(t, repo.Enqueue(ctx, "user_later", clerk.PublicMetadata{Role: enums.UserRoleAdmin}))

	var later models.ClaimsSyncEvent
	require.NoError(t, db.Where("user_id = ?", "user_later").First(&later).Error)
	require.NoError(t, repo.MarkFailed(ctx, later.ID, errors.New("503"), time.Now().UTC().Add(time.Hour)))

	rows, err := repo.FetchDue(ctx, 10, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "user_due", rows[0].UserID)
}

func TestMarkFailed_BumpsAttemptsAndRecordsError(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "user_fail", clerk.PublicMetadata{Role: enums.UserRoleAdmin}))

	var row models.ClaimsSyncEvent
	require.NoError(t, db.Where("user_id = ?", "user_fail").First(&row).Error)

	next := time.Now().UTC().Add(time.Minute)
	require.NoError(t, repo.MarkFailed(ctx, row.ID, errors.New("provider 503"), next))
	require.NoError(t, repo.MarkFailed(ctx, row.ID, errors.New("provider 502"), next))

	require.NoError(t, db.Where("id = ?", row.ID).First(&row).Error)
	assert.Equal(t, 2, row.Attempts)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "provider 502", *row.LastError)
}

func TestDelete_RemovesRow(t *testing.T) {
	db := setupClaimsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "user_done", clerk.PublicMetadata{Role: enums.UserRoleAdmin}))

	var row models.ClaimsSyncEvent
	require.NoError(t, db.Where("user_id = ?", "user_done").First(&row).Error)
	require.NoError(t, repo.Delete(ctx, row.ID))

	rows, err := repo.FetchDue(ctx, 10, time.Now().UTC().Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
