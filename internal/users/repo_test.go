package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/enums"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  email_verified DATETIME,
  first_name TEXT,
  last_name TEXT,
  avatar TEXT,
  phone TEXT,
  phone_verified INTEGER NOT NULL DEFAULT 0,
  role TEXT NOT NULL DEFAULT 'CUSTOMER',
  is_active INTEGER NOT NULL DEFAULT 1,
  is_banned INTEGER NOT NULL DEFAULT 0,
  banned_reason TEXT,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	businessesTable := `
CREATE TABLE IF NOT EXISTS businesses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  description TEXT,
  owner_id TEXT NOT NULL,
  category_id TEXT,
  phone TEXT,
  address TEXT,
  city TEXT,
  lat REAL NOT NULL DEFAULT 0,
  lng REAL NOT NULL DEFAULT 0,
  rating TEXT NOT NULL DEFAULT '0',
  review_count INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(usersTable).Error)
	require.NoError(t, db.Exec(businessesTable).Error)
	return db
}

func strPtr(s string) *string { return &s }

func createDTO(id string) CreateUserDTO {
	verified := time.Now().Add(-time.Hour)
	return CreateUserDTO{
		ID:            id,
		Email:         "priya@example.com",
		EmailVerified: &verified,
		FirstName:     strPtr("Priya"),
		LastName:      strPtr("Nair"),
		Avatar:        strPtr("https://img.example/p.png"),
		Phone:         strPtr("+911234567890"),
		PhoneVerified: true,
		CreatedAt:     time.Now().Add(-2 * time.Hour),
	}
}

func TestUpsert_CreatedTwiceKeepsRoleAndPhone(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, createDTO("user_upsert"))
	require.NoError(t, err)

	// Simulate an out-of-band role change before the redelivery.
	require.NoError(t, repo.UpdateRole(ctx, "user_upsert", enums.UserRoleBusinessOwner))

	redelivery := createDTO("user_upsert")
	redelivery.Email = "priya.nair@example.com"
	redelivery.Phone = strPtr("+919999999999")
	_, err = repo.Upsert(ctx, redelivery)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", "user_upsert").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.FindByID(ctx, "user_upsert")
	require.NoError(t, err)
	assert.Equal(t, "priya.nair@example.com", got.Email)
	assert.Equal(t, enums.UserRoleBusinessOwner, got.Role)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+911234567890", *got.Phone)
}

func TestUpsert_OptionalFieldsMapToNull(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	dto := CreateUserDTO{ID: "user_sparse", Email: ""}
	_, err := repo.Upsert(ctx, dto)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, "user_sparse")
	require.NoError(t, err)
	assert.Nil(t, got.FirstName)
	assert.Nil(t, got.Phone)
	assert.Nil(t, got.EmailVerified)
	assert.Equal(t, enums.UserRoleCustomer, got.Role)
	assert.True(t, got.IsActive)
}

func TestUpdateProfile_OverwritesProfileOnly(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, createDTO("user_update"))
	require.NoError(t, err)

	err = repo.UpdateProfile(ctx, "user_update", UpdateProfileDTO{
		Email:         "new@example.com",
		FirstName:     strPtr("P"),
		LastName:      nil,
		Avatar:        nil,
		Phone:         strPtr("+910000000000"),
		PhoneVerified: false,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, "user_update")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Nil(t, got.LastName)
	assert.False(t, got.PhoneVerified)
	assert.Equal(t, enums.UserRoleCustomer, got.Role)
	assert.True(t, got.IsActive)
}

func TestUpdateProfile_UnknownIDIsNotFound(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateProfile(context.Background(), "user_ghost", UpdateProfileDTO{Email: "x@example.com"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSoftDelete_PreservesOtherFields(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, createDTO("user_delete"))
	require.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, "user_delete", time.Now()))

	// The live-rows filter must hide the record now.
	_, err = repo.FindByID(ctx, "user_delete")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var raw models.User
	require.NoError(t, db.Where("id = ?", "user_delete").First(&raw).Error)
	require.NotNil(t, raw.DeletedAt)
	assert.False(t, raw.IsActive)
	assert.Equal(t, "priya@example.com", raw.Email)
	require.NotNil(t, raw.Phone)
}

func TestSoftDelete_UnknownIDIsNotFound(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	err := repo.SoftDelete(context.Background(), "user_ghost2", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSetBanned_AlwaysImpliesInactive(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, createDTO("user_ban"))
	require.NoError(t, err)

	require.NoError(t, repo.SetBanned(ctx, "user_ban", "spam listings"))

	got, err := repo.FindByID(ctx, "user_ban")
	require.NoError(t, err)
	assert.True(t, got.IsBanned)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.BannedReason)
	assert.Equal(t, "spam listings", *got.BannedReason)

	// Banning again keeps both flags coupled.
	require.NoError(t, repo.SetBanned(ctx, "user_ban", "still spam"))
	got, err = repo.FindByID(ctx, "user_ban")
	require.NoError(t, err)
	assert.True(t, got.IsBanned)
	assert.False(t, got.IsActive)
}

func TestUpdateRole_RejectsUnknownRole(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	err := repo.UpdateRole(context.Background(), "user_any", enums.UserRole("SUPERADMIN"))
	assert.Error(t, err)
}

func TestCountOwnedBusinesses_FiltersDeleted(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, createDTO("user_owner"))
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, db.Exec(
		`INSERT INTO businesses (id, name, slug, owner_id) VALUES (?, ?, ?, ?)`,
		"b1", "Chai Corner", "chai-corner", "user_owner").Error)
	require.NoError(t, db.Exec(
		`INSERT INTO businesses (id, name, slug, owner_id, deleted_at) VALUES (?, ?, ?, ?, ?)`,
		"b2", "Closed Shop", "closed-shop", "user_owner", now).Error)

	count, err := repo.CountOwnedBusinesses(ctx, "user_owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
