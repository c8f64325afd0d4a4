package users

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/localspot/localspot-backend/pkg/db/models"
	"github.com/localspot/localspot-backend/pkg/enums"
)

// Repository exposes user-related persistence operations. All mutations are
// single-row statements keyed on the provider id; concurrent writers rely on
// the store's per-row atomicity.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the user keyed by provider id. If the row already exists the
// statement degrades to a profile update: role and lifecycle flags are left
// untouched so a redelivered created event cannot reset them.
func (r *Repository) Upsert(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "first_name", "last_name", "avatar", "updated_at",
			}),
		}).
		Create(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile overwrites the profile fields for an existing user. Absent
// rows are an error; this path never creates records.
func (r *Repository) UpdateProfile(ctx context.Context, id string, dto UpdateProfileDTO) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"email":          dto.Email,
			"first_name":     dto.FirstName,
			"last_name":      dto.LastName,
			"avatar":         dto.Avatar,
			"phone":          dto.Phone,
			"phone_verified": dto.PhoneVerified,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SoftDelete marks the user logically removed. Every other field is preserved.
func (r *Repository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at": at,
			"is_active":  false,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads a live user by provider id. Soft-deleted rows are invisible.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRole writes the authoritative role for the user.
func (r *Repository) UpdateRole(ctx context.Context, id string, role enums.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("invalid user role %q", role)
	}
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetBanned flips the ban state. Banning always deactivates in the same
// statement so the two flags cannot diverge.
func (r *Repository) SetBanned(ctx context.Context, id string, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_banned":     true,
			"banned_reason": reason,
			"is_active":     false,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountOwnedBusinesses returns how many live businesses the user owns.
func (r *Repository) CountOwnedBusinesses(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("owner_id = ? AND deleted_at IS NULL", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
