package models

import (
	"time"

	"github.com/localspot/localspot-backend/pkg/enums"
)

// User is the canonical identity record. The primary key is the id assigned by
// the identity provider, never generated locally, which keeps webhook-driven
// upserts naturally idempotent.
type User struct {
	ID            string         `gorm:"type:text;primaryKey"`
	Email         string         `gorm:"type:text;not null"`
	EmailVerified *time.Time     `gorm:"column:email_verified"`
	FirstName     *string        `gorm:"column:first_name"`
	LastName      *string        `gorm:"column:last_name"`
	Avatar        *string        `gorm:"column:avatar"`
	Phone         *string        `gorm:"column:phone"`
	PhoneVerified bool           `gorm:"column:phone_verified;not null;default:false"`
	Role          enums.UserRole `gorm:"type:text;not null;default:'CUSTOMER'"`
	IsActive      bool           `gorm:"column:is_active;not null;default:true"`
	IsBanned      bool           `gorm:"column:is_banned;not null;default:false"`
	BannedReason  *string        `gorm:"column:banned_reason"`
	DeletedAt     *time.Time     `gorm:"column:deleted_at"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
