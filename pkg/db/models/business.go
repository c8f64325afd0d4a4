package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Business is a listed local business owned by a user.
type Business struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"type:text;not null"`
	Slug        string          `gorm:"type:text;not null;uniqueIndex"`
	Description *string         `gorm:"column:description"`
	OwnerID     string          `gorm:"column:owner_id;type:text;not null;index"`
	CategoryID  *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Phone       *string         `gorm:"column:phone"`
	Address     *string         `gorm:"column:address"`
	City        *string         `gorm:"column:city"`
	Lat         float64         `gorm:"column:lat;not null;default:0"`
	Lng         float64         `gorm:"column:lng;not null;default:0"`
	Rating      decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	ReviewCount int             `gorm:"column:review_count;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	DeletedAt   *time.Time      `gorm:"column:deleted_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
