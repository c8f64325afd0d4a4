package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Category is a node in the browseable business-category tree.
type Category struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string         `gorm:"type:text;not null"`
	Slug           string         `gorm:"type:text;not null;uniqueIndex"`
	Description    *string        `gorm:"column:description"`
	Icon           *string        `gorm:"column:icon"`
	ParentID       *uuid.UUID     `gorm:"column:parent_id;type:uuid"`
	DisplayOrder   int            `gorm:"column:display_order;not null;default:0"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	IsFeatured     bool           `gorm:"column:is_featured;not null;default:false"`
	SearchKeywords pq.StringArray `gorm:"column:search_keywords;type:text[]"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
