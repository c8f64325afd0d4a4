package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClaimsSyncEvent records a provider metadata push that failed after the local
// role write succeeded. Rows are retried by the claims worker and deleted once
// the provider accepts the push.
type ClaimsSyncEvent struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      string          `gorm:"column:user_id;type:text;not null;index"`
	Payload     json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Attempts    int             `gorm:"column:attempts;not null;default:0"`
	LastError   *string         `gorm:"column:last_error"`
	NextRetryAt time.Time       `gorm:"column:next_retry_at;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
