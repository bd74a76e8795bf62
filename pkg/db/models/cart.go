package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart belongs to exactly one user or one anonymous session, never both.
// It is created lazily on first access and survives checkout (only its items
// are removed).
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex"`
	SessionKey *string    `gorm:"column:session_key;uniqueIndex"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
