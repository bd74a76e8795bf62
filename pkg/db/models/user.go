package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the minimal identity row the core needs: buyers own carts and
// orders, vendors own products and earnings.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	IsVendor  bool      `gorm:"column:is_vendor;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
