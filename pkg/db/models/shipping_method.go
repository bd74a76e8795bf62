package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingMethod is a flat-rate delivery option selectable at checkout.
type ShippingMethod struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Description       string          `gorm:"column:description"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	EstimatedDaysMin  int             `gorm:"column:estimated_days_min;not null"`
	EstimatedDaysMax  int             `gorm:"column:estimated_days_max;not null"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
