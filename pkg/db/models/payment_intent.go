package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tamjidzihan/beakling/pkg/enums"
)

// PaymentIntent records the payment state for an order. No processor is
// wired; the row exists so the order history carries payment metadata.
type PaymentIntent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	PaymentID     string                    `gorm:"column:payment_id"`
	Amount        decimal.Decimal           `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency      string                    `gorm:"column:currency;not null;default:'USD'"`
	Status        enums.PaymentIntentStatus `gorm:"column:status;not null;default:'pending'"`
	PaymentMethod enums.PaymentMethod       `gorm:"column:payment_method"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
