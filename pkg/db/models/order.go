package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tamjidzihan/beakling/pkg/enums"
	"github.com/tamjidzihan/beakling/pkg/types"
)

// Order is the committed purchase: immutable identity (order number),
// mutable status, frozen address snapshots, decimal money totals.
// Orders are never hard-deleted.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'PENDING';index"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(10,2);not null;default:0"`
	ShippingAmount decimal.Decimal `gorm:"column:shipping_amount;type:numeric(10,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null"`

	ShippingAddress types.AddressSnapshot `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  types.AddressSnapshot `gorm:"column:billing_address;type:jsonb;serializer:json"`

	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method"`
	PaymentReference string              `gorm:"column:payment_reference"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`

	ShippedAt      *time.Time `gorm:"column:shipped_at"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`
	TrackingNumber string     `gorm:"column:tracking_number"`

	CustomerNotes string `gorm:"column:customer_notes"`
	InternalNotes string `gorm:"column:internal_notes"`

	Items         []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Earnings      []VendorEarnings `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentIntent *PaymentIntent   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CanBeCancelled reports whether the cancellation path is still open.
func (o Order) CanBeCancelled() bool {
	return o.Status == enums.OrderStatusPending || o.Status == enums.OrderStatusPaid
}
