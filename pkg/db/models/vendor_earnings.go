package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tamjidzihan/beakling/pkg/enums"
)

// VendorEarnings is one vendor's revenue share of one order, net of the
// platform fee. The (vendor, order) pair is unique.
type VendorEarnings struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorID uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_vendor_earnings_vendor_order"`
	OrderID  uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_vendor_earnings_vendor_order"`

	GrossAmount decimal.Decimal `gorm:"column:gross_amount;type:numeric(10,2);not null"`
	PlatformFee decimal.Decimal `gorm:"column:platform_fee;type:numeric(10,2);not null;default:0"`
	NetAmount   decimal.Decimal `gorm:"column:net_amount;type:numeric(10,2);not null"`

	Status enums.EarningsStatus `gorm:"column:status;not null;default:'pending';index"`
	PaidAt *time.Time           `gorm:"column:paid_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
