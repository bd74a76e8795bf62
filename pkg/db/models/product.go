package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the vendor listing referenced by carts and order snapshots.
// The core only mutates Inventory; everything else is read-only here.
type Product struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	VendorID  uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null;index"`
	SKU       string           `gorm:"column:sku;not null;uniqueIndex"`
	Title     string           `gorm:"column:title;not null"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	Inventory int              `gorm:"column:inventory;not null;default:0"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CurrentPrice returns the sale price when one is set and lower than the list price.
func (p Product) CurrentPrice() decimal.Decimal {
	if p.IsOnSale() {
		return *p.SalePrice
	}
	return p.Price
}

// IsOnSale reports whether the product has an active discount.
func (p Product) IsOnSale() bool {
	return p.SalePrice != nil && p.SalePrice.LessThan(p.Price)
}
