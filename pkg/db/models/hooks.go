package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are assigned app-side so the models behave the same under Postgres and
// the sqlite test databases.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error           { ensureID(&u.ID); return nil }
func (a *Address) BeforeCreate(*gorm.DB) error        { ensureID(&a.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error        { ensureID(&p.ID); return nil }
func (c *Cart) BeforeCreate(*gorm.DB) error           { ensureID(&c.ID); return nil }
func (i *CartItem) BeforeCreate(*gorm.DB) error       { ensureID(&i.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error          { ensureID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error      { ensureID(&i.ID); return nil }
func (e *VendorEarnings) BeforeCreate(*gorm.DB) error { ensureID(&e.ID); return nil }
func (p *PaymentIntent) BeforeCreate(*gorm.DB) error  { ensureID(&p.ID); return nil }
func (s *ShippingMethod) BeforeCreate(*gorm.DB) error { ensureID(&s.ID); return nil }
