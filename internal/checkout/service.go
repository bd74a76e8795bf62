package checkout

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/internal/addresses"
	"github.com/tamjidzihan/beakling/internal/cart"
	"github.com/tamjidzihan/beakling/internal/catalog"
	"github.com/tamjidzihan/beakling/internal/inventory"
	"github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/internal/shipping"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InventoryReserver takes stock for every order line or fails the checkout.
type InventoryReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error
}

// EarningsCreator records the per-vendor revenue split for a new order.
type EarningsCreator interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) ([]models.VendorEarnings, error)
}

// Input carries everything the buyer chooses at checkout.
type Input struct {
	ShippingAddressID uuid.UUID
	BillingAddressID  *uuid.UUID
	ShippingMethodID  uuid.UUID
	PaymentMethod     enums.PaymentMethod
	CustomerNotes     string
}

// Service turns a cart into an order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error)
}

type service struct {
	carts     cart.Repository
	products  catalog.Repository
	addresses addresses.Repository
	shipping  shipping.Repository
	orders    orders.Repository
	earnings  EarningsCreator
	inventory InventoryReserver
	tx        txRunner
	taxRate   decimal.Decimal
}

// Deps bundles the collaborators so the constructor stays readable.
type Deps struct {
	Carts     cart.Repository
	Products  catalog.Repository
	Addresses addresses.Repository
	Shipping  shipping.Repository
	Orders    orders.Repository
	Earnings  EarningsCreator
	Inventory InventoryReserver
	Tx        txRunner
}

// NewService builds a checkout service. taxRate is applied to the cart
// subtotal, e.g. 0.08 for eight percent.
func NewService(deps Deps, taxRate decimal.Decimal) (Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Products == nil:
		return nil, fmt.Errorf("catalog repository required")
	case deps.Addresses == nil:
		return nil, fmt.Errorf("addresses repository required")
	case deps.Shipping == nil:
		return nil, fmt.Errorf("shipping repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Earnings == nil:
		return nil, fmt.Errorf("earnings creator required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory reserver required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative, got %s", taxRate)
	}
	return &service{
		carts:     deps.Carts,
		products:  deps.Products,
		addresses: deps.Addresses,
		shipping:  deps.Shipping,
		orders:    deps.Orders,
		earnings:  deps.Earnings,
		inventory: deps.Inventory,
		tx:        deps.Tx,
		taxRate:   taxRate,
	}, nil
}

// NewOrderNumber generates the human-facing order identifier.
func NewOrderNumber() string {
	id := uuid.New()
	return "ORD-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// Execute runs the whole checkout in one transaction: the order with its
// items, payment intent, earnings split, the inventory decrements, and the
// cart wipe land together or not at all.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (*models.Order, error) {
	if input.PaymentMethod == "" {
		input.PaymentMethod = enums.PaymentMethodCashOnDelivery
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		productRepo := s.products.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		buyerCart, err := cartRepo.FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		if buyerCart == nil || len(buyerCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		shippingAddr, err := s.addresses.WithTx(tx).FindByIDAndOwner(ctx, input.ShippingAddressID, userID, enums.AddressTypeShipping)
		if err != nil {
			return err
		}
		billingSnapshot := addresses.Snapshot(*shippingAddr)
		if input.BillingAddressID != nil {
			billingAddr, err := s.addresses.WithTx(tx).FindByIDAndOwner(ctx, *input.BillingAddressID, userID, enums.AddressTypeBilling)
			if err != nil {
				return err
			}
			billingSnapshot = addresses.Snapshot(*billingAddr)
		}

		method, err := s.shipping.WithTx(tx).FindActiveByID(ctx, input.ShippingMethodID)
		if err != nil {
			return err
		}

		// cart adds clamp silently; checkout re-validates every line loudly
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(buyerCart.Items))
		reservations := make([]inventory.ReservationRequest, 0, len(buyerCart.Items))
		for _, line := range buyerCart.Items {
			product, err := productRepo.FindActiveByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if line.Quantity > product.Inventory {
				return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient inventory").
					WithDetails(map[string]any{
						"product_id": product.ID.String(),
						"requested":  line.Quantity,
						"available":  product.Inventory,
					})
			}

			unit := product.CurrentPrice()
			total := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(total)

			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				VendorID:     product.VendorID,
				ProductSKU:   product.SKU,
				ProductTitle: product.Title,
				ProductPrice: product.Price,
				Quantity:     line.Quantity,
				UnitPrice:    unit,
				TotalPrice:   total,
			})
			reservations = append(reservations, inventory.ReservationRequest{
				ProductID: product.ID,
				Qty:       line.Quantity,
			})
		}

		tax := subtotal.Mul(s.taxRate).Round(2)
		shippingAmount := method.Price
		discount := decimal.Zero
		total := subtotal.Add(tax).Add(shippingAmount).Sub(discount)

		order := &models.Order{
			UserID:          userID,
			OrderNumber:     NewOrderNumber(),
			Status:          enums.OrderStatusPending,
			Subtotal:        subtotal,
			TaxAmount:       tax,
			ShippingAmount:  shippingAmount,
			DiscountAmount:  discount,
			TotalAmount:     total,
			ShippingAddress: addresses.Snapshot(*shippingAddr),
			BillingAddress:  billingSnapshot,
			PaymentMethod:   input.PaymentMethod,
			CustomerNotes:   input.CustomerNotes,
		}
		if _, err := orderRepo.Create(ctx, order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := orderRepo.CreateItems(ctx, items); err != nil {
			return err
		}

		if err := s.inventory.Reserve(ctx, tx, reservations); err != nil {
			return err
		}

		if err := cartRepo.DeleteItemsByCart(ctx, buyerCart.ID); err != nil {
			return err
		}

		_, err = orderRepo.CreatePaymentIntent(ctx, &models.PaymentIntent{
			OrderID:       order.ID,
			Amount:        total,
			Currency:      "USD",
			Status:        enums.PaymentIntentStatusPending,
			PaymentMethod: input.PaymentMethod,
		})
		if err != nil {
			return err
		}

		if _, err := s.earnings.CreateForOrder(ctx, tx, order, items); err != nil {
			return err
		}

		created, err = orderRepo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
