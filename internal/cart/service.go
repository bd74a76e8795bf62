package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/internal/catalog"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Owner identifies who a cart belongs to: a signed-in user or an anonymous
// session, never both.
type Owner struct {
	UserID     *uuid.UUID
	SessionKey string
}

func (o Owner) validate() error {
	if o.UserID != nil && o.SessionKey != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be a user or a session, not both")
	}
	if o.UserID == nil && o.SessionKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	return nil
}

// Totals are derived from cart lines on every read, never stored.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Savings   decimal.Decimal `json:"savings"`
	ItemCount int             `json:"item_count"`
}

// Service defines cart operations.
type Service interface {
	GetOrCreate(ctx context.Context, owner Owner) (*models.Cart, error)
	AddItem(ctx context.Context, owner Owner, productID uuid.UUID, qty int) (*models.Cart, error)
	SetQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, owner Owner) (*models.Cart, error)
	Merge(ctx context.Context, sessionKey string, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo     Repository
	products catalog.Repository
	tx       txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, products catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

// ComputeTotals sums the cart lines at their current effective prices.
func ComputeTotals(cart *models.Cart) Totals {
	totals := Totals{Subtotal: decimal.Zero, Savings: decimal.Zero}
	if cart == nil {
		return totals
	}
	for _, item := range cart.Items {
		if item.Product == nil {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		totals.Subtotal = totals.Subtotal.Add(item.Product.CurrentPrice().Mul(qty))
		if item.Product.IsOnSale() {
			totals.Savings = totals.Savings.Add(item.Product.Price.Sub(*item.Product.SalePrice).Mul(qty))
		}
		totals.ItemCount += item.Quantity
	}
	return totals
}

func (s *service) GetOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.find(ctx, s.repo, owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	fresh := &models.Cart{UserID: owner.UserID}
	if owner.SessionKey != "" {
		key := owner.SessionKey
		fresh.SessionKey = &key
	}
	return s.repo.Create(ctx, fresh)
}

func (s *service) find(ctx context.Context, repo Repository, owner Owner) (*models.Cart, error) {
	if owner.UserID != nil {
		return repo.FindByUser(ctx, *owner.UserID)
	}
	return repo.FindBySession(ctx, owner.SessionKey)
}

// AddItem increments an existing line or creates one, clamping the stored
// quantity to the product's current inventory. Asking for more than is in
// stock is not an error here; checkout is where shortfalls fail loudly.
func (s *service) AddItem(ctx context.Context, owner Owner, productID uuid.UUID, qty int) (*models.Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.products.WithTx(tx).FindActiveByID(ctx, productID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByProduct(ctx, cart.ID, productID)
		if err != nil {
			return err
		}

		desired := qty
		if existing != nil {
			desired += existing.Quantity
		}
		clamped := desired
		if clamped > product.Inventory {
			clamped = product.Inventory
		}

		switch {
		case clamped < 1 && existing != nil:
			return repo.DeleteItem(ctx, existing.ID)
		case clamped < 1:
			return nil
		case existing != nil:
			return repo.UpdateItemQuantity(ctx, existing.ID, clamped)
		default:
			return repo.CreateItem(ctx, &models.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  clamped,
			})
		}
	})
	if err != nil {
		return nil, err
	}

	return s.find(ctx, s.repo, owner)
}

func (s *service) SetQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.requireCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		product, err := s.products.WithTx(tx).FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}

		clamped := qty
		if clamped > product.Inventory {
			clamped = product.Inventory
		}
		if clamped < 1 {
			return repo.DeleteItem(ctx, item.ID)
		}
		return repo.UpdateItemQuantity(ctx, item.ID, clamped)
	})
	if err != nil {
		return nil, err
	}

	return s.find(ctx, s.repo, owner)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.requireCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.find(ctx, s.repo, owner)
}

func (s *service) Clear(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	cart, err := s.requireCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.find(ctx, s.repo, owner)
}

// Merge folds an anonymous session cart into the user's cart at sign-in.
// Folded lines follow AddItem semantics, so inventory clamping still applies.
// The session cart row is deleted afterwards.
func (s *service) Merge(ctx context.Context, sessionKey string, userID uuid.UUID) (*models.Cart, error) {
	if sessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}

	sessionCart, err := s.repo.FindBySession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	owner := Owner{UserID: &userID}
	if sessionCart == nil {
		return s.GetOrCreate(ctx, owner)
	}

	for _, item := range sessionCart.Items {
		if _, err := s.AddItem(ctx, owner, item.ProductID, item.Quantity); err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				continue
			}
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItemsByCart(ctx, sessionCart.ID); err != nil {
			return err
		}
		return repo.DeleteCart(ctx, sessionCart.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.find(ctx, s.repo, owner)
}

func (s *service) requireCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.find(ctx, s.repo, owner)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return cart, nil
}
