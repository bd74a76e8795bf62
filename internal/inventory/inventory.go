package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/pkg/db/models"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
)

// ReservationRequest asks for qty units of a product to be taken out of stock.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserve decrements inventory for every request inside the supplied
// transaction. Decrements are atomic conditional updates, so concurrent
// checkouts cannot both take the last unit. Any shortfall aborts the whole
// call; the caller's transaction rollback undoes prior decrements.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction is required")
	}

	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity %d for product %s", req.Qty, req.ProductID))
		}

		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND inventory >= ?", req.ProductID, req.Qty).
			Update("inventory", gorm.Expr("inventory - ?", req.Qty))
		if res.Error != nil {
			return fmt.Errorf("reserve inventory for product %s: %w", req.ProductID, res.Error)
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "insufficient inventory").
				WithDetails(map[string]any{
					"product_id": req.ProductID.String(),
					"requested":  req.Qty,
				})
		}
	}
	return nil
}

// Release returns qty units of a product to stock. Used by order cancellation.
func Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quantity %d for product %s", qty, productID))
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("inventory", gorm.Expr("inventory + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("release inventory for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID.String()})
	}
	return nil
}

// Releaser adapts Release to the interface consumed by the orders service.
type Releaser struct{}

func (Releaser) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return Release(ctx, tx, productID, qty)
}

// Reserver adapts Reserve to the interface consumed by the checkout service.
type Reserver struct{}

func (Reserver) Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	return Reserve(ctx, tx, requests)
}
