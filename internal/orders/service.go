package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// EarningsMarker flips an order's earnings rows when payment lands.
type EarningsMarker interface {
	MarkAvailableForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// InventoryReleaser returns stock when an order is cancelled.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// TransitionResult reports whether the transition changed anything. Asking
// for the status an order already has is a no-op, not an error.
type TransitionResult struct {
	Order   *models.Order
	Changed bool
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetAny(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*List, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*List, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, trackingNumber string) (*TransitionResult, error)
	Cancel(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, reason string) (*models.Order, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	earnings  EarningsMarker
	inventory InventoryReleaser
	now       func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, earnings EarningsMarker, inventory InventoryReleaser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if earnings == nil {
		return nil, fmt.Errorf("earnings marker required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		earnings:  earnings,
		inventory: inventory,
		now:       time.Now,
	}, nil
}

// allowedTransitions holds the forward edges of the status machine. Cancel
// has its own path because it also restores inventory.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusPaid},
	enums.OrderStatusPaid:      {enums.OrderStatusShipped},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetAny(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*List, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("unknown order status %q", *status))
	}
	return s.repo.ListByUser(ctx, userID, params, status)
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.OrderStatus) (*List, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("unknown order status %q", *status))
	}
	return s.repo.ListByVendor(ctx, vendorID, params, status)
}

// Transition moves the order along PENDING → PAID → SHIPPED → DELIVERED.
// PAID stamps paid_at and releases the vendors' pending earnings; SHIPPED
// stamps shipped_at and records the tracking number; DELIVERED stamps
// delivered_at, backfilling shipped_at when the shipment step was skipped.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, trackingNumber string) (*TransitionResult, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("unknown order status %q", target))
	}
	if target == enums.OrderStatusCancelled {
		current, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if current.Status == enums.OrderStatusCancelled {
			return &TransitionResult{Order: current}, nil
		}
		order, err := s.Cancel(ctx, orderID, nil, "")
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Order: order, Changed: true}, nil
	}

	result := &TransitionResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		if order.Status == target {
			result.Order = order
			return nil
		}
		if !transitionAllowed(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeInvalidStatus, fmt.Sprintf("cannot move order from %s to %s", order.Status, target)).
				WithDetails(map[string]any{"from": order.Status.String(), "to": target.String()})
		}

		now := s.now()
		updates := map[string]any{"status": target}
		switch target {
		case enums.OrderStatusPaid:
			if order.PaidAt == nil {
				updates["paid_at"] = &now
			}
			if err := s.earnings.MarkAvailableForOrder(ctx, tx, order.ID); err != nil {
				return err
			}
		case enums.OrderStatusShipped:
			if order.ShippedAt == nil {
				updates["shipped_at"] = &now
			}
			if trackingNumber != "" {
				updates["tracking_number"] = trackingNumber
			}
		case enums.OrderStatusDelivered:
			if order.DeliveredAt == nil {
				updates["delivered_at"] = &now
			}
			if order.ShippedAt == nil {
				updates["shipped_at"] = &now
			}
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return err
		}

		refreshed, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		result.Order = refreshed
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel closes an order that has not shipped, putting every reserved unit
// back into stock. When userID is set the order must belong to that user.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID, reason string) (*models.Order, error) {
	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var order *models.Order
		var err error
		if userID != nil {
			order, err = repo.FindByIDForUser(ctx, orderID, *userID)
		} else {
			order, err = repo.FindByID(ctx, orderID)
		}
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if !order.CanBeCancelled() {
			return pkgerrors.New(pkgerrors.CodeNotCancellable, fmt.Sprintf("order in status %s cannot be cancelled", order.Status)).
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		for _, item := range order.Items {
			if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		notes := order.InternalNotes
		note := "Cancelled"
		if strings.TrimSpace(reason) != "" {
			note = "Cancelled: " + strings.TrimSpace(reason)
		}
		if notes != "" {
			notes += "\n"
		}
		notes += note

		err = repo.Update(ctx, order.ID, map[string]any{
			"status":         enums.OrderStatusCancelled,
			"internal_notes": notes,
		})
		if err != nil {
			return err
		}

		cancelled, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}
