package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/pkg/db"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/pagination"
)

// Service defines earnings operations.
type Service interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) ([]models.VendorEarnings, error)
	MarkAvailableForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.EarningsStatus) (*List, error)
	Summary(ctx context.Context, vendorID uuid.UUID) (*Summary, error)
}

type service struct {
	repo    Repository
	feeRate decimal.Decimal
	now     func() time.Time
}

// NewService builds an earnings service. feeRate is the platform's cut of
// vendor gross revenue, e.g. 0.05 for five percent.
func NewService(repo Repository, feeRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("fee rate must be in [0, 1), got %s", feeRate)
	}
	return &service{repo: repo, feeRate: feeRate, now: time.Now}, nil
}

// CreateForOrder groups the order's lines by vendor and writes one pending
// earnings row per vendor. Gross amounts sum exactly to the order subtotal;
// the platform fee is rounded per vendor.
func (s *service) CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) ([]models.VendorEarnings, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no items")
	}

	repo := s.repo.WithTx(tx)

	exists, err := repo.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateEarnings, "earnings already recorded for order").
			WithDetails(map[string]any{"order_id": order.ID.String()})
	}

	grossByVendor := map[uuid.UUID]decimal.Decimal{}
	vendorOrder := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, seen := grossByVendor[item.VendorID]; !seen {
			vendorOrder = append(vendorOrder, item.VendorID)
		}
		grossByVendor[item.VendorID] = grossByVendor[item.VendorID].Add(item.TotalPrice)
	}

	rows := make([]models.VendorEarnings, 0, len(grossByVendor))
	for _, vendorID := range vendorOrder {
		gross := grossByVendor[vendorID]
		fee := gross.Mul(s.feeRate).Round(2)
		rows = append(rows, models.VendorEarnings{
			VendorID:    vendorID,
			OrderID:     order.ID,
			GrossAmount: gross,
			PlatformFee: fee,
			NetAmount:   gross.Sub(fee),
			Status:      enums.EarningsStatusPending,
		})
	}

	if err := repo.Create(ctx, rows); err != nil {
		if db.IsUniqueViolation(err, "idx_vendor_earnings_vendor_order") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateEarnings, err, "earnings already recorded for order").
				WithDetails(map[string]any{"order_id": order.ID.String()})
		}
		return nil, err
	}
	return rows, nil
}

// MarkAvailableForOrder flips every pending row for the order to available.
// Rows already past pending are left alone.
func (s *service) MarkAvailableForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	_, err := s.repo.WithTx(tx).UpdateStatusByOrder(ctx, orderID, enums.EarningsStatusPending, enums.EarningsStatusAvailable)
	return err
}

// MarkPaid settles a single available earnings row, stamping paid_at.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "earnings row not found")
	}
	if row.Status == enums.EarningsStatusPaid {
		return nil
	}
	if row.Status != enums.EarningsStatusAvailable {
		return pkgerrors.New(pkgerrors.CodeConflict, "earnings are not available for payout").
			WithDetails(map[string]any{"status": row.Status.String()})
	}
	now := s.now()
	return s.repo.Update(ctx, id, map[string]any{
		"status":  enums.EarningsStatusPaid,
		"paid_at": &now,
	})
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.EarningsStatus) (*List, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid earnings status %q", *status))
	}
	return s.repo.ListByVendor(ctx, vendorID, params, status)
}

func (s *service) Summary(ctx context.Context, vendorID uuid.UUID) (*Summary, error) {
	return s.repo.SummaryByVendor(ctx, vendorID)
}
