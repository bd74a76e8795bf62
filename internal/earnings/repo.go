package earnings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	"github.com/tamjidzihan/beakling/pkg/pagination"
)

// Repository defines persistence operations for vendor earnings rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rows []models.VendorEarnings) error
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.VendorEarnings, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.EarningsStatus) (*List, error)
	SummaryByVendor(ctx context.Context, vendorID uuid.UUID) (*Summary, error)
	UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, from, to enums.EarningsStatus) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// List wraps a page of earnings rows plus the next cursor.
type List struct {
	Earnings   []models.VendorEarnings `json:"earnings"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// Summary aggregates a vendor's lifetime earnings.
type Summary struct {
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalFees       decimal.Decimal `json:"total_fees"`
	TotalNet        decimal.Decimal `json:"total_net"`
	PendingNet      decimal.Decimal `json:"pending_net"`
	AvailableNet    decimal.Decimal `json:"available_net"`
	PaidNet         decimal.Decimal `json:"paid_net"`
	OrderCount      int64           `json:"order_count"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an earnings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rows []models.VendorEarnings) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorEarnings{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorEarnings, error) {
	var row models.VendorEarnings
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params, status *enums.EarningsStatus) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.VendorEarnings{}).
		Where("vendor_id = ?", vendorID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.VendorEarnings
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &List{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	list.Earnings = rows
	return list, nil
}

func (r *repository) SummaryByVendor(ctx context.Context, vendorID uuid.UUID) (*Summary, error) {
	var rows []models.VendorEarnings
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalGross:   decimal.Zero,
		TotalFees:    decimal.Zero,
		TotalNet:     decimal.Zero,
		PendingNet:   decimal.Zero,
		AvailableNet: decimal.Zero,
		PaidNet:      decimal.Zero,
	}
	orders := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		summary.TotalGross = summary.TotalGross.Add(row.GrossAmount)
		summary.TotalFees = summary.TotalFees.Add(row.PlatformFee)
		summary.TotalNet = summary.TotalNet.Add(row.NetAmount)
		switch row.Status {
		case enums.EarningsStatusPending:
			summary.PendingNet = summary.PendingNet.Add(row.NetAmount)
		case enums.EarningsStatusAvailable:
			summary.AvailableNet = summary.AvailableNet.Add(row.NetAmount)
		case enums.EarningsStatusPaid:
			summary.PaidNet = summary.PaidNet.Add(row.NetAmount)
		}
		orders[row.OrderID] = struct{}{}
	}
	summary.OrderCount = int64(len(orders))
	return summary, nil
}

func (r *repository) UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, from, to enums.EarningsStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorEarnings{}).
		Where("order_id = ? AND status = ?", orderID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorEarnings{}).
		Where("id = ?", id).
		Updates(updates).Error
}
