package addresses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
	"github.com/tamjidzihan/beakling/pkg/types"
)

// Repository exposes the owner-scoped address reads checkout depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID, addrType enums.AddressType) (*models.Address, error)
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an addresses repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByIDAndOwner(ctx context.Context, id, userID uuid.UUID, addrType enums.AddressType) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND type = ?", id, userID, addrType).
		First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidAddress, "address not found for user").
			WithDetails(map[string]any{"address_id": id.String(), "type": addrType.String()})
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var list []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Snapshot copies the live address into the frozen value orders store.
func Snapshot(a models.Address) types.AddressSnapshot {
	return types.AddressSnapshot{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Company:      a.Company,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		Phone:        a.Phone,
	}
}
