package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	"github.com/tamjidzihan/beakling/pkg/pagination"
)

func seedOrderAt(t *testing.T, repo Repository, userID, vendorID uuid.UUID, createdAt time.Time, status enums.OrderStatus) models.Order {
	t.Helper()
	ctx := context.Background()

	order := models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		Status:      status,
		Subtotal:    decimal.RequireFromString("10.00"),
		TotalAmount: decimal.RequireFromString("10.80"),
		CreatedAt:   createdAt,
	}
	created, err := repo.Create(ctx, &order)
	require.NoError(t, err)

	err = repo.CreateItems(ctx, []models.OrderItem{{
		ID:           uuid.New(),
		OrderID:      created.ID,
		ProductID:    uuid.New(),
		VendorID:     vendorID,
		ProductSKU:   "SKU-" + uuid.NewString()[:8],
		ProductTitle: "widget",
		ProductPrice: decimal.RequireFromString("10.00"),
		UnitPrice:    decimal.RequireFromString("10.00"),
		Quantity:     1,
		TotalPrice:   decimal.RequireFromString("10.00"),
	}})
	require.NoError(t, err)
	return *created
}

func TestListByUserPaginates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	vendorID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrderAt(t, repo, userID, vendorID, base.Add(time.Duration(i)*time.Minute), enums.OrderStatusPending)
	}
	seedOrderAt(t, repo, uuid.New(), vendorID, base, enums.OrderStatusPending)

	page1, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2}, nil)
	require.NoError(t, err)
	require.Len(t, page1.Orders, 2)
	require.NotEmpty(t, page1.NextCursor)
	assert.True(t, page1.Orders[0].CreatedAt.After(page1.Orders[1].CreatedAt))

	page2, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: page1.NextCursor}, nil)
	require.NoError(t, err)
	require.Len(t, page2.Orders, 1)
	assert.Empty(t, page2.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, o := range append(page1.Orders, page2.Orders...) {
		assert.Equal(t, userID, o.UserID)
		assert.False(t, seen[o.ID], "order repeated across pages")
		seen[o.ID] = true
	}
}

func TestListByUserFiltersStatus(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().Add(-time.Hour)
	seedOrderAt(t, repo, userID, uuid.New(), base, enums.OrderStatusPending)
	paid := seedOrderAt(t, repo, userID, uuid.New(), base.Add(time.Minute), enums.OrderStatusPaid)

	status := enums.OrderStatusPaid
	list, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 10}, &status)
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, paid.ID, list.Orders[0].ID)
}

func TestListByVendorMatchesLineItems(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	base := time.Now().Add(-time.Hour)
	mine := seedOrderAt(t, repo, uuid.New(), vendorID, base, enums.OrderStatusPending)
	seedOrderAt(t, repo, uuid.New(), uuid.New(), base.Add(time.Minute), enums.OrderStatusPending)

	list, err := repo.ListByVendor(ctx, vendorID, pagination.Params{Limit: 10}, nil)
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, mine.ID, list.Orders[0].ID)
}

func TestFindByIDForUserScopesOwner(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	order := seedOrderAt(t, repo, userID, uuid.New(), time.Now(), enums.OrderStatusPending)

	found, err := repo.FindByIDForUser(ctx, order.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, found.Items, 1)

	missing, err := repo.FindByIDForUser(ctx, order.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
