package orders

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/internal/earnings"
	"github.com/tamjidzihan/beakling/internal/inventory"
	"github.com/tamjidzihan/beakling/pkg/db/models"
	"github.com/tamjidzihan/beakling/pkg/enums"
	pkgerrors "github.com/tamjidzihan/beakling/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.VendorEarnings{},
		&models.PaymentIntent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	earningsSvc, err := earnings.NewService(earnings.NewRepository(db), decimal.RequireFromString("0.05"))
	if err != nil {
		t.Fatalf("earnings service: %v", err)
	}
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, earningsSvc, inventory.Releaser{})
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	return svc
}

type fixture struct {
	order   models.Order
	product models.Product
}

func seedOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus) fixture {
	t.Helper()
	product := models.Product{
		ID:        uuid.New(),
		VendorID:  uuid.New(),
		SKU:       "SKU-" + uuid.NewString()[:8],
		Title:     "widget",
		Price:     decimal.RequireFromString("25.00"),
		Inventory: 3,
		IsActive:  true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	order := models.Order{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		OrderNumber: "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		Status:      status,
		Subtotal:    decimal.RequireFromString("50.00"),
		TotalAmount: decimal.RequireFromString("58.00"),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	item := models.OrderItem{
		OrderID:      order.ID,
		ProductID:    product.ID,
		VendorID:     product.VendorID,
		ProductSKU:   product.SKU,
		ProductTitle: product.Title,
		ProductPrice: product.Price,
		Quantity:     2,
		UnitPrice:    product.Price,
		TotalPrice:   decimal.RequireFromString("50.00"),
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	earning := models.VendorEarnings{
		VendorID:    product.VendorID,
		OrderID:     order.ID,
		GrossAmount: decimal.RequireFromString("50.00"),
		PlatformFee: decimal.RequireFromString("2.50"),
		NetAmount:   decimal.RequireFromString("47.50"),
		Status:      enums.EarningsStatusPending,
	}
	if err := db.Create(&earning).Error; err != nil {
		t.Fatalf("seed earning: %v", err)
	}

	return fixture{order: order, product: product}
}

func TestTransitionFullLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusPending)

	paid, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusPaid, "")
	if err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if !paid.Changed || paid.Order.PaidAt == nil {
		t.Fatalf("expected paid_at to be set: %+v", paid.Order)
	}

	// payment releases the vendors' pending earnings
	var earning models.VendorEarnings
	if err := db.First(&earning, "order_id = ?", fx.order.ID).Error; err != nil {
		t.Fatalf("load earning: %v", err)
	}
	if earning.Status != enums.EarningsStatusAvailable {
		t.Fatalf("expected earnings available after payment, got %s", earning.Status)
	}

	shipped, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusShipped, "TRACK-42")
	if err != nil {
		t.Fatalf("to shipped: %v", err)
	}
	if shipped.Order.ShippedAt == nil || shipped.Order.TrackingNumber != "TRACK-42" {
		t.Fatalf("expected shipped_at and tracking: %+v", shipped.Order)
	}

	delivered, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusDelivered, "")
	if err != nil {
		t.Fatalf("to delivered: %v", err)
	}
	o := delivered.Order
	if o.DeliveredAt == nil {
		t.Fatal("expected delivered_at")
	}
	if o.PaidAt.After(*o.ShippedAt) || o.ShippedAt.After(*o.DeliveredAt) {
		t.Fatalf("timestamps must be monotonic: paid=%v shipped=%v delivered=%v", o.PaidAt, o.ShippedAt, o.DeliveredAt)
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusPending)

	res, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusPending, "")
	if err != nil {
		t.Fatalf("no-op transition: %v", err)
	}
	if res.Changed {
		t.Fatal("same-status transition must not report a change")
	}
	if res.Order.Status != enums.OrderStatusPending {
		t.Fatalf("status must be unchanged, got %s", res.Order.Status)
	}
}

func TestTransitionCancelledToCancelledIsNoOp(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusCancelled)

	res, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusCancelled, "")
	if err != nil {
		t.Fatalf("cancelled→cancelled must be a no-op, got %v", err)
	}
	if res.Changed {
		t.Fatal("same-status transition must not report a change")
	}
	if res.Order.Status != enums.OrderStatusCancelled {
		t.Fatalf("status must stay CANCELLED, got %s", res.Order.Status)
	}

	var product models.Product
	if err := db.First(&product, "id = ?", fx.product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if product.Inventory != fx.product.Inventory {
		t.Fatalf("inventory must be untouched, got %d want %d", product.Inventory, fx.product.Inventory)
	}
}

func TestTransitionRejectsIllegalEdges(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	fx := seedOrder(t, db, enums.OrderStatusPending)
	_, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusDelivered, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidStatus {
		t.Fatalf("expected invalid status for pending→delivered, got %v", err)
	}

	_, err = svc.Transition(ctx, fx.order.ID, enums.OrderStatus("LOST"), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidStatus {
		t.Fatalf("expected invalid status for unknown target, got %v", err)
	}

	done := seedOrder(t, db, enums.OrderStatusCancelled)
	_, err = svc.Transition(ctx, done.order.ID, enums.OrderStatusPaid, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidStatus {
		t.Fatalf("cancelled orders must reject transitions, got %v", err)
	}
}

func TestDeliveredBackfillsShippedAt(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusShipped)

	res, err := svc.Transition(ctx, fx.order.ID, enums.OrderStatusDelivered, "")
	if err != nil {
		t.Fatalf("to delivered: %v", err)
	}
	if res.Order.ShippedAt == nil || res.Order.DeliveredAt == nil {
		t.Fatalf("expected shipped_at backfill: %+v", res.Order)
	}
}

func TestCancelRestoresInventory(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusPending)

	order, err := svc.Cancel(ctx, fx.order.ID, &fx.order.UserID, "changed my mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", order.Status)
	}
	if !strings.Contains(order.InternalNotes, "Cancelled: changed my mind") {
		t.Fatalf("expected cancellation note, got %q", order.InternalNotes)
	}

	var product models.Product
	if err := db.First(&product, "id = ?", fx.product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.Inventory != 5 {
		t.Fatalf("expected 2 units restored onto 3, got %d", product.Inventory)
	}
}

func TestCancelRejectsShippedOrders(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusShipped)

	_, err := svc.Cancel(ctx, fx.order.ID, nil, "too late")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotCancellable {
		t.Fatalf("expected not cancellable, got %v", err)
	}
}

func TestCancelEnforcesOwnership(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusPending)

	stranger := uuid.New()
	_, err := svc.Cancel(ctx, fx.order.ID, &stranger, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign order, got %v", err)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	fx := seedOrder(t, db, enums.OrderStatusPending)

	order, err := svc.Get(ctx, fx.order.ID, fx.order.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(order.Items) != 1 || len(order.Earnings) != 1 {
		t.Fatalf("expected preloaded children: %+v", order)
	}

	if _, err := svc.Get(ctx, fx.order.ID, uuid.New()); err == nil {
		t.Fatal("expected not found for foreign reader")
	}
}
