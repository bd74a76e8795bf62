package checkout

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tamjidzihan/beakling/internal/addresses"
	"github.com/tamjidzihan/beakling/internal/cart"
	"github.com/tamjidzihan/beakling/internal/catalog"
	"github.com/tamjidzihan/beakling/internal/earnings"
	"github.com/tamjidzihan/beakling/internal/inventory"
	"github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/internal/shipping"
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

type env struct {
	db       *gorm.DB
	svc      Service
	carts    cart.Service
	userID   uuid.UUID
	addrID   uuid.UUID
	methodID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.Product{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.VendorEarnings{}, &models.PaymentIntent{},
		&models.ShippingMethod{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx := gormTxRunner{db: db}
	earningsSvc, err := earnings.NewService(earnings.NewRepository(db), decimal.RequireFromString("0.05"))
	if err != nil {
		t.Fatalf("earnings service: %v", err)
	}
	cartSvc, err := cart.NewService(cart.NewRepository(db), catalog.NewRepository(db), tx)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	svc, err := NewService(Deps{
		Carts:     cart.NewRepository(db),
		Products:  catalog.NewRepository(db),
		Addresses: addresses.NewRepository(db),
		Shipping:  shipping.NewRepository(db),
		Orders:    orders.NewRepository(db),
		Earnings:  earningsSvc,
		Inventory: inventory.Reserver{},
		Tx:        tx,
	}, decimal.RequireFromString("0.08"))
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	userID := uuid.New()
	if err := db.Create(&models.User{ID: userID, Email: uuid.NewString() + "@test.dev"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	addr := models.Address{
		UserID:       userID,
		Type:         enums.AddressTypeShipping,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		State:        "LDN",
		PostalCode:   "E1 6AN",
		Country:      "GB",
	}
	if err := db.Create(&addr).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	method := models.ShippingMethod{
		Name:             "Standard",
		Price:            decimal.RequireFromString("4.00"),
		EstimatedDaysMin: 5,
		EstimatedDaysMax: 8,
		IsActive:         true,
	}
	if err := db.Create(&method).Error; err != nil {
		t.Fatalf("seed method: %v", err)
	}

	return &env{db: db, svc: svc, carts: cartSvc, userID: userID, addrID: addr.ID, methodID: method.ID}
}

func (e *env) seedProduct(t *testing.T, price string, inventoryQty int) models.Product {
	t.Helper()
	p := models.Product{
		VendorID:  uuid.New(),
		SKU:       "SKU-" + uuid.NewString()[:8],
		Title:     "widget",
		Price:     decimal.RequireFromString(price),
		Inventory: inventoryQty,
		IsActive:  true,
	}
	if err := e.db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (e *env) addToCart(t *testing.T, productID uuid.UUID, qty int) {
	t.Helper()
	if _, err := e.carts.AddItem(context.Background(), cart.Owner{UserID: &e.userID}, productID, qty); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
}

func (e *env) input() Input {
	return Input{ShippingAddressID: e.addrID, ShippingMethodID: e.methodID}
}

func TestExecuteHappyPath(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	// two units at $25 = $50 subtotal, 8% tax, $4 shipping, $59 total
	product := e.seedProduct(t, "25.00", 5)
	e.addToCart(t, product.ID, 2)

	order, err := e.svc.Execute(ctx, e.userID, e.input())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.HasPrefix(order.OrderNumber, "ORD-") || len(order.OrderNumber) != 12 {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("unexpected subtotal %s", order.Subtotal)
	}
	if !order.TaxAmount.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("unexpected tax %s", order.TaxAmount)
	}
	if !order.ShippingAmount.Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("unexpected shipping %s", order.ShippingAmount)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("58.00")) {
		t.Fatalf("unexpected total %s", order.TotalAmount)
	}
	if order.ShippingAddress.FirstName != "Ada" || order.BillingAddress.FirstName != "Ada" {
		t.Fatalf("expected frozen address snapshots: %+v", order.ShippingAddress)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductSKU != product.SKU || !item.UnitPrice.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("unexpected item snapshot: %+v", item)
	}

	if order.PaymentIntent == nil || order.PaymentIntent.Status != enums.PaymentIntentStatusPending {
		t.Fatalf("expected pending payment intent: %+v", order.PaymentIntent)
	}
	if len(order.Earnings) != 1 {
		t.Fatalf("expected 1 earnings row, got %d", len(order.Earnings))
	}
	earning := order.Earnings[0]
	if !earning.GrossAmount.Equal(decimal.RequireFromString("50.00")) ||
		!earning.PlatformFee.Equal(decimal.RequireFromString("2.50")) ||
		!earning.NetAmount.Equal(decimal.RequireFromString("47.50")) {
		t.Fatalf("unexpected earnings split: %+v", earning)
	}

	var got models.Product
	if err := e.db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.Inventory != 3 {
		t.Fatalf("expected inventory 3, got %d", got.Inventory)
	}

	refreshed, err := e.carts.GetOrCreate(ctx, cart.Owner{UserID: &e.userID})
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(refreshed.Items) != 0 {
		t.Fatalf("expected cleared cart, got %d lines", len(refreshed.Items))
	}
}

func TestExecuteUsesSalePrice(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	product := e.seedProduct(t, "30.00", 5)
	sale := decimal.RequireFromString("25.00")
	if err := e.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("sale_price", sale).Error; err != nil {
		t.Fatalf("set sale price: %v", err)
	}
	e.addToCart(t, product.ID, 1)

	order, err := e.svc.Execute(ctx, e.userID, e.input())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !order.Subtotal.Equal(sale) {
		t.Fatalf("expected sale price subtotal, got %s", order.Subtotal)
	}
	if !order.Items[0].ProductPrice.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("snapshot must keep the list price, got %s", order.Items[0].ProductPrice)
	}
}

func TestExecuteEmptyCart(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.svc.Execute(context.Background(), e.userID, e.input())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestExecuteBoundaryInventory(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	product := e.seedProduct(t, "10.00", 3)
	e.addToCart(t, product.ID, 3)

	if _, err := e.svc.Execute(ctx, e.userID, e.input()); err != nil {
		t.Fatalf("boundary checkout should succeed: %v", err)
	}

	var got models.Product
	if err := e.db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.Inventory != 0 {
		t.Fatalf("expected drained stock, got %d", got.Inventory)
	}
}

func TestExecuteInsufficientInventoryRollsBackEverything(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	product := e.seedProduct(t, "10.00", 5)
	e.addToCart(t, product.ID, 4)
	// stock drops after the cart was filled
	if err := e.db.Model(&models.Product{}).Where("id = ?", product.ID).Update("inventory", 1).Error; err != nil {
		t.Fatalf("shrink stock: %v", err)
	}

	_, err := e.svc.Execute(ctx, e.userID, e.input())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientInventory {
		t.Fatalf("expected insufficient inventory, got %v", err)
	}

	var orderCount, itemCount, earningCount, intentCount int64
	e.db.Model(&models.Order{}).Count(&orderCount)
	e.db.Model(&models.OrderItem{}).Count(&itemCount)
	e.db.Model(&models.VendorEarnings{}).Count(&earningCount)
	e.db.Model(&models.PaymentIntent{}).Count(&intentCount)
	if orderCount+itemCount+earningCount+intentCount != 0 {
		t.Fatalf("nothing may survive a failed checkout: %d/%d/%d/%d", orderCount, itemCount, earningCount, intentCount)
	}

	refreshed, err := e.carts.GetOrCreate(ctx, cart.Owner{UserID: &e.userID})
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(refreshed.Items) != 1 {
		t.Fatalf("cart must survive a failed checkout, got %d lines", len(refreshed.Items))
	}
}

// The contention guarantee comes from the conditional inventory UPDATE, which
// admits only one winner regardless of interleaving. sqlite serializes
// writers, so the two checkouts run back to back here; the losing path is the
// same one a concurrent transaction would hit under Postgres.
func TestExecuteLastUnitHasOneWinner(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	product := e.seedProduct(t, "10.00", 1)
	e.addToCart(t, product.ID, 1)

	// second buyer wants the same last unit
	rivalID := uuid.New()
	if err := e.db.Create(&models.User{ID: rivalID, Email: uuid.NewString() + "@test.dev"}).Error; err != nil {
		t.Fatalf("seed rival: %v", err)
	}
	rivalAddr := models.Address{
		UserID: rivalID, Type: enums.AddressTypeShipping,
		FirstName: "Eve", LastName: "R", AddressLine1: "2 Race St",
		City: "X", State: "Y", PostalCode: "1", Country: "US",
	}
	if err := e.db.Create(&rivalAddr).Error; err != nil {
		t.Fatalf("seed rival address: %v", err)
	}
	rivalCart := models.Cart{UserID: &rivalID}
	if err := e.db.Create(&rivalCart).Error; err != nil {
		t.Fatalf("seed rival cart: %v", err)
	}
	// cart line predates the first checkout, as in a real race
	if err := e.db.Create(&models.CartItem{CartID: rivalCart.ID, ProductID: product.ID, Quantity: 1}).Error; err != nil {
		t.Fatalf("seed rival line: %v", err)
	}

	if _, err := e.svc.Execute(ctx, e.userID, e.input()); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	_, err := e.svc.Execute(ctx, rivalID, Input{ShippingAddressID: rivalAddr.ID, ShippingMethodID: e.methodID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientInventory {
		t.Fatalf("expected second buyer to lose, got %v", err)
	}

	var orderCount int64
	e.db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != 1 {
		t.Fatalf("exactly one order may exist, got %d", orderCount)
	}
}

func TestExecuteValidatesSelections(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	product := e.seedProduct(t, "10.00", 5)
	e.addToCart(t, product.ID, 1)

	badAddr := e.input()
	badAddr.ShippingAddressID = uuid.New()
	_, err := e.svc.Execute(ctx, e.userID, badAddr)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidAddress {
		t.Fatalf("expected invalid address, got %v", err)
	}

	badMethod := e.input()
	badMethod.ShippingMethodID = uuid.New()
	_, err = e.svc.Execute(ctx, e.userID, badMethod)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidShippingMethod {
		t.Fatalf("expected invalid shipping method, got %v", err)
	}

	badPayment := e.input()
	badPayment.PaymentMethod = enums.PaymentMethod("barter")
	_, err = e.svc.Execute(ctx, e.userID, badPayment)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteTwoVendorScenario(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	// 3 × $10 + 1 × $20 with 8% tax and $5 shipping comes to $59
	method := models.ShippingMethod{
		Name: "Courier", Price: decimal.RequireFromString("5.00"),
		EstimatedDaysMin: 1, EstimatedDaysMax: 2, IsActive: true,
	}
	if err := e.db.Create(&method).Error; err != nil {
		t.Fatalf("seed method: %v", err)
	}
	a := e.seedProduct(t, "10.00", 10)
	b := e.seedProduct(t, "20.00", 10)
	e.addToCart(t, a.ID, 3)
	e.addToCart(t, b.ID, 1)

	order, err := e.svc.Execute(ctx, e.userID, Input{ShippingAddressID: e.addrID, ShippingMethodID: method.ID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("50.00")) ||
		!order.TaxAmount.Equal(decimal.RequireFromString("4.00")) ||
		!order.TotalAmount.Equal(decimal.RequireFromString("59.00")) {
		t.Fatalf("unexpected totals: %s/%s/%s", order.Subtotal, order.TaxAmount, order.TotalAmount)
	}
	if len(order.Items) != 2 || len(order.Earnings) != 2 {
		t.Fatalf("expected 2 items and 2 earnings rows, got %d/%d", len(order.Items), len(order.Earnings))
	}

	var aEarning models.VendorEarnings
	if err := e.db.First(&aEarning, "order_id = ? AND vendor_id = ?", order.ID, a.VendorID).Error; err != nil {
		t.Fatalf("load vendor A earnings: %v", err)
	}
	if !aEarning.GrossAmount.Equal(decimal.RequireFromString("30.00")) ||
		!aEarning.PlatformFee.Equal(decimal.RequireFromString("1.50")) ||
		!aEarning.NetAmount.Equal(decimal.RequireFromString("28.50")) {
		t.Fatalf("unexpected vendor A split: %+v", aEarning)
	}

	// per-line totals must conserve the subtotal
	lineSum := decimal.Zero
	for _, item := range order.Items {
		lineSum = lineSum.Add(item.TotalPrice)
	}
	if !lineSum.Equal(order.Subtotal) {
		t.Fatalf("line totals %s do not match subtotal %s", lineSum, order.Subtotal)
	}
}
