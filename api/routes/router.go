package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamjidzihan/beakling/api/controllers"
	"github.com/tamjidzihan/beakling/api/middleware"
	"github.com/tamjidzihan/beakling/internal/addresses"
	cartsvc "github.com/tamjidzihan/beakling/internal/cart"
	checkoutsvc "github.com/tamjidzihan/beakling/internal/checkout"
	earningsvc "github.com/tamjidzihan/beakling/internal/earnings"
	ordersvc "github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/internal/shipping"
	"github.com/tamjidzihan/beakling/pkg/config"
	"github.com/tamjidzihan/beakling/pkg/logger"
	"github.com/tamjidzihan/beakling/pkg/metrics"
	"github.com/tamjidzihan/beakling/pkg/redis"
)

// Deps carries everything the HTTP surface needs. NewRouter does not
// construct services so tests can swap in their own.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	HTTPMetrics *metrics.HTTPMetrics
	Pingers     map[string]controllers.Pinger

	Addresses addresses.Repository
	Carts     cartsvc.Service
	Checkout  checkoutsvc.Service
	Orders    ordersvc.Service
	Earnings  earningsvc.Service
	Shipping  shipping.Repository
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if d.HTTPMetrics != nil {
		r.Use(middleware.Metrics(d.HTTPMetrics))
	}
	r.Use(
		middleware.CORS(),
		middleware.Identity(cfg.JWT, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(d.Redis, logg))

		r.Get("/shipping-methods", controllers.ShippingMethodsList(d.Shipping, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(d.Carts, logg))
			r.Delete("/", controllers.CartClear(d.Carts, logg))
			r.Post("/items", controllers.CartAddItem(d.Carts, logg))
			r.Patch("/items/{id}", controllers.CartUpdateItem(d.Carts, logg))
			r.Delete("/items/{id}", controllers.CartRemoveItem(d.Carts, logg))
			r.With(middleware.RequireUser(logg)).Post("/merge", controllers.CartMerge(d.Carts, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))

			r.Get("/addresses", controllers.AddressesList(d.Addresses, logg))
			r.Post("/checkout", controllers.Checkout(d.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(d.Orders, logg))
				r.Get("/{id}", controllers.OrderGet(d.Orders, logg))
				r.Post("/{id}/cancel", controllers.OrderCancel(d.Orders, logg))
			})
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireVendor(logg))
			r.Get("/orders", controllers.VendorOrders(d.Orders, logg))
			r.Get("/earnings", controllers.VendorEarningsList(d.Earnings, logg))
			r.Get("/earnings/summary", controllers.VendorEarningsSummary(d.Earnings, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireStaff(logg))
			r.Post("/orders/{id}/status", controllers.AdminOrderStatus(d.Orders, logg))
		})
	})

	return r
}
