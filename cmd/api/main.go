package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamjidzihan/beakling/api/controllers"
	"github.com/tamjidzihan/beakling/api/routes"
	"github.com/tamjidzihan/beakling/internal/addresses"
	cartsvc "github.com/tamjidzihan/beakling/internal/cart"
	"github.com/tamjidzihan/beakling/internal/catalog"
	checkoutsvc "github.com/tamjidzihan/beakling/internal/checkout"
	earningsvc "github.com/tamjidzihan/beakling/internal/earnings"
	"github.com/tamjidzihan/beakling/internal/inventory"
	ordersvc "github.com/tamjidzihan/beakling/internal/orders"
	"github.com/tamjidzihan/beakling/internal/shipping"
	"github.com/tamjidzihan/beakling/pkg/config"
	"github.com/tamjidzihan/beakling/pkg/db"
	"github.com/tamjidzihan/beakling/pkg/logger"
	"github.com/tamjidzihan/beakling/pkg/metrics"
	"github.com/tamjidzihan/beakling/pkg/migrate"
	"github.com/tamjidzihan/beakling/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	taxRate, err := cfg.Checkout.TaxRateDecimal()
	if err != nil {
		logg.Error(context.Background(), "invalid tax rate", err)
		os.Exit(1)
	}
	feeRate, err := cfg.Checkout.PlatformFeeRateDecimal()
	if err != nil {
		logg.Error(context.Background(), "invalid platform fee rate", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	cartRepo := cartsvc.NewRepository(gdb)
	catalogRepo := catalog.NewRepository(gdb)
	addressRepo := addresses.NewRepository(gdb)
	shippingRepo := shipping.NewRepository(gdb)
	orderRepo := ordersvc.NewRepository(gdb)
	earningsRepo := earningsvc.NewRepository(gdb)

	cartService, err := cartsvc.NewService(cartRepo, catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	earningsService, err := earningsvc.NewService(earningsRepo, feeRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create earnings service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(orderRepo, dbClient, earningsService, inventory.Releaser{})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Deps{
		Carts:     cartRepo,
		Products:  catalogRepo,
		Addresses: addressRepo,
		Shipping:  shippingRepo,
		Orders:    orderRepo,
		Earnings:  earningsService,
		Inventory: inventory.Reserver{},
		Tx:        dbClient,
	}, taxRate)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Redis:       redisClient,
		HTTPMetrics: httpMetrics,
		Pingers: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
		Addresses: addressRepo,
		Carts:     cartService,
		Checkout:  checkoutService,
		Orders:    orderService,
		Earnings:  earningsService,
		Shipping:  shippingRepo,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
