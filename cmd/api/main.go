package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/nguyenhuy-dev/storelane-backend/api/routes"
	"github.com/nguyenhuy-dev/storelane-backend/internal/addresses"
	"github.com/nguyenhuy-dev/storelane-backend/internal/cart"
	"github.com/nguyenhuy-dev/storelane-backend/internal/discounts"
	"github.com/nguyenhuy-dev/storelane-backend/internal/flashsale"
	"github.com/nguyenhuy-dev/storelane-backend/internal/inventory"
	"github.com/nguyenhuy-dev/storelane-backend/internal/notifications"
	"github.com/nguyenhuy-dev/storelane-backend/internal/orders"
	"github.com/nguyenhuy-dev/storelane-backend/internal/payments"
	"github.com/nguyenhuy-dev/storelane-backend/internal/products"
	"github.com/nguyenhuy-dev/storelane-backend/internal/scheduler"
	"github.com/nguyenhuy-dev/storelane-backend/internal/shipping"
	"github.com/nguyenhuy-dev/storelane-backend/internal/users"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/migrate"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/pubsub"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/redis"
)

const shutdownGrace = 10 * time.Second

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	addressesRepo := addresses.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)

	publisher, err := notifications.NewTopicPublisher(pubsubClient.NotificationPublisher())
	if err != nil {
		logg.Error(context.Background(), "failed to create notification publisher", err)
		os.Exit(1)
	}
	notifier, err := notifications.NewService(notifications.ServiceParams{
		Logger:    logg,
		DB:        gormDB,
		Publisher: publisher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), productsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	discountService, err := discounts.NewService(discounts.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create discount service", err)
		os.Exit(1)
	}

	var carrierClient shipping.CarrierClient
	if cfg.Shipping.BaseURL != "" {
		carrierClient, err = shipping.NewHTTPClient(cfg.Shipping)
		if err != nil {
			logg.Error(context.Background(), "failed to create carrier client", err)
			os.Exit(1)
		}
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Logger:        logg,
		Repo:          orders.NewRepository(gormDB),
		Users:         usersRepo,
		Addresses:     addressesRepo,
		Products:      productsRepo,
		Discounts:     discountService,
		Inventory:     inventory.NewService(),
		Notifier:      notifier,
		Tx:            dbClient,
		NotifyTimeout: cfg.Scheduler.NotifyTimeout,
		Carrier:       carrierClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	flashSaleService, err := flashsale.NewService(flashsale.NewRepository(gormDB), productsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create flash sale service", err)
		os.Exit(1)
	}

	schedulerService, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:    logg,
		Repo:      scheduler.NewRepository(gormDB),
		Campaigns: flashSaleService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler service", err)
		os.Exit(1)
	}
	defer schedulerService.Stop()

	paymentVerifier, err := payments.NewHMACVerifier(cfg.Payment)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment verifier", err)
		os.Exit(1)
	}

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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			cartService,
			discountService,
			orderService,
			flashSaleService,
			schedulerService,
			paymentVerifier,
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
