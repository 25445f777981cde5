package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nguyenhuy-dev/storelane-backend/internal/flashsale"
	"github.com/nguyenhuy-dev/storelane-backend/internal/products"
	"github.com/nguyenhuy-dev/storelane-backend/internal/scheduler"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/config"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/db"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/logger"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/metrics"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/migrate"
	"github.com/nguyenhuy-dev/storelane-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "scheduler-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "scheduler-worker"

	logg = logger.New(logger.Options{
		ServiceName: "scheduler-worker",
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

	gormDB := dbClient.DB()
	flashSaleService, err := flashsale.NewService(flashsale.NewRepository(gormDB), products.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create flash sale service", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	schedulerService, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:    logg,
		Repo:      scheduler.NewRepository(gormDB),
		Campaigns: flashSaleService,
		Metrics:   jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler service", err)
		os.Exit(1)
	}
	defer schedulerService.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	if cfg.Scheduler.RecoverAtBoot {
		if err := schedulerService.Recover(ctx); err != nil {
			logg.Error(ctx, "failed to recover scheduled jobs", err)
			os.Exit(1)
		}
	}

	sweepJob, err := scheduler.NewSweepJob(scheduler.SweepJobParams{
		Logger:     logg,
		FlashSales: flashSaleService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sweep job", err)
		os.Exit(1)
	}

	lock, err := scheduler.NewRedisLock(redisClient, redisClient.LockKey("flash-sale-sweep"), cfg.Scheduler.SweepLockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create sweep lock", err)
		os.Exit(1)
	}

	runner, err := scheduler.NewRunner(scheduler.RunnerParams{
		Logger:   logg,
		Registry: scheduler.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Scheduler.SweepInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sweep runner", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting scheduler worker")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "scheduler worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "scheduler worker shutting down gracefully")
}
