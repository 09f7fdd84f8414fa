package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/cron"
	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/internal/lots"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/pkg/config"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	"github.com/angelmondragon/bakeline-backend/pkg/migrate"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/angelmondragon/bakeline-backend/pkg/redis"
)

const lockKeyFormat = "bk:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to resolve business timezone", err)
		os.Exit(1)
	}

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

	var redisClient *redis.Client
	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Scheduler.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create scheduler lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	registry, err := buildRegistry(cfg, logg, loc, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Scheduler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Scheduler.Interval.String(),
		"jobs":     registry.Names(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildRegistry wires the forecast scorer always and the summary warmer only when the summary
// cache is on, since warming without a cache does nothing.
func buildRegistry(cfg *config.Config, logg *logger.Logger, loc *time.Location, dbClient *db.Client, redisClient *redis.Client) (*cron.Registry, error) {
	conn := dbClient.DB()
	limits := pagination.Limits{Default: cfg.Pagination.DefaultLimit, Max: cfg.Pagination.MaxLimit}
	ledgerMetrics := metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)

	summaryOpts := summary.Options{CacheTTL: cfg.Summary.CacheTTL, Location: loc, Metrics: ledgerMetrics}
	cacheOn := redisClient != nil && cfg.FeatureFlags.SummaryCache
	if cacheOn {
		summaryOpts.Cache = redisClient
	}
	summaryService, err := summary.NewService(summary.NewRepository(conn), logg, summaryOpts)
	if err != nil {
		return nil, err
	}

	productRepo := catalog.NewRepository(conn)
	lotService, err := lots.NewService(lots.NewRepository(conn), productRepo, summaryService, loc, limits, logg, ledgerMetrics)
	if err != nil {
		return nil, err
	}
	forecastService, err := forecasts.NewService(forecasts.NewRepository(conn), productRepo, lotService, limits, logg, ledgerMetrics)
	if err != nil {
		return nil, err
	}

	scoring, err := cron.NewForecastScoringJob(cron.ForecastScoringJobParams{
		Forecasts: forecastService,
		Logger:    logg,
		Location:  loc,
		Lookback:  cfg.Scheduler.ScoringLookback,
	})
	if err != nil {
		return nil, err
	}
	registry := cron.NewRegistry(scoring)

	if cacheOn {
		warm, err := cron.NewSummaryWarmJob(summaryService, loc, nil)
		if err != nil {
			return nil, err
		}
		registry.Register(warm)
	}
	return registry, nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
