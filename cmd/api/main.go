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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/bakeline-backend/api/routes"
	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/decorations"
	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/internal/inventory"
	"github.com/angelmondragon/bakeline-backend/internal/lots"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/internal/waste"
	"github.com/angelmondragon/bakeline-backend/pkg/config"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	"github.com/angelmondragon/bakeline-backend/pkg/migrate"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/angelmondragon/bakeline-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; summary cache and idempotency replay disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ledgerMetrics := metrics.NewLedgerMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	services, err := buildServices(cfg, logg, loc, dbClient, redisClient, ledgerMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"timezone": loc.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Services:    services,
			Location:    loc,
			HTTPMetrics: httpMetrics,
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	if err := closeAll(dbClient, redisClient); err != nil {
		logg.Error(ctx, "error closing resources", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	loc *time.Location,
	dbClient *db.Client,
	redisClient *redis.Client,
	ledgerMetrics *metrics.LedgerMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()
	limits := pagination.Limits{
		Default: cfg.Pagination.DefaultLimit,
		Max:     cfg.Pagination.MaxLimit,
	}

	summaryOpts := summary.Options{
		CacheTTL: cfg.Summary.CacheTTL,
		Location: loc,
		Metrics:  ledgerMetrics,
	}
	if redisClient != nil && cfg.FeatureFlags.SummaryCache {
		summaryOpts.Cache = redisClient
	}

	productRepo := catalog.NewRepository(conn)
	catalogService, err := catalog.NewService(productRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	summaryService, err := summary.NewService(summary.NewRepository(conn), logg, summaryOpts)
	if err != nil {
		return routes.Services{}, err
	}
	lotService, err := lots.NewService(lots.NewRepository(conn), productRepo, summaryService, loc, limits, logg, ledgerMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	decorationService, err := decorations.NewService(decorations.NewRepository(conn), dbClient, summaryService, loc, limits, logg, ledgerMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	wasteService, err := waste.NewService(waste.NewRepository(conn), productRepo, summaryService, loc, limits, logg, ledgerMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), productRepo, dbClient, logg, ledgerMetrics)
	if err != nil {
		return routes.Services{}, err
	}
	forecastService, err := forecasts.NewService(forecasts.NewRepository(conn), productRepo, lotService, limits, logg, ledgerMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Catalog:     catalogService,
		Lots:        lotService,
		Decorations: decorationService,
		Waste:       wasteService,
		Inventory:   inventoryService,
		Summary:     summaryService,
		Forecasts:   forecastService,
	}, nil
}

func closeAll(dbClient *db.Client, redisClient *redis.Client) error {
	var err error
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	return multierr.Append(err, dbClient.Close())
}
