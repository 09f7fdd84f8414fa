package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bakeline-backend/api/controllers"
	"github.com/angelmondragon/bakeline-backend/api/middleware"
	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/decorations"
	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/internal/inventory"
	"github.com/angelmondragon/bakeline-backend/internal/lots"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/internal/waste"
	"github.com/angelmondragon/bakeline-backend/pkg/config"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	pkgredis "github.com/angelmondragon/bakeline-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Catalog     catalog.Service
	Lots        lots.Service
	Decorations decorations.Service
	Waste       waste.Service
	Inventory   inventory.Service
	Summary     summary.Service
	Forecasts   forecasts.Service
}

// Deps is everything NewRouter needs. Redis may be nil, in which case idempotency replay is
// off and readiness reports redis as disabled.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       *pkgredis.Client
	Services    Services
	Location    *time.Location
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	svc := deps.Services
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	limits := pagination.Limits{
		Default: cfg.Pagination.DefaultLimit,
		Max:     cfg.Pagination.MaxLimit,
	}

	var redisPinger controllers.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if deps.Redis != nil {
		redisPinger = deps.Redis
		if cfg.FeatureFlags.Idempotency {
			idempotencyStore = deps.Redis
		}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if idempotencyStore != nil {
			r.Use(middleware.Idempotency(idempotencyStore, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svc.Catalog, logg))
			r.Post("/", controllers.CreateProduct(svc.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(svc.Catalog, logg))
			r.Post("/{productId}/deactivate", controllers.DeactivateProduct(svc.Catalog, logg))
		})

		r.Route("/lots", func(r chi.Router) {
			r.Get("/", controllers.ListLots(svc.Lots, limits, logg))
			r.Post("/", controllers.RecordLot(svc.Lots, logg))
			r.Get("/{lotId}", controllers.GetLot(svc.Lots, logg))
		})

		r.Route("/decorations", func(r chi.Router) {
			r.Get("/", controllers.ListDecorations(svc.Decorations, limits, logg))
			r.Post("/", controllers.RecordDecoration(svc.Decorations, logg))
		})

		r.Route("/waste", func(r chi.Router) {
			r.Get("/", controllers.ListWaste(svc.Waste, limits, logg))
			r.Post("/", controllers.RecordWaste(svc.Waste, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.ParStatus(svc.Inventory, logg))
			r.Put("/{productId}", controllers.SetOnHandBatch(svc.Inventory, logg))
			r.Put("/{productId}/{tier}", controllers.SetOnHand(svc.Inventory, logg))
			r.Put("/{productId}/{tier}/target", controllers.SetTarget(svc.Inventory, logg))
		})

		r.Get("/summary/daily", controllers.DailySummary(svc.Summary, loc, logg))

		r.Route("/forecasts", func(r chi.Router) {
			r.Get("/", controllers.ListForecasts(svc.Forecasts, limits, logg))
			r.Post("/", controllers.RecordForecast(svc.Forecasts, logg))
			r.Get("/accuracy", controllers.ForecastAccuracy(svc.Forecasts, logg))
			r.Post("/score-date", controllers.ScoreForecastDate(svc.Forecasts, loc, logg))
			r.Get("/{forecastId}", controllers.GetForecast(svc.Forecasts, logg))
			r.Post("/{forecastId}/score", controllers.ScoreForecast(svc.Forecasts, logg))
		})
	})

	return r
}
