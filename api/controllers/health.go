package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-Bakeline-Env"

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis. A nil redis pinger is reported
// as disabled rather than failing the probe.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger Pinger, redisPinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "disabled"}
		if dbPinger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not configured"))
			return
		}
		if err := dbPinger.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable").WithDetails(checks))
			return
		}
		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				checks["redis"] = "unavailable"
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").WithDetails(checks))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
