package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/api/validators"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
)

// DailySummary totals the ledgers for ?date, defaulting to today in loc.
func DailySummary(svc summary.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target := dates.Today(loc)
		if day != nil {
			target = *day
		}

		out, err := svc.Summarize(r.Context(), target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}
