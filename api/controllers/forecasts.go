package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/api/validators"
	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
)

type recordForecastRequest struct {
	ProductID         string           `json:"product_id" validate:"required"`
	TargetDate        string           `json:"target_date" validate:"required"`
	PredictedQuantity *decimal.Decimal `json:"predicted_quantity" validate:"required"`
	ModelVersion      string           `json:"model_version" validate:"required,max=64"`
}

type scoreForecastRequest struct {
	ActualQuantity *decimal.Decimal `json:"actual_quantity" validate:"required"`
}

type scoreDateRequest struct {
	Date *string `json:"date,omitempty"`
}

func RecordForecast(svc forecasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordForecastRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := parseUUIDField("product_id", payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		targetDate, err := parseOptionalDayField("target_date", &payload.TargetDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		forecast, err := svc.RecordForecast(r.Context(), forecasts.RecordForecastInput{
			ProductID:         productID,
			TargetDate:        *targetDate,
			PredictedQuantity: *payload.PredictedQuantity,
			ModelVersion:      validators.SanitizeString(payload.ModelVersion, 64),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, forecast)
	}
}

func ScoreForecast(svc forecasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "forecastId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload scoreForecastRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		forecast, err := svc.ScoreForecast(r.Context(), id, *payload.ActualQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, forecast)
	}
}

// ScoreForecastDate scores every pending forecast of a day, by default yesterday in loc.
func ScoreForecastDate(svc forecasts.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload scoreDateRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		day, err := parseOptionalDayField("date", payload.Date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target := dates.Today(loc).AddDate(0, 0, -1)
		if day != nil {
			target = *day
		}

		scored, err := svc.ScoreDate(r.Context(), target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"date":   dates.Format(target),
			"scored": scored,
		})
	}
}

func GetForecast(svc forecasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "forecastId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		forecast, err := svc.GetForecast(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, forecast)
	}
}

func ListForecasts(svc forecasts.Service, limits pagination.Limits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.ForecastStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseForecastStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			status = &parsed
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r, limits)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForecasts(r.Context(), forecasts.ListForecastsInput{
			ProductID:    productID,
			ModelVersion: r.URL.Query().Get("model_version"),
			Status:       status,
			From:         from,
			To:           to,
			Pagination:   params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ForecastAccuracy(svc forecasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.Accuracy(r.Context(), forecasts.AccuracyInput{
			ModelVersion: r.URL.Query().Get("model_version"),
			From:         from,
			To:           to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
