package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/api/validators"
	"github.com/angelmondragon/bakeline-backend/internal/decorations"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
)

type recordDecorationRequest struct {
	LotID            string           `json:"lot_id" validate:"required"`
	Style            string           `json:"style" validate:"required,max=120"`
	QuantityFinished *decimal.Decimal `json:"quantity_finished" validate:"required"`
	Unit             string           `json:"unit,omitempty" validate:"max=32"`
	Evidence         []string         `json:"evidence,omitempty" validate:"max=20,dive,max=1024"`
}

// RecordDecoration appends a decoration event. Finishing more than the lot produced is rejected.
func RecordDecoration(svc decorations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordDecorationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lotID, err := parseUUIDField("lot_id", payload.LotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.RecordDecoration(r.Context(), decorations.RecordDecorationInput{
			LotID:            lotID,
			Style:            validators.SanitizeString(payload.Style, 120),
			QuantityFinished: *payload.QuantityFinished,
			Unit:             payload.Unit,
			Evidence:         payload.Evidence,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, event)
	}
}

func ListDecorations(svc decorations.Service, limits pagination.Limits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lotID, err := validators.ParseQueryUUID(r, "lot_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
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

		result, err := svc.ListDecorations(r.Context(), decorations.ListDecorationsInput{
			LotID:      lotID,
			From:       from,
			To:         to,
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
