package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/api/validators"
	"github.com/angelmondragon/bakeline-backend/internal/waste"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
)

// Evidence emptiness is checked by the service.
type recordWasteRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	LotID     *string          `json:"lot_id,omitempty"`
	Quantity  *decimal.Decimal `json:"quantity" validate:"required"`
	Unit      string           `json:"unit,omitempty" validate:"max=32"`
	Cause     string           `json:"cause" validate:"required"`
	Evidence  string           `json:"evidence" validate:"max=1024"`
	Notes     *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Date      *string          `json:"date,omitempty"`
}

func (p recordWasteRequest) toInput() (waste.RecordWasteInput, error) {
	productID, err := parseUUIDField("product_id", p.ProductID)
	if err != nil {
		return waste.RecordWasteInput{}, err
	}
	lotID, err := parseOptionalUUIDField("lot_id", p.LotID)
	if err != nil {
		return waste.RecordWasteInput{}, err
	}
	day, err := parseOptionalDayField("date", p.Date)
	if err != nil {
		return waste.RecordWasteInput{}, err
	}
	return waste.RecordWasteInput{
		ProductID: productID,
		LotID:     lotID,
		Quantity:  *p.Quantity,
		Unit:      p.Unit,
		Cause:     enums.WasteCause(strings.ToLower(strings.TrimSpace(p.Cause))),
		Evidence:  p.Evidence,
		Notes:     p.Notes,
		Date:      day,
	}, nil
}

// RecordWaste appends a waste event. Evidence is mandatory.
func RecordWaste(svc waste.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordWasteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		event, err := svc.RecordWaste(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, event)
	}
}

func ListWaste(svc waste.Service, limits pagination.Limits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var cause *enums.WasteCause
		if raw := strings.TrimSpace(r.URL.Query().Get("cause")); raw != "" {
			parsed, err := enums.ParseWasteCause(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cause"))
				return
			}
			cause = &parsed
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

		result, err := svc.ListWaste(r.Context(), waste.ListWasteInput{
			ProductID:  productID,
			Cause:      cause,
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
