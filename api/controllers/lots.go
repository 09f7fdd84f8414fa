package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/api/validators"
	"github.com/angelmondragon/bakeline-backend/internal/lots"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
)

type recordLotRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"required"`
	Unit        string           `json:"unit,omitempty" validate:"max=32"`
	Date        *string          `json:"date,omitempty"`
	Responsible *string          `json:"responsible,omitempty" validate:"omitempty,max=120"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Evidence    []string         `json:"evidence,omitempty" validate:"max=20,dive,max=1024"`
}

func (p recordLotRequest) toInput() (lots.RecordLotInput, error) {
	productID, err := parseUUIDField("product_id", p.ProductID)
	if err != nil {
		return lots.RecordLotInput{}, err
	}
	day, err := parseOptionalDayField("date", p.Date)
	if err != nil {
		return lots.RecordLotInput{}, err
	}
	return lots.RecordLotInput{
		ProductID:   productID,
		Quantity:    *p.Quantity,
		Unit:        p.Unit,
		Date:        day,
		Responsible: p.Responsible,
		Notes:       p.Notes,
		Evidence:    p.Evidence,
	}, nil
}

// RecordLot appends a production lot.
func RecordLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload recordLotRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lot, err := svc.RecordLot(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, lot)
	}
}

func GetLot(svc lots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "lotId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lot, err := svc.GetLot(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lot)
	}
}

// ListLots pages lots by (date, id), filtered by product_id, from and to.
func ListLots(svc lots.Service, limits pagination.Limits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListLotsInput(r, limits)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListLots(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseListLotsInput(r *http.Request, limits pagination.Limits) (lots.ListLotsInput, error) {
	productID, err := validators.ParseQueryUUID(r, "product_id")
	if err != nil {
		return lots.ListLotsInput{}, err
	}
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return lots.ListLotsInput{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return lots.ListLotsInput{}, err
	}
	params, err := validators.ParsePagination(r, limits)
	if err != nil {
		return lots.ListLotsInput{}, err
	}
	return lots.ListLotsInput{ProductID: productID, From: from, To: to, Pagination: params}, nil
}
