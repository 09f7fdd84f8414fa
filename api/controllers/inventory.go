package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bakeline-backend/api/responses"
	"github.com/angelmondragon/bakeline-backend/api/validators"
	"github.com/angelmondragon/bakeline-backend/internal/inventory"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
)

type setCountRequest struct {
	Count *int `json:"count" validate:"required"`
}

type setTargetRequest struct {
	Target *int `json:"target" validate:"required"`
}

// setBatchRequest carries one count per tier, e.g. {"counts":{"small":4,"medium":9,"large":1}}.
type setBatchRequest struct {
	Counts map[string]int `json:"counts" validate:"required,min=1"`
}

func parseTierParam(r *http.Request) (enums.SizeTier, error) {
	tier, err := enums.ParseSizeTier(chi.URLParam(r, "tier"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size tier").
			WithDetails(map[string]any{"allowed": enums.SizeTiers()})
	}
	return tier, nil
}

// SetOnHand overwrites the counted stock of one product tier.
func SetOnHand(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := parseTierParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setCountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.SetOnHand(r.Context(), productID, tier, *payload.Count)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// SetOnHandBatch applies a whole count sheet for one product atomically.
func SetOnHandBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		counts := make(map[enums.SizeTier]int, len(payload.Counts))
		for raw, count := range payload.Counts {
			tier, err := enums.ParseSizeTier(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size tier").
					WithDetails(map[string]any{"size_tier": raw, "allowed": enums.SizeTiers()}))
				return
			}
			counts[tier] = count
		}

		snapshots, err := svc.SetOnHandBatch(r.Context(), productID, counts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshots)
	}
}

// SetTarget configures the par level of one product tier.
func SetTarget(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := parseTierParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setTargetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.SetTarget(r.Context(), productID, tier, *payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}

// ParStatus reports on-hand against target for every active product, or one product.
func ParStatus(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.GetParStatus(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
