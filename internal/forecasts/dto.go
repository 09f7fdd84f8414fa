package forecasts

import (
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ForecastDTO is a forecast with its score once scored.
type ForecastDTO struct {
	ID                uuid.UUID            `json:"id"`
	ProductID         uuid.UUID            `json:"product_id"`
	TargetDate        string               `json:"target_date"`
	PredictedQuantity decimal.Decimal      `json:"predicted_quantity"`
	ModelVersion      string               `json:"model_version"`
	Status            enums.ForecastStatus `json:"status"`
	ActualQuantity    *decimal.Decimal     `json:"actual_quantity"`
	MAE               *decimal.Decimal     `json:"mae"`
	MAPE              *decimal.Decimal     `json:"mape"`
	ScoredAt          *time.Time           `json:"scored_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ForecastListResult is one page of forecasts.
type ForecastListResult struct {
	Items      []ForecastDTO `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// AccuracyReport aggregates scored forecasts. MeanMAPE is nil when no scored forecast had a
// non-zero actual.
type AccuracyReport struct {
	ModelVersion string           `json:"model_version,omitempty"`
	From         string           `json:"from,omitempty"`
	To           string           `json:"to,omitempty"`
	Scored       int              `json:"scored"`
	MeanMAE      *decimal.Decimal `json:"mean_mae"`
	MeanMAPE     *decimal.Decimal `json:"mean_mape"`
}

// NewForecastDTO maps the persisted model.
func NewForecastDTO(f *models.Forecast) *ForecastDTO {
	dto := &ForecastDTO{
		ID:                f.ID,
		ProductID:         f.ProductID,
		TargetDate:        dates.Format(dates.Normalize(f.TargetDate)),
		PredictedQuantity: f.PredictedQuantity,
		ModelVersion:      f.ModelVersion,
		Status:            f.Status,
		ActualQuantity:    nullable(f.ActualQuantity),
		MAE:               nullable(f.MAE),
		MAPE:              nullable(f.MAPE),
		CreatedAt:         f.CreatedAt.UTC(),
	}
	if f.ScoredAt != nil {
		scored := f.ScoredAt.UTC()
		dto.ScoredAt = &scored
	}
	return dto
}

func nullable(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	v := value.Decimal
	return &v
}
