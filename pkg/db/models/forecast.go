package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/pkg/enums"
)

// Forecast is a predicted production quantity, later scored against the actual output.
type Forecast struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID            `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_forecasts_product_date_model,priority:1"`
	Product           *Product             `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	TargetDate        time.Time            `gorm:"column:target_date;type:date;not null;uniqueIndex:uq_forecasts_product_date_model,priority:2;index:idx_forecasts_target_date"`
	PredictedQuantity decimal.Decimal      `gorm:"column:predicted_quantity;type:numeric(12,3);not null"`
	ModelVersion      string               `gorm:"column:model_version;not null;uniqueIndex:uq_forecasts_product_date_model,priority:3"`
	Status            enums.ForecastStatus `gorm:"column:status;type:forecast_status;not null;default:'pending'"`
	ActualQuantity    decimal.NullDecimal  `gorm:"column:actual_quantity;type:numeric(12,3)"`
	MAE               decimal.NullDecimal  `gorm:"column:mae;type:numeric(12,3)"`
	MAPE              decimal.NullDecimal  `gorm:"column:mape;type:numeric(19,6)"`
	ScoredAt          *time.Time           `gorm:"column:scored_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
}
