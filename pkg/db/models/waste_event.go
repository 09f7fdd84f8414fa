package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/pkg/enums"
)

// WasteEvent records lost output. Evidence is an opaque reference produced by the upload service.
type WasteEvent struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index:idx_waste_events_product_date,priority:1"`
	Product   *Product         `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	LotID     *uuid.UUID       `gorm:"column:lot_id;type:uuid"`
	Lot       *ProductionLot   `gorm:"foreignKey:LotID;constraint:OnDelete:RESTRICT"`
	Quantity  decimal.Decimal  `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit      string           `gorm:"column:unit;not null"`
	Cause     enums.WasteCause `gorm:"column:cause;type:waste_cause;not null"`
	Evidence  string           `gorm:"column:evidence;not null"`
	Notes     *string          `gorm:"column:notes"`
	Date      time.Time        `gorm:"column:date;type:date;not null;index:idx_waste_events_date;index:idx_waste_events_product_date,priority:2"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
}
