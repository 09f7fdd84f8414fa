package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/bakeline-backend/pkg/db/types"
)

// ProductionLot is an immutable batch of one product produced on a given day.
type ProductionLot struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_production_lots_product_date,priority:1"`
	Product     *Product           `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	Quantity    decimal.Decimal    `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit        string             `gorm:"column:unit;not null"`
	Date        time.Time          `gorm:"column:date;type:date;not null;index:idx_production_lots_date;index:idx_production_lots_product_date,priority:2"`
	Responsible *string            `gorm:"column:responsible"`
	Notes       *string            `gorm:"column:notes"`
	Evidence    dbtypes.StringList `gorm:"column:evidence;type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
