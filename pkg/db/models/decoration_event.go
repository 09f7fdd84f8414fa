package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/angelmondragon/bakeline-backend/pkg/db/types"
)

// DecorationEvent records finishing work applied to part of a lot.
type DecorationEvent struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	LotID            uuid.UUID          `gorm:"column:lot_id;type:uuid;not null;index:idx_decoration_events_lot"`
	Lot              *ProductionLot     `gorm:"foreignKey:LotID;constraint:OnDelete:RESTRICT"`
	Style            string             `gorm:"column:style;not null"`
	QuantityFinished decimal.Decimal    `gorm:"column:quantity_finished;type:numeric(12,3);not null"`
	Unit             string             `gorm:"column:unit;not null"`
	Evidence         dbtypes.StringList `gorm:"column:evidence;type:jsonb;not null;default:'[]'"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_decoration_events_created_at"`
}
