package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakeline-backend/pkg/enums"
)

// InventorySnapshot tracks on-hand and par target counts per product and size tier.
type InventorySnapshot struct {
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;primaryKey"`
	SizeTier  enums.SizeTier `gorm:"column:size_tier;type:size_tier;primaryKey"`
	OnHand    int            `gorm:"column:on_hand;not null;default:0"`
	Target    int            `gorm:"column:target;not null;default:0"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
