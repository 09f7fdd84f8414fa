package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry referenced by every ledger. Products are deactivated, never deleted.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	SKU       string    `gorm:"column:sku;not null;uniqueIndex:uq_products_sku"`
	Unit      string    `gorm:"column:unit;not null"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
