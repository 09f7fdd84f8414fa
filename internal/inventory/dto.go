package inventory

import (
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/google/uuid"
)

// SnapshotDTO is the par status of one product tier. ToReplenish is always derived.
type SnapshotDTO struct {
	ProductID   uuid.UUID      `json:"product_id"`
	ProductName string         `json:"product_name,omitempty"`
	SizeTier    enums.SizeTier `json:"size_tier"`
	OnHand      int            `json:"on_hand"`
	Target      int            `json:"target"`
	ToReplenish int            `json:"to_replenish"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
}

// ToReplenish is max(target - onHand, 0).
func ToReplenish(target, onHand int) int {
	if diff := target - onHand; diff > 0 {
		return diff
	}
	return 0
}

func newSnapshotDTO(product *models.Product, tier enums.SizeTier, row *models.InventorySnapshot) SnapshotDTO {
	dto := SnapshotDTO{
		ProductID:   product.ID,
		ProductName: product.Name,
		SizeTier:    tier,
	}
	if row != nil {
		updated := row.UpdatedAt.UTC()
		dto.OnHand = row.OnHand
		dto.Target = row.Target
		dto.UpdatedAt = &updated
	}
	dto.ToReplenish = ToReplenish(dto.Target, dto.OnHand)
	return dto
}
