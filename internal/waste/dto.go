package waste

import (
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WasteDTO is a recorded waste event.
type WasteDTO struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	LotID     *uuid.UUID       `json:"lot_id,omitempty"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Unit      string           `json:"unit"`
	Cause     enums.WasteCause `json:"cause"`
	Evidence  string           `json:"evidence"`
	Notes     *string          `json:"notes,omitempty"`
	Date      string           `json:"date"`
	CreatedAt time.Time        `json:"created_at"`
}

// WasteListResult is one page of waste events.
type WasteListResult struct {
	Items      []WasteDTO `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func NewWasteDTO(event *models.WasteEvent) *WasteDTO {
	return &WasteDTO{
		ID:        event.ID,
		ProductID: event.ProductID,
		LotID:     event.LotID,
		Quantity:  event.Quantity,
		Unit:      event.Unit,
		Cause:     event.Cause,
		Evidence:  event.Evidence,
		Notes:     event.Notes,
		Date:      dates.Format(dates.Normalize(event.Date)),
		CreatedAt: event.CreatedAt.UTC(),
	}
}
