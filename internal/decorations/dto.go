package decorations

import (
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecorationDTO is a recorded decoration event.
type DecorationDTO struct {
	ID               uuid.UUID       `json:"id"`
	LotID            uuid.UUID       `json:"lot_id"`
	Style            string          `json:"style"`
	QuantityFinished decimal.Decimal `json:"quantity_finished"`
	Unit             string          `json:"unit"`
	Evidence         []string        `json:"evidence"`
	CreatedAt        time.Time       `json:"created_at"`
}

// DecorationListResult is one page of decoration events.
type DecorationListResult struct {
	Items      []DecorationDTO `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func NewDecorationDTO(event *models.DecorationEvent) *DecorationDTO {
	return &DecorationDTO{
		ID:               event.ID,
		LotID:            event.LotID,
		Style:            event.Style,
		QuantityFinished: event.QuantityFinished,
		Unit:             event.Unit,
		Evidence:         append([]string{}, event.Evidence...),
		CreatedAt:        event.CreatedAt.UTC(),
	}
}
