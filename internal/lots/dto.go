package lots

import (
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotDTO is a recorded production lot.
type LotDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Date        string          `json:"date"`
	Responsible *string         `json:"responsible,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Evidence    []string        `json:"evidence"`
	CreatedAt   time.Time       `json:"created_at"`
}

// LotListResult is one page of lots.
type LotListResult struct {
	Items      []LotDTO `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// NewLotDTO maps the persisted model.
func NewLotDTO(lot *models.ProductionLot) *LotDTO {
	evidence := append([]string{}, lot.Evidence...)
	return &LotDTO{
		ID:          lot.ID,
		ProductID:   lot.ProductID,
		Quantity:    lot.Quantity,
		Unit:        lot.Unit,
		Date:        dates.Format(dates.Normalize(lot.Date)),
		Responsible: lot.Responsible,
		Notes:       lot.Notes,
		Evidence:    evidence,
		CreatedAt:   lot.CreatedAt.UTC(),
	}
}
