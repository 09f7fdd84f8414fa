package catalog

import (
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProductDTO is the catalog entry returned to clients.
type ProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SKU       string    `json:"sku"`
	Unit      string    `json:"unit"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProductDTO maps the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:        product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		Unit:      product.Unit,
		Active:    product.Active,
		CreatedAt: product.CreatedAt.UTC(),
		UpdatedAt: product.UpdatedAt.UTC(),
	}
}
