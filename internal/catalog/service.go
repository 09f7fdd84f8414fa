package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/google/uuid"
)

// Service manages the product registry every ledger entry points at.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]ProductDTO, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
}

// CreateProductInput captures a new catalog entry.
type CreateProductInput struct {
	Name   string
	SKU    string
	Unit   string
	Active *bool
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	sku := strings.TrimSpace(input.SKU)
	unit := strings.TrimSpace(input.Unit)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}

	// SKUs stay unique across inactive products too.
	if _, err := s.repo.FindBySKU(ctx, sku); err == nil {
		return nil, skuConflict(sku)
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Storage(err, "db: find product by sku")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate product id")
	}
	now := time.Now().UTC()
	product := &models.Product{
		ID:        id,
		Name:      name,
		SKU:       sku,
		Unit:      unit,
		Active:    input.Active == nil || *input.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, skuConflict(sku)
		}
		return nil, pkgerrors.Storage(err, "db: insert product")
	}

	s.logg.Info(s.logg.WithEntity(ctx, "product", product.ID.String()), "product created")
	return NewProductDTO(product), nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, activeOnly bool) ([]ProductDTO, error) {
	products, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list products")
	}
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *NewProductDTO(&products[i]))
	}
	return out, nil
}

// DeactivateProduct is idempotent: deactivating an inactive product returns it unchanged.
func (s *service) DeactivateProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	found, err := s.repo.Deactivate(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: deactivate product")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	s.logg.Info(s.logg.WithEntity(ctx, "product", id.String()), "product deactivated")
	return s.GetProduct(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Storage(err, "db: load product")
	}
	return product, nil
}

func skuConflict(sku string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").
		WithDetails(map[string]any{"sku": sku})
}
