package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/inventory"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
)

// seedFile is the catalog sheet a bakery starts from:
//
//	products:
//	  - name: Concha
//	    sku: CON-01
//	    unit: pieces
//	    targets: {small: 20, medium: 12, large: 6}
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Name    string         `yaml:"name"`
	SKU     string         `yaml:"sku"`
	Unit    string         `yaml:"unit"`
	Targets map[string]int `yaml:"targets"`
}

type skuFinder interface {
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
}

type seeder struct {
	products  skuFinder
	catalog   catalog.Service
	inventory inventory.Service
	logg      *logger.Logger
}

type seedResult struct {
	Created  int
	Existing int
	Targets  int
}

func decodeSeedFile(r io.Reader) (*seedFile, error) {
	var file seedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &file, nil
}

// apply creates missing products and sets their par targets. Existing SKUs are reused, so the
// seed can be run repeatedly. Failures are collected per product rather than aborting the run.
func (s *seeder) apply(ctx context.Context, file *seedFile) (seedResult, error) {
	var result seedResult
	var errs error
	for _, entry := range file.Products {
		id, created, err := s.ensureProduct(ctx, entry)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %q: %w", entry.SKU, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Existing++
		}

		for rawTier, target := range entry.Targets {
			tier, err := enums.ParseSizeTier(rawTier)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("product %q: %w", entry.SKU, err))
				continue
			}
			if _, err := s.inventory.SetTarget(ctx, id, tier, target); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("product %q tier %s: %w", entry.SKU, tier, err))
				continue
			}
			result.Targets++
		}
	}
	return result, errs
}

func (s *seeder) ensureProduct(ctx context.Context, entry seedProduct) (uuid.UUID, bool, error) {
	existing, err := s.products.FindBySKU(ctx, entry.SKU)
	if err == nil {
		s.logg.Info(s.logg.WithEntity(ctx, "product", existing.ID.String()), "product already seeded")
		return existing.ID, false, nil
	}
	if !db.IsNotFound(err) {
		return uuid.Nil, false, err
	}

	product, err := s.catalog.CreateProduct(ctx, catalog.CreateProductInput{
		Name: entry.Name,
		SKU:  entry.SKU,
		Unit: entry.Unit,
	})
	if err != nil {
		return uuid.Nil, false, err
	}
	return product.ID, true, nil
}
