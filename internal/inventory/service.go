package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	"github.com/angelmondragon/bakeline-backend/pkg/quantity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const entityName = "inventory_snapshot"

// Service reconciles on-hand counts against par levels.
type Service interface {
	SetOnHand(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, count int) (*SnapshotDTO, error)
	SetOnHandBatch(ctx context.Context, productID uuid.UUID, counts map[enums.SizeTier]int) ([]SnapshotDTO, error)
	SetTarget(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, target int) (*SnapshotDTO, error)
	GetParStatus(ctx context.Context, productID *uuid.UUID) ([]SnapshotDTO, error)
}

type productSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, activeOnly bool) ([]models.Product, error)
}

type service struct {
	repo     Repository
	products productSource
	dbClient *db.Client
	logg     *logger.Logger
	metrics  *metrics.LedgerMetrics
}

// NewService wires the reconciler. ledgerMetrics may be nil.
func NewService(repo Repository, products productSource, dbClient *db.Client, logg *logger.Logger, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, dbClient: dbClient, logg: logg, metrics: ledgerMetrics}, nil
}

func (s *service) SetOnHand(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, count int) (*SnapshotDTO, error) {
	if err := quantity.Count("count", count); err != nil {
		return nil, s.reject(err)
	}
	return s.write(ctx, productID, tier, func(repo Repository, at time.Time) error {
		return repo.UpsertOnHand(ctx, productID, tier, count, at)
	})
}

func (s *service) SetTarget(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, target int) (*SnapshotDTO, error) {
	if err := quantity.Count("target", target); err != nil {
		return nil, s.reject(err)
	}
	return s.write(ctx, productID, tier, func(repo Repository, at time.Time) error {
		return repo.UpsertTarget(ctx, productID, tier, target, at)
	})
}

// SetOnHandBatch applies a full count sheet for one product in a single transaction: either
// every tier is written or none is.
func (s *service) SetOnHandBatch(ctx context.Context, productID uuid.UUID, counts map[enums.SizeTier]int) ([]SnapshotDTO, error) {
	if len(counts) == 0 {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeValidation, "at least one tier count is required"))
	}
	tiers := make([]enums.SizeTier, 0, len(counts))
	for tier, count := range counts {
		if !tier.IsValid() {
			return nil, s.reject(invalidTier(tier))
		}
		if err := quantity.Count("count", count); err != nil {
			return nil, s.reject(err)
		}
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Rank() < tiers[j].Rank() })

	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, s.reject(err)
	}

	at := time.Now().UTC()
	out := make([]SnapshotDTO, 0, len(tiers))
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, tier := range tiers {
			if err := txRepo.UpsertOnHand(ctx, product.ID, tier, counts[tier], at); err != nil {
				return pkgerrors.Storage(err, "db: upsert on hand")
			}
			row, err := txRepo.Get(ctx, product.ID, tier)
			if err != nil {
				return pkgerrors.Storage(err, "db: load inventory snapshot")
			}
			out = append(out, newSnapshotDTO(product, tier, row))
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Storage(err, "set on hand batch")
		}
		return nil, s.reject(err)
	}
	for range out {
		s.metrics.IncWrite(entityName)
	}
	s.logg.Info(s.logg.WithEntity(ctx, entityName, product.ID.String()), "on hand counts submitted")
	return out, nil
}

// GetParStatus returns one entry per (product, tier), ordered by product name then tier.
// Without a product filter only active products are reported. Tiers never written report zeros.
func (s *service) GetParStatus(ctx context.Context, productID *uuid.UUID) ([]SnapshotDTO, error) {
	var products []models.Product
	if productID != nil {
		product, err := s.products.FindByID(ctx, *productID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Storage(err, "db: load product")
		}
		products = []models.Product{*product}
	} else {
		listed, err := s.products.List(ctx, true)
		if err != nil {
			return nil, pkgerrors.Storage(err, "db: list products")
		}
		products = listed
	}

	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	rows, err := s.repo.ListByProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list inventory snapshots")
	}

	type key struct {
		product uuid.UUID
		tier    enums.SizeTier
	}
	byKey := make(map[key]*models.InventorySnapshot, len(rows))
	for i := range rows {
		byKey[key{rows[i].ProductID, rows[i].SizeTier}] = &rows[i]
	}

	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Name != products[j].Name {
			return products[i].Name < products[j].Name
		}
		return products[i].ID.String() < products[j].ID.String()
	})

	tiers := enums.SizeTiers()
	out := make([]SnapshotDTO, 0, len(products)*len(tiers))
	for i := range products {
		for _, tier := range tiers {
			out = append(out, newSnapshotDTO(&products[i], tier, byKey[key{products[i].ID, tier}]))
		}
	}
	return out, nil
}

func (s *service) write(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, apply func(Repository, time.Time) error) (*SnapshotDTO, error) {
	if !tier.IsValid() {
		return nil, s.reject(invalidTier(tier))
	}
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, s.reject(err)
	}

	// The snapshot is read back inside the upsert's transaction, so it reflects this write even
	// when another station submits the same tier concurrently.
	var row *models.InventorySnapshot
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := apply(txRepo, time.Now().UTC()); err != nil {
			return pkgerrors.Storage(err, "db: upsert inventory snapshot")
		}
		loaded, err := txRepo.Get(ctx, product.ID, tier)
		if err != nil {
			return pkgerrors.Storage(err, "db: load inventory snapshot")
		}
		row = loaded
		return nil
	}); err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Storage(err, "db: write inventory snapshot")
		}
		return nil, s.reject(err)
	}
	dto := newSnapshotDTO(product, tier, row)
	s.metrics.IncWrite(entityName)
	ctx = s.logg.WithEntity(ctx, entityName, product.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "size_tier", tier.String()), "inventory snapshot updated")
	return &dto, nil
}

func (s *service) activeProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id does not reference a known product")
		}
		return nil, pkgerrors.Storage(err, "db: load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is inactive")
	}
	return product, nil
}

func (s *service) reject(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejection(entityName, string(typed.Code()))
	}
	return err
}

func invalidTier(tier enums.SizeTier) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "size_tier is not a known tier").
		WithDetails(map[string]any{"size_tier": string(tier), "allowed": enums.SizeTiers()})
}
