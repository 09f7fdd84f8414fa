package inventory

import (
	"context"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists per-tier inventory snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertOnHand(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, onHand int, at time.Time) error
	UpsertTarget(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, target int, at time.Time) error
	Get(ctx context.Context, productID uuid.UUID, tier enums.SizeTier) (*models.InventorySnapshot, error)
	ListByProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.InventorySnapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertOnHand writes on_hand in a single INSERT ... ON CONFLICT statement, so two concurrent
// submissions for the same tier resolve to exactly one of them. target is left untouched.
func (r *repository) UpsertOnHand(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, onHand int, at time.Time) error {
	row := models.InventorySnapshot{ProductID: productID, SizeTier: tier, OnHand: onHand, UpdatedAt: at}
	return r.upsert(ctx, &row, "on_hand")
}

// UpsertTarget writes the par level, leaving on_hand untouched.
func (r *repository) UpsertTarget(ctx context.Context, productID uuid.UUID, tier enums.SizeTier, target int, at time.Time) error {
	row := models.InventorySnapshot{ProductID: productID, SizeTier: tier, Target: target, UpdatedAt: at}
	return r.upsert(ctx, &row, "target")
}

func (r *repository) upsert(ctx context.Context, row *models.InventorySnapshot, column string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "size_tier"}},
			DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
		}).
		Create(row).Error
}

func (r *repository) Get(ctx context.Context, productID uuid.UUID, tier enums.SizeTier) (*models.InventorySnapshot, error) {
	var row models.InventorySnapshot
	if err := r.db.WithContext(ctx).
		First(&row, "product_id = ? AND size_tier = ?", productID, tier).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByProducts(ctx context.Context, productIDs []uuid.UUID) ([]models.InventorySnapshot, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.InventorySnapshot
	if err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
