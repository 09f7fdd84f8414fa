package lots

import (
	"context"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for production lots. Lots are append-only: there is no
// update or delete.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, lot *models.ProductionLot) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ProductionLot, error)
	List(ctx context.Context, query listQuery) ([]models.ProductionLot, *pagination.Cursor, error)
	SumQuantity(ctx context.Context, productID uuid.UUID, day time.Time) (decimal.Decimal, int, error)
}

type listQuery struct {
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Cursor    *pagination.Cursor
	Limit     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a lot repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, lot *models.ProductionLot) error {
	return r.db.WithContext(ctx).Create(lot).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductionLot, error) {
	var lot models.ProductionLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

// List returns one keyset page ordered by (date, id). The returned cursor is the last row of
// the page and is nil when no rows remain.
func (r *repository) List(ctx context.Context, query listQuery) ([]models.ProductionLot, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Model(&models.ProductionLot{})
	if query.ProductID != nil {
		q = q.Where("product_id = ?", *query.ProductID)
	}
	if query.From != nil {
		q = q.Where("date >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("date <= ?", *query.To)
	}
	if query.Cursor != nil {
		q = q.Where("(date, id) > (?, ?)", query.Cursor.At, query.Cursor.ID)
	}

	var lots []models.ProductionLot
	if err := q.Order("date ASC, id ASC").Limit(query.Limit + 1).Find(&lots).Error; err != nil {
		return nil, nil, err
	}

	if len(lots) > query.Limit {
		lots = lots[:query.Limit]
		last := lots[len(lots)-1]
		return lots, &pagination.Cursor{At: last.Date, ID: last.ID}, nil
	}
	return lots, nil, nil
}

// SumQuantity totals the production of one product on one day along with the number of lots.
func (r *repository) SumQuantity(ctx context.Context, productID uuid.UUID, day time.Time) (decimal.Decimal, int, error) {
	start, end := dates.Range(day)
	var quantities []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.ProductionLot{}).
		Where("product_id = ? AND date >= ? AND date < ?", productID, start, end).
		Pluck("quantity", &quantities).Error; err != nil {
		return decimal.Zero, 0, err
	}
	return decimal.Sum(decimal.Zero, quantities...), len(quantities), nil
}
