package summary

import (
	"context"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository reads ledger totals for one day. Totals are summed as decimals in Go so both
// engines produce the exact same figure.
type Repository interface {
	SumProduced(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	SumDecorated(ctx context.Context, since, before time.Time) (decimal.Decimal, error)
	SumWasted(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a summary repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SumProduced(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, &models.ProductionLot{}, "quantity", "date >= ? AND date < ?", start, end)
}

// SumDecorated totals decorations by creation instant; decorations carry no business date.
func (r *repository) SumDecorated(ctx context.Context, since, before time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, &models.DecorationEvent{}, "quantity_finished", "created_at >= ? AND created_at < ?", since, before)
}

func (r *repository) SumWasted(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, &models.WasteEvent{}, "quantity", "date >= ? AND date < ?", start, end)
}

func (r *repository) sum(ctx context.Context, model any, column, where string, args ...any) (decimal.Decimal, error) {
	var quantities []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(model).
		Where(where, args...).
		Pluck(column, &quantities).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, quantities...), nil
}
