package decorations

import (
	"context"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for decoration events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockLot(ctx context.Context, lotID uuid.UUID) (*models.ProductionLot, error)
	SumFinished(ctx context.Context, lotID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, event *models.DecorationEvent) error
	List(ctx context.Context, query listQuery) ([]models.DecorationEvent, *pagination.Cursor, error)
}

type listQuery struct {
	LotID  *uuid.UUID
	Since  *time.Time
	Before *time.Time
	Cursor *pagination.Cursor
	Limit  int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a decoration repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockLot loads the lot with a row lock (SELECT ... FOR UPDATE) so concurrent decorations of
// the same lot are checked one at a time. Must run inside a transaction.
func (r *repository) LockLot(ctx context.Context, lotID uuid.UUID) (*models.ProductionLot, error) {
	var lot models.ProductionLot
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lot, "id = ?", lotID).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) SumFinished(ctx context.Context, lotID uuid.UUID) (decimal.Decimal, error) {
	var quantities []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&models.DecorationEvent{}).
		Where("lot_id = ?", lotID).
		Pluck("quantity_finished", &quantities).Error; err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, quantities...), nil
}

func (r *repository) Create(ctx context.Context, event *models.DecorationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// List returns one keyset page ordered by (created_at, id).
func (r *repository) List(ctx context.Context, query listQuery) ([]models.DecorationEvent, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Model(&models.DecorationEvent{})
	if query.LotID != nil {
		q = q.Where("lot_id = ?", *query.LotID)
	}
	if query.Since != nil {
		q = q.Where("created_at >= ?", *query.Since)
	}
	if query.Before != nil {
		q = q.Where("created_at < ?", *query.Before)
	}
	if query.Cursor != nil {
		q = q.Where("(created_at, id) > (?, ?)", query.Cursor.At, query.Cursor.ID)
	}

	var events []models.DecorationEvent
	if err := q.Order("created_at ASC, id ASC").Limit(query.Limit + 1).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	if len(events) > query.Limit {
		events = events[:query.Limit]
		last := events[len(events)-1]
		return events, &pagination.Cursor{At: last.CreatedAt, ID: last.ID}, nil
	}
	return events, nil, nil
}
