package waste

import (
	"context"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository manages persistence for waste events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindLot(ctx context.Context, lotID uuid.UUID) (*models.ProductionLot, error)
	Create(ctx context.Context, event *models.WasteEvent) error
	List(ctx context.Context, query listQuery) ([]models.WasteEvent, *pagination.Cursor, error)
}

type listQuery struct {
	ProductID *uuid.UUID
	Cause     *enums.WasteCause
	From      *time.Time
	To        *time.Time
	Cursor    *pagination.Cursor
	Limit     int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a waste repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindLot(ctx context.Context, lotID uuid.UUID) (*models.ProductionLot, error) {
	var lot models.ProductionLot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", lotID).Error; err != nil {
		return nil, err
	}
	return &lot, nil
}

func (r *repository) Create(ctx context.Context, event *models.WasteEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) List(ctx context.Context, query listQuery) ([]models.WasteEvent, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Model(&models.WasteEvent{})
	if query.ProductID != nil {
		q = q.Where("product_id = ?", *query.ProductID)
	}
	if query.Cause != nil {
		q = q.Where("cause = ?", *query.Cause)
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

	var events []models.WasteEvent
	if err := q.Order("date ASC, id ASC").Limit(query.Limit + 1).Find(&events).Error; err != nil {
		return nil, nil, err
	}

	if len(events) > query.Limit {
		events = events[:query.Limit]
		last := events[len(events)-1]
		return events, &pagination.Cursor{At: last.Date, ID: last.ID}, nil
	}
	return events, nil, nil
}
