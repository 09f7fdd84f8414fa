package forecasts

import (
	"context"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for forecasts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, forecast *models.Forecast) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Forecast, error)
	FindByKey(ctx context.Context, productID uuid.UUID, targetDate time.Time, modelVersion string) (*models.Forecast, error)
	MarkScored(ctx context.Context, id uuid.UUID, score score) (int64, error)
	List(ctx context.Context, query listQuery) ([]models.Forecast, *pagination.Cursor, error)
	ListPending(ctx context.Context, targetDate time.Time) ([]models.Forecast, error)
	ListScored(ctx context.Context, modelVersion string, from, to *time.Time) ([]models.Forecast, error)
}

type score struct {
	Actual   decimal.Decimal
	MAE      decimal.Decimal
	MAPE     decimal.NullDecimal
	ScoredAt time.Time
}

type listQuery struct {
	ProductID    *uuid.UUID
	ModelVersion string
	Status       *enums.ForecastStatus
	From         *time.Time
	To           *time.Time
	Cursor       *pagination.Cursor
	Limit        int
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a forecast repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, forecast *models.Forecast) error {
	return r.db.WithContext(ctx).Create(forecast).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Forecast, error) {
	var forecast models.Forecast
	if err := r.db.WithContext(ctx).First(&forecast, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &forecast, nil
}

func (r *repository) FindByKey(ctx context.Context, productID uuid.UUID, targetDate time.Time, modelVersion string) (*models.Forecast, error) {
	var forecast models.Forecast
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND target_date = ? AND model_version = ?", productID, targetDate, modelVersion).
		First(&forecast).Error; err != nil {
		return nil, err
	}
	return &forecast, nil
}

// MarkScored moves a pending forecast to scored. It reports how many rows changed, which is
// zero when the forecast is unknown or was already scored.
func (r *repository) MarkScored(ctx context.Context, id uuid.UUID, s score) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Forecast{}).
		Where("id = ? AND status = ?", id, enums.ForecastStatusPending).
		Updates(map[string]any{
			"status":          enums.ForecastStatusScored,
			"actual_quantity": decimal.NewNullDecimal(s.Actual),
			"mae":             decimal.NewNullDecimal(s.MAE),
			"mape":            s.MAPE,
			"scored_at":       s.ScoredAt,
		})
	return res.RowsAffected, res.Error
}

// List returns one keyset page ordered by (target_date, id).
func (r *repository) List(ctx context.Context, query listQuery) ([]models.Forecast, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Model(&models.Forecast{})
	if query.ProductID != nil {
		q = q.Where("product_id = ?", *query.ProductID)
	}
	if query.ModelVersion != "" {
		q = q.Where("model_version = ?", query.ModelVersion)
	}
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.From != nil {
		q = q.Where("target_date >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("target_date <= ?", *query.To)
	}
	if query.Cursor != nil {
		q = q.Where("(target_date, id) > (?, ?)", query.Cursor.At, query.Cursor.ID)
	}

	var rows []models.Forecast
	if err := q.Order("target_date ASC, id ASC").Limit(query.Limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > query.Limit {
		rows = rows[:query.Limit]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{At: last.TargetDate, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) ListPending(ctx context.Context, targetDate time.Time) ([]models.Forecast, error) {
	var rows []models.Forecast
	if err := r.db.WithContext(ctx).
		Where("target_date = ? AND status = ?", targetDate, enums.ForecastStatusPending).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListScored(ctx context.Context, modelVersion string, from, to *time.Time) ([]models.Forecast, error) {
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.ForecastStatusScored)
	if modelVersion != "" {
		q = q.Where("model_version = ?", modelVersion)
	}
	if from != nil {
		q = q.Where("target_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("target_date <= ?", *to)
	}
	var rows []models.Forecast
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
