package lots

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/bakeline-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/angelmondragon/bakeline-backend/pkg/quantity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const entityName = "production_lot"

// Service records and reads production lots.
type Service interface {
	RecordLot(ctx context.Context, input RecordLotInput) (*LotDTO, error)
	GetLot(ctx context.Context, id uuid.UUID) (*LotDTO, error)
	ListLots(ctx context.Context, input ListLotsInput) (*LotListResult, error)
	ProducedQuantity(ctx context.Context, productID uuid.UUID, day time.Time) (decimal.Decimal, bool, error)
}

// RecordLotInput captures a production batch. Unit defaults to the product's unit and Date
// to today in the business timezone.
type RecordLotInput struct {
	ProductID   uuid.UUID
	Quantity    decimal.Decimal
	Unit        string
	Date        *time.Time
	Responsible *string
	Notes       *string
	Evidence    []string
}

// ListLotsInput filters the lot sequence. From and To are inclusive days.
type ListLotsInput struct {
	ProductID  *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// DayInvalidator is told about every write so a cached daily summary for that day is dropped.
type DayInvalidator interface {
	InvalidateDay(ctx context.Context, day time.Time)
}

type service struct {
	repo        Repository
	products    productFinder
	invalidator DayInvalidator
	loc         *time.Location
	limits      pagination.Limits
	logg        *logger.Logger
	metrics     *metrics.LedgerMetrics
}

// NewService wires the lot ledger. invalidator and ledgerMetrics may be nil.
func NewService(repo Repository, products productFinder, invalidator DayInvalidator, loc *time.Location, limits pagination.Limits, logg *logger.Logger, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lot repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:        repo,
		products:    products,
		invalidator: invalidator,
		loc:         loc,
		limits:      limits,
		logg:        logg,
		metrics:     ledgerMetrics,
	}, nil
}

func (s *service) RecordLot(ctx context.Context, input RecordLotInput) (*LotDTO, error) {
	lot, err := s.recordLot(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection(entityName, string(typed.Code()))
		}
		return nil, err
	}
	s.metrics.IncWrite(entityName)
	if s.invalidator != nil {
		s.invalidator.InvalidateDay(ctx, lot.Date)
	}
	s.logg.Info(s.logg.WithEntity(ctx, entityName, lot.ID.String()), "production lot recorded")
	return NewLotDTO(lot), nil
}

func (s *service) recordLot(ctx context.Context, input RecordLotInput) (*models.ProductionLot, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if err := quantity.Positive("quantity", input.Quantity); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id does not reference a known product")
		}
		return nil, pkgerrors.Storage(err, "db: load product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is inactive")
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = product.Unit
	}
	day := dates.Today(s.loc)
	if input.Date != nil {
		day = dates.Normalize(*input.Date)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate lot id")
	}
	lot := &models.ProductionLot{
		ID:          id,
		ProductID:   product.ID,
		Quantity:    input.Quantity,
		Unit:        unit,
		Date:        day,
		Responsible: trimOptional(input.Responsible),
		Notes:       trimOptional(input.Notes),
		Evidence:    dbtypes.StringList(input.Evidence).Compact(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, lot); err != nil {
		return nil, pkgerrors.Storage(err, "db: insert production lot")
	}
	return lot, nil
}

func (s *service) GetLot(ctx context.Context, id uuid.UUID) (*LotDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot id is required")
	}
	lot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lot not found")
		}
		return nil, pkgerrors.Storage(err, "db: load lot")
	}
	return NewLotDTO(lot), nil
}

func (s *service) ListLots(ctx context.Context, input ListLotsInput) (*LotListResult, error) {
	query := listQuery{
		ProductID: input.ProductID,
		Limit:     s.limits.Normalize(input.Pagination.Limit),
	}
	if input.From != nil {
		from := dates.Normalize(*input.From)
		query.From = &from
	}
	if input.To != nil {
		to := dates.Normalize(*input.To)
		query.To = &to
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	if input.Pagination.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list lots")
	}

	result := &LotListResult{Items: make([]LotDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, *NewLotDTO(&rows[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// ProducedQuantity is the total produced for a product on a day, the actual that forecasts
// are scored against. recorded is false when no lot exists for that product and day.
func (s *service) ProducedQuantity(ctx context.Context, productID uuid.UUID, day time.Time) (decimal.Decimal, bool, error) {
	total, count, err := s.repo.SumQuantity(ctx, productID, dates.Normalize(day))
	if err != nil {
		return decimal.Zero, false, pkgerrors.Storage(err, "db: sum lot quantity")
	}
	return total, count > 0, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
