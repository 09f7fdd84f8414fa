package waste

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/angelmondragon/bakeline-backend/pkg/quantity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const entityName = "waste_event"

// Service records loss events.
type Service interface {
	RecordWaste(ctx context.Context, input RecordWasteInput) (*WasteDTO, error)
	ListWaste(ctx context.Context, input ListWasteInput) (*WasteListResult, error)
}

// RecordWasteInput captures a loss. Evidence is mandatory; LotID, Unit, Notes and Date are optional.
type RecordWasteInput struct {
	ProductID uuid.UUID
	LotID     *uuid.UUID
	Quantity  decimal.Decimal
	Unit      string
	Cause     enums.WasteCause
	Evidence  string
	Notes     *string
	Date      *time.Time
}

// ListWasteInput filters the waste sequence. From and To are inclusive days.
type ListWasteInput struct {
	ProductID  *uuid.UUID
	Cause      *enums.WasteCause
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

// NewService wires the waste ledger. invalidator and ledgerMetrics may be nil.
func NewService(repo Repository, products productFinder, invalidator DayInvalidator, loc *time.Location, limits pagination.Limits, logg *logger.Logger, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("waste repository required")
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

func (s *service) RecordWaste(ctx context.Context, input RecordWasteInput) (*WasteDTO, error) {
	event, err := s.recordWaste(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection(entityName, string(typed.Code()))
		}
		return nil, err
	}
	s.metrics.IncWrite(entityName)
	if s.invalidator != nil {
		s.invalidator.InvalidateDay(ctx, event.Date)
	}
	ctx = s.logg.WithEntity(ctx, entityName, event.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "cause", event.Cause.String()), "waste recorded")
	return NewWasteDTO(event), nil
}

func (s *service) recordWaste(ctx context.Context, input RecordWasteInput) (*models.WasteEvent, error) {
	evidence := strings.TrimSpace(input.Evidence)
	if evidence == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "evidence is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if err := quantity.Positive("quantity", input.Quantity); err != nil {
		return nil, err
	}
	if !input.Cause.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cause is not a known waste cause").
			WithDetails(map[string]any{"cause": string(input.Cause)})
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

	if input.LotID != nil {
		lot, err := s.repo.FindLot(ctx, *input.LotID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot_id does not reference a known lot")
			}
			return nil, pkgerrors.Storage(err, "db: load lot")
		}
		if lot.ProductID != product.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot_id belongs to a different product")
		}
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate waste id")
	}
	event := &models.WasteEvent{
		ID:        id,
		ProductID: product.ID,
		LotID:     input.LotID,
		Quantity:  input.Quantity,
		Unit:      unit,
		Cause:     input.Cause,
		Evidence:  evidence,
		Notes:     trimOptional(input.Notes),
		Date:      day,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, pkgerrors.Storage(err, "db: insert waste event")
	}
	return event, nil
}

func (s *service) ListWaste(ctx context.Context, input ListWasteInput) (*WasteListResult, error) {
	query := listQuery{
		ProductID: input.ProductID,
		Limit:     s.limits.Normalize(input.Pagination.Limit),
	}
	if input.Cause != nil {
		if !input.Cause.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cause is not a known waste cause")
		}
		query.Cause = input.Cause
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
		return nil, pkgerrors.Storage(err, "db: list waste")
	}

	result := &WasteListResult{Items: make([]WasteDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, *NewWasteDTO(&rows[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
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
