package decorations

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
	"gorm.io/gorm"
)

const entityName = "decoration_event"

// Service records finishing work against production lots.
type Service interface {
	RecordDecoration(ctx context.Context, input RecordDecorationInput) (*DecorationDTO, error)
	ListDecorations(ctx context.Context, input ListDecorationsInput) (*DecorationListResult, error)
}

// RecordDecorationInput captures a decoration pass. Unit defaults to the lot's unit.
type RecordDecorationInput struct {
	LotID            uuid.UUID
	Style            string
	QuantityFinished decimal.Decimal
	Unit             string
	Evidence         []string
}

// ListDecorationsInput filters by lot and by the business day the event was recorded on.
type ListDecorationsInput struct {
	LotID      *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// DayInvalidator is told about every write so a cached daily summary for that day is dropped.
type DayInvalidator interface {
	InvalidateDay(ctx context.Context, day time.Time)
}

type service struct {
	repo        Repository
	dbClient    *db.Client
	invalidator DayInvalidator
	loc         *time.Location
	limits      pagination.Limits
	logg        *logger.Logger
	metrics     *metrics.LedgerMetrics
}

// NewService wires the decoration ledger. invalidator and ledgerMetrics may be nil.
func NewService(repo Repository, dbClient *db.Client, invalidator DayInvalidator, loc *time.Location, limits pagination.Limits, logg *logger.Logger, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("decoration repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		invalidator: invalidator,
		loc:         loc,
		limits:      limits,
		logg:        logg,
		metrics:     ledgerMetrics,
	}, nil
}

func (s *service) RecordDecoration(ctx context.Context, input RecordDecorationInput) (*DecorationDTO, error) {
	event, err := s.recordDecoration(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection(entityName, string(typed.Code()))
		}
		return nil, err
	}
	s.metrics.IncWrite(entityName)
	if s.invalidator != nil {
		s.invalidator.InvalidateDay(ctx, dates.TodayAt(event.CreatedAt, s.loc))
	}
	ctx = s.logg.WithEntity(ctx, entityName, event.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "lot_id", event.LotID.String()), "decoration recorded")
	return NewDecorationDTO(event), nil
}

func (s *service) recordDecoration(ctx context.Context, input RecordDecorationInput) (*models.DecorationEvent, error) {
	if input.LotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lot_id is required")
	}
	style := strings.TrimSpace(input.Style)
	if style == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "style is required")
	}
	if err := quantity.Positive("quantity_finished", input.QuantityFinished); err != nil {
		return nil, err
	}

	var created *models.DecorationEvent
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		lot, err := txRepo.LockLot(ctx, input.LotID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeValidation, "lot_id does not reference a known lot")
			}
			return pkgerrors.Storage(err, "db: lock lot")
		}

		unit := strings.TrimSpace(input.Unit)
		if unit == "" {
			unit = lot.Unit
		}
		if unit != lot.Unit {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit must match the lot unit").
				WithDetails(map[string]any{"lot_unit": lot.Unit, "unit": unit})
		}

		finished, err := txRepo.SumFinished(ctx, lot.ID)
		if err != nil {
			return pkgerrors.Storage(err, "db: sum decorations")
		}
		if finished.Add(input.QuantityFinished).GreaterThan(lot.Quantity) {
			return pkgerrors.New(pkgerrors.CodeValidation, "decorated quantity exceeds lot quantity").
				WithDetails(map[string]any{
					"lot_quantity":      lot.Quantity.String(),
					"already_decorated": finished.String(),
					"requested":         input.QuantityFinished.String(),
				})
		}

		id, err := uuid.NewV7()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate decoration id")
		}
		event := &models.DecorationEvent{
			ID:               id,
			LotID:            lot.ID,
			Style:            style,
			QuantityFinished: input.QuantityFinished,
			Unit:             unit,
			Evidence:         dbtypes.StringList(input.Evidence).Compact(),
			CreatedAt:        time.Now().UTC(),
		}
		if err := txRepo.Create(ctx, event); err != nil {
			return pkgerrors.Storage(err, "db: insert decoration")
		}
		created = event
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Storage(err, "record decoration")
	}
	return created, nil
}

func (s *service) ListDecorations(ctx context.Context, input ListDecorationsInput) (*DecorationListResult, error) {
	query := listQuery{
		LotID: input.LotID,
		Limit: s.limits.Normalize(input.Pagination.Limit),
	}
	if input.From != nil && input.To != nil && dates.Normalize(*input.From).After(dates.Normalize(*input.To)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	if input.From != nil {
		since, _ := dates.InstantRange(*input.From, s.loc)
		query.Since = &since
	}
	if input.To != nil {
		_, before := dates.InstantRange(*input.To, s.loc)
		query.Before = &before
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
		return nil, pkgerrors.Storage(err, "db: list decorations")
	}

	result := &DecorationListResult{Items: make([]DecorationDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, *NewDecorationDTO(&rows[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
