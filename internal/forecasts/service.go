package forecasts

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

const (
	entityName = "forecast"

	uniqueForecastConstraint = "uq_forecasts_product_date_model"

	// mapePlaces is the stored scale of mape.
	mapePlaces = 6
	meanPlaces = 3
)

// Service records forecasts and scores them against actual production.
type Service interface {
	RecordForecast(ctx context.Context, input RecordForecastInput) (*ForecastDTO, error)
	ScoreForecast(ctx context.Context, id uuid.UUID, actual decimal.Decimal) (*ForecastDTO, error)
	ScoreDate(ctx context.Context, day time.Time) ([]ForecastDTO, error)
	GetForecast(ctx context.Context, id uuid.UUID) (*ForecastDTO, error)
	ListForecasts(ctx context.Context, input ListForecastsInput) (*ForecastListResult, error)
	Accuracy(ctx context.Context, input AccuracyInput) (*AccuracyReport, error)
}

// RecordForecastInput is a prediction for one product on one day by one model version.
type RecordForecastInput struct {
	ProductID         uuid.UUID
	TargetDate        time.Time
	PredictedQuantity decimal.Decimal
	ModelVersion      string
}

// ListForecastsInput filters forecasts. From and To bound target_date inclusively.
type ListForecastsInput struct {
	ProductID    *uuid.UUID
	ModelVersion string
	Status       *enums.ForecastStatus
	From         *time.Time
	To           *time.Time
	Pagination   pagination.Params
}

// AccuracyInput scopes an accuracy report.
type AccuracyInput struct {
	ModelVersion string
	From         *time.Time
	To           *time.Time
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// ProductionSource reports how much of a product was produced on a day, and whether any lot
// was recorded at all.
type ProductionSource interface {
	ProducedQuantity(ctx context.Context, productID uuid.UUID, day time.Time) (decimal.Decimal, bool, error)
}

type service struct {
	repo       Repository
	products   productFinder
	production ProductionSource
	limits     pagination.Limits
	logg       *logger.Logger
	metrics    *metrics.LedgerMetrics
}

// NewService wires the forecast tracker. production is only needed by ScoreDate and
// ledgerMetrics may be nil.
func NewService(repo Repository, products productFinder, production ProductionSource, limits pagination.Limits, logg *logger.Logger, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("forecast repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		products:   products,
		production: production,
		limits:     limits,
		logg:       logg,
		metrics:    ledgerMetrics,
	}, nil
}

func (s *service) RecordForecast(ctx context.Context, input RecordForecastInput) (*ForecastDTO, error) {
	forecast, err := s.recordForecast(ctx, input)
	if err != nil {
		return nil, s.reject(err)
	}
	s.metrics.IncWrite(entityName)
	s.logg.Info(s.logg.WithEntity(ctx, entityName, forecast.ID.String()), "forecast recorded")
	return NewForecastDTO(forecast), nil
}

func (s *service) recordForecast(ctx context.Context, input RecordForecastInput) (*models.Forecast, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.TargetDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target_date is required")
	}
	if err := quantity.NonNegative("predicted_quantity", input.PredictedQuantity); err != nil {
		return nil, err
	}
	modelVersion := strings.TrimSpace(input.ModelVersion)
	if modelVersion == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model_version is required")
	}

	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id does not reference a known product")
		}
		return nil, pkgerrors.Storage(err, "db: load product")
	}

	targetDate := dates.Normalize(input.TargetDate)
	existing, err := s.repo.FindByKey(ctx, input.ProductID, targetDate, modelVersion)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Storage(err, "db: load forecast")
	}
	if existing != nil {
		return nil, duplicateForecast(existing.ID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate forecast id")
	}
	forecast := &models.Forecast{
		ID:                id,
		ProductID:         input.ProductID,
		TargetDate:        targetDate,
		PredictedQuantity: input.PredictedQuantity,
		ModelVersion:      modelVersion,
		Status:            enums.ForecastStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, forecast); err != nil {
		if db.IsUniqueViolation(err, uniqueForecastConstraint) {
			return nil, duplicateForecast(uuid.Nil)
		}
		return nil, pkgerrors.Storage(err, "db: insert forecast")
	}
	return forecast, nil
}

// ScoreForecast records the actual outcome. Scoring is terminal: a scored forecast cannot be
// scored again.
func (s *service) ScoreForecast(ctx context.Context, id uuid.UUID, actual decimal.Decimal) (*ForecastDTO, error) {
	forecast, err := s.scoreForecast(ctx, id, actual)
	if err != nil {
		return nil, s.reject(err)
	}
	s.metrics.IncWrite(entityName)
	ctx = s.logg.WithEntity(ctx, entityName, forecast.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "mae", forecast.MAE.Decimal.String()), "forecast scored")
	return NewForecastDTO(forecast), nil
}

func (s *service) scoreForecast(ctx context.Context, id uuid.UUID, actual decimal.Decimal) (*models.Forecast, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "forecast id is required")
	}
	if err := quantity.NonNegative("actual_quantity", actual); err != nil {
		return nil, err
	}

	forecast, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "forecast not found")
		}
		return nil, pkgerrors.Storage(err, "db: load forecast")
	}
	if forecast.Status != enums.ForecastStatusPending {
		return nil, alreadyScored(forecast.ID)
	}

	result := computeScore(forecast.PredictedQuantity, actual)
	result.ScoredAt = time.Now().UTC()
	rows, err := s.repo.MarkScored(ctx, forecast.ID, result)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: score forecast")
	}
	if rows == 0 {
		// Another request won the pending -> scored transition.
		return nil, alreadyScored(forecast.ID)
	}

	forecast.Status = enums.ForecastStatusScored
	forecast.ActualQuantity = decimal.NewNullDecimal(result.Actual)
	forecast.MAE = decimal.NewNullDecimal(result.MAE)
	forecast.MAPE = result.MAPE
	forecast.ScoredAt = &result.ScoredAt
	return forecast, nil
}

// computeScore computes mae = |p - a| and mape = |p - a| / a. mape is null when a is zero.
func computeScore(predicted, actual decimal.Decimal) score {
	mae := predicted.Sub(actual).Abs()
	out := score{Actual: actual, MAE: mae}
	if !actual.IsZero() {
		out.MAPE = decimal.NewNullDecimal(mae.DivRound(actual, mapePlaces))
	}
	return out
}

// ScoreDate scores every pending forecast for day against the quantity the lot ledger recorded
// for its product. Forecasts whose product has no lot that day stay pending, so lots entered
// late are still picked up by a later run. Forecasts scored concurrently by someone else are
// skipped.
func (s *service) ScoreDate(ctx context.Context, day time.Time) ([]ForecastDTO, error) {
	if s.production == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "production source not configured")
	}
	day = dates.Normalize(day)
	pending, err := s.repo.ListPending(ctx, day)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list pending forecasts")
	}

	actuals := make(map[uuid.UUID]produced)
	out := make([]ForecastDTO, 0, len(pending))
	skipped := 0
	for _, forecast := range pending {
		actual, ok := actuals[forecast.ProductID]
		if !ok {
			actual.quantity, actual.recorded, err = s.production.ProducedQuantity(ctx, forecast.ProductID, day)
			if err != nil {
				return out, err
			}
			actuals[forecast.ProductID] = actual
		}
		if !actual.recorded {
			skipped++
			continue
		}
		scored, err := s.ScoreForecast(ctx, forecast.ID, actual.quantity)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
				continue
			}
			return out, err
		}
		out = append(out, *scored)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"date": dates.Format(day), "scored": len(out), "awaiting_lots": skipped})
	s.logg.Info(ctx, "forecasts scored for date")
	return out, nil
}

type produced struct {
	quantity decimal.Decimal
	recorded bool
}

func (s *service) GetForecast(ctx context.Context, id uuid.UUID) (*ForecastDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "forecast id is required")
	}
	forecast, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "forecast not found")
		}
		return nil, pkgerrors.Storage(err, "db: load forecast")
	}
	return NewForecastDTO(forecast), nil
}

func (s *service) ListForecasts(ctx context.Context, input ListForecastsInput) (*ForecastListResult, error) {
	from, to, err := normalizeRange(input.From, input.To)
	if err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is not a known forecast status")
	}
	query := listQuery{
		ProductID:    input.ProductID,
		ModelVersion: strings.TrimSpace(input.ModelVersion),
		Status:       input.Status,
		From:         from,
		To:           to,
		Limit:        s.limits.Normalize(input.Pagination.Limit),
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
		return nil, pkgerrors.Storage(err, "db: list forecasts")
	}
	result := &ForecastListResult{Items: make([]ForecastDTO, 0, len(rows))}
	for i := range rows {
		result.Items = append(result.Items, *NewForecastDTO(&rows[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// Accuracy averages mae over every scored forecast in scope, and mape over those whose mape
// is defined.
func (s *service) Accuracy(ctx context.Context, input AccuracyInput) (*AccuracyReport, error) {
	from, to, err := normalizeRange(input.From, input.To)
	if err != nil {
		return nil, err
	}
	modelVersion := strings.TrimSpace(input.ModelVersion)
	rows, err := s.repo.ListScored(ctx, modelVersion, from, to)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list scored forecasts")
	}

	report := &AccuracyReport{ModelVersion: modelVersion, Scored: len(rows)}
	if from != nil {
		report.From = dates.Format(*from)
	}
	if to != nil {
		report.To = dates.Format(*to)
	}

	var maes, mapes []decimal.Decimal
	for _, row := range rows {
		if row.MAE.Valid {
			maes = append(maes, row.MAE.Decimal)
		}
		if row.MAPE.Valid {
			mapes = append(mapes, row.MAPE.Decimal)
		}
	}
	report.MeanMAE = mean(maes, meanPlaces)
	report.MeanMAPE = mean(mapes, mapePlaces)
	return report, nil
}

func (s *service) reject(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejection(entityName, string(typed.Code()))
	}
	return err
}

func mean(values []decimal.Decimal, places int32) *decimal.Decimal {
	if len(values) == 0 {
		return nil
	}
	avg := decimal.Sum(decimal.Zero, values...).DivRound(decimal.NewFromInt(int64(len(values))), places)
	return &avg
}

func normalizeRange(from, to *time.Time) (*time.Time, *time.Time, error) {
	var outFrom, outTo *time.Time
	if from != nil {
		d := dates.Normalize(*from)
		outFrom = &d
	}
	if to != nil {
		d := dates.Normalize(*to)
		outTo = &d
	}
	if outFrom != nil && outTo != nil && outFrom.After(*outTo) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	return outFrom, outTo, nil
}

func duplicateForecast(existing uuid.UUID) error {
	err := pkgerrors.New(pkgerrors.CodeConflict, "a forecast for this product, date and model version already exists")
	if existing != uuid.Nil {
		return err.WithDetails(map[string]any{"forecast_id": existing.String()})
	}
	return err
}

func alreadyScored(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "forecast has already been scored").
		WithDetails(map[string]any{"forecast_id": id.String()})
}
