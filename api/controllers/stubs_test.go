package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/decorations"
	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/internal/inventory"
	"github.com/angelmondragon/bakeline-backend/internal/lots"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/internal/waste"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

// serve routes a single request through a chi router so URL params resolve as in production.
func serve(method, pattern, target, body string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

type stubCatalog struct {
	created  catalog.CreateProductInput
	products []catalog.ProductDTO
	active   bool
	err      error
}

func (s *stubCatalog) CreateProduct(_ context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.ProductDTO{ID: uuid.New(), Name: input.Name, SKU: input.SKU, Unit: input.Unit, Active: true}, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.ProductDTO{ID: id}, nil
}

func (s *stubCatalog) ListProducts(_ context.Context, activeOnly bool) ([]catalog.ProductDTO, error) {
	s.active = activeOnly
	return s.products, s.err
}

func (s *stubCatalog) DeactivateProduct(_ context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &catalog.ProductDTO{ID: id, Active: false}, nil
}

type stubLots struct {
	recorded lots.RecordLotInput
	listed   lots.ListLotsInput
	err      error
}

func (s *stubLots) RecordLot(_ context.Context, input lots.RecordLotInput) (*lots.LotDTO, error) {
	s.recorded = input
	if s.err != nil {
		return nil, s.err
	}
	return &lots.LotDTO{ID: uuid.New(), ProductID: input.ProductID, Quantity: input.Quantity, Date: "2024-09-25"}, nil
}

func (s *stubLots) GetLot(_ context.Context, id uuid.UUID) (*lots.LotDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &lots.LotDTO{ID: id}, nil
}

func (s *stubLots) ListLots(_ context.Context, input lots.ListLotsInput) (*lots.LotListResult, error) {
	s.listed = input
	if s.err != nil {
		return nil, s.err
	}
	return &lots.LotListResult{Items: []lots.LotDTO{}}, nil
}

func (s *stubLots) ProducedQuantity(context.Context, uuid.UUID, time.Time) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, s.err
}

type stubDecorations struct {
	recorded decorations.RecordDecorationInput
	listed   decorations.ListDecorationsInput
	err      error
}

func (s *stubDecorations) RecordDecoration(_ context.Context, input decorations.RecordDecorationInput) (*decorations.DecorationDTO, error) {
	s.recorded = input
	if s.err != nil {
		return nil, s.err
	}
	return &decorations.DecorationDTO{ID: uuid.New(), LotID: input.LotID, Style: input.Style}, nil
}

func (s *stubDecorations) ListDecorations(_ context.Context, input decorations.ListDecorationsInput) (*decorations.DecorationListResult, error) {
	s.listed = input
	return &decorations.DecorationListResult{Items: []decorations.DecorationDTO{}}, s.err
}

type stubWaste struct {
	recorded waste.RecordWasteInput
	listed   waste.ListWasteInput
	err      error
}

func (s *stubWaste) RecordWaste(_ context.Context, input waste.RecordWasteInput) (*waste.WasteDTO, error) {
	s.recorded = input
	if s.err != nil {
		return nil, s.err
	}
	return &waste.WasteDTO{ID: uuid.New(), ProductID: input.ProductID}, nil
}

func (s *stubWaste) ListWaste(_ context.Context, input waste.ListWasteInput) (*waste.WasteListResult, error) {
	s.listed = input
	return &waste.WasteListResult{Items: []waste.WasteDTO{}}, s.err
}

type stubInventory struct {
	tier   enums.SizeTier
	count  int
	batch  map[enums.SizeTier]int
	filter *uuid.UUID
	err    error
}

func (s *stubInventory) SetOnHand(_ context.Context, productID uuid.UUID, tier enums.SizeTier, count int) (*inventory.SnapshotDTO, error) {
	s.tier, s.count = tier, count
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.SnapshotDTO{ProductID: productID, SizeTier: tier, OnHand: count}, nil
}

func (s *stubInventory) SetOnHandBatch(_ context.Context, productID uuid.UUID, counts map[enums.SizeTier]int) ([]inventory.SnapshotDTO, error) {
	s.batch = counts
	return []inventory.SnapshotDTO{}, s.err
}

func (s *stubInventory) SetTarget(_ context.Context, productID uuid.UUID, tier enums.SizeTier, target int) (*inventory.SnapshotDTO, error) {
	s.tier, s.count = tier, target
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.SnapshotDTO{ProductID: productID, SizeTier: tier, Target: target, ToReplenish: target}, nil
}

func (s *stubInventory) GetParStatus(_ context.Context, productID *uuid.UUID) ([]inventory.SnapshotDTO, error) {
	s.filter = productID
	return []inventory.SnapshotDTO{}, s.err
}

type stubSummary struct {
	day time.Time
	err error
}

func (s *stubSummary) Summarize(_ context.Context, day time.Time) (*summary.DailySummary, error) {
	s.day = day
	if s.err != nil {
		return nil, s.err
	}
	return &summary.DailySummary{Date: day.Format("2006-01-02"), Produced: decimal.NewFromInt(50)}, nil
}

func (s *stubSummary) InvalidateDay(context.Context, time.Time) {}

type stubForecasts struct {
	recorded forecasts.RecordForecastInput
	actual   decimal.Decimal
	day      time.Time
	listed   forecasts.ListForecastsInput
	accuracy forecasts.AccuracyInput
	err      error
}

func (s *stubForecasts) RecordForecast(_ context.Context, input forecasts.RecordForecastInput) (*forecasts.ForecastDTO, error) {
	s.recorded = input
	if s.err != nil {
		return nil, s.err
	}
	return &forecasts.ForecastDTO{ID: uuid.New(), ProductID: input.ProductID, Status: enums.ForecastStatusPending}, nil
}

func (s *stubForecasts) ScoreForecast(_ context.Context, id uuid.UUID, actual decimal.Decimal) (*forecasts.ForecastDTO, error) {
	s.actual = actual
	if s.err != nil {
		return nil, s.err
	}
	return &forecasts.ForecastDTO{ID: id, Status: enums.ForecastStatusScored}, nil
}

func (s *stubForecasts) ScoreDate(_ context.Context, day time.Time) ([]forecasts.ForecastDTO, error) {
	s.day = day
	return []forecasts.ForecastDTO{}, s.err
}

func (s *stubForecasts) GetForecast(_ context.Context, id uuid.UUID) (*forecasts.ForecastDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &forecasts.ForecastDTO{ID: id}, nil
}

func (s *stubForecasts) ListForecasts(_ context.Context, input forecasts.ListForecastsInput) (*forecasts.ForecastListResult, error) {
	s.listed = input
	return &forecasts.ForecastListResult{Items: []forecasts.ForecastDTO{}}, s.err
}

func (s *stubForecasts) Accuracy(_ context.Context, input forecasts.AccuracyInput) (*forecasts.AccuracyReport, error) {
	s.accuracy = input
	return &forecasts.AccuracyReport{}, s.err
}
