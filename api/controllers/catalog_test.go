package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/pkg/config"
	"github.com/angelmondragon/bakeline-backend/pkg/dates"
)

func TestCreateProduct(t *testing.T) {
	svc := &stubCatalog{}
	body := `{"name":"Concha","sku":"CON-01","unit":"pieces"}`

	rec := serve(http.MethodPost, "/products", "/products", body, CreateProduct(svc, testLogger()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var product catalog.ProductDTO
	decodeData(t, rec, &product)
	if product.Name != "Concha" || !product.Active {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestCreateProductRequiresSKU(t *testing.T) {
	rec := serve(http.MethodPost, "/products", "/products", `{"name":"Concha","unit":"pieces"}`, CreateProduct(&stubCatalog{}, testLogger()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListProductsActiveFlag(t *testing.T) {
	svc := &stubCatalog{products: []catalog.ProductDTO{{ID: uuid.New(), Name: "Bolillo", Active: true}}}

	rec := serve(http.MethodGet, "/products", "/products?active=true", "", ListProducts(svc, testLogger()))
	if rec.Code != http.StatusOK || !svc.active {
		t.Fatalf("expected active filter, got %d active=%v", rec.Code, svc.active)
	}

	rec = serve(http.MethodGet, "/products", "/products?active=maybe", "", ListProducts(svc, testLogger()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDailySummaryDefaultsToToday(t *testing.T) {
	svc := &stubSummary{}
	loc := time.FixedZone("CST", -6*60*60)

	rec := serve(http.MethodGet, "/summary/daily", "/summary/daily", "", DailySummary(svc, loc, testLogger()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !svc.day.Equal(dates.Today(loc)) {
		t.Fatalf("expected today, got %s", svc.day)
	}

	rec = serve(http.MethodGet, "/summary/daily", "/summary/daily?date=2024-09-25", "", DailySummary(svc, loc, testLogger()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out summary.DailySummary
	decodeData(t, rec, &out)
	if out.Date != "2024-09-25" || !out.Produced.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected summary %+v", out)
	}
}

func TestDailySummaryRejectsBadDate(t *testing.T) {
	rec := serve(http.MethodGet, "/summary/daily", "/summary/daily?date=yesterday", "", DailySummary(&stubSummary{}, time.UTC, testLogger()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := serve(http.MethodGet, "/health/ready", "/health/ready", "", HealthReady(cfg, testLogger(), ok, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with redis disabled, got %d", rec.Code)
	}
	if rec.Header().Get("X-Bakeline-Env") != "dev" {
		t.Fatalf("missing env header")
	}

	rec = serve(http.MethodGet, "/health/ready", "/health/ready", "", HealthReady(cfg, testLogger(), ok, down))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down, got %d", rec.Code)
	}

	rec = serve(http.MethodGet, "/health/ready", "/health/ready", "", HealthReady(cfg, testLogger(), down, ok))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rec.Code)
	}
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod"}}
	rec := serve(http.MethodGet, "/health/live", "/health/live", "", HealthLive(cfg))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
