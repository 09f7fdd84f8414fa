// Package dbtest opens throwaway SQLite databases with the full schema for package tests.
package dbtest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/config"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// New returns a client over a private in-memory database with every table created.
func New(t *testing.T) *db.Client {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())
	client, err := db.New(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return client
}

// Logger returns a logger that discards its output.
func Logger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// MustProduct inserts an active product.
func MustProduct(t *testing.T, conn *gorm.DB, name, unit string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:     uuid.Must(uuid.NewV7()),
		Name:   name,
		SKU:    fmt.Sprintf("SKU-%s", uuid.NewString()),
		Unit:   unit,
		Active: true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// MustLot inserts a production lot for product on day.
func MustLot(t *testing.T, conn *gorm.DB, product *models.Product, quantity string, day time.Time) *models.ProductionLot {
	t.Helper()
	lot := &models.ProductionLot{
		ID:        uuid.Must(uuid.NewV7()),
		ProductID: product.ID,
		Quantity:  decimal.RequireFromString(quantity),
		Unit:      product.Unit,
		Date:      day,
	}
	if err := conn.Create(lot).Error; err != nil {
		t.Fatalf("create lot: %v", err)
	}
	return lot
}

// Day builds a normalized calendar day.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
