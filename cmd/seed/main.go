package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/inventory"
	"github.com/angelmondragon/bakeline-backend/pkg/config"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	path := flag.String("file", "seeds/products.yaml", "seed file with products and par targets")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"file": *path,
	})

	f, err := os.Open(*path)
	requireResource(ctx, logg, "seed file", err)
	file, err := decodeSeedFile(f)
	_ = f.Close()
	requireResource(ctx, logg, "seed file", err)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	productRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(productRepo, logg)
	requireResource(ctx, logg, "catalog service", err)
	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), productRepo, dbClient, logg, nil)
	requireResource(ctx, logg, "inventory service", err)

	s := &seeder{products: productRepo, catalog: catalogService, inventory: inventoryService, logg: logg}
	result, err := s.apply(ctx, file)
	ctx = logg.WithFields(ctx, map[string]any{
		"created":  result.Created,
		"existing": result.Existing,
		"targets":  result.Targets,
	})
	if err != nil {
		logg.Error(ctx, "seed finished with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed complete")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
