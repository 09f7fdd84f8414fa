package catalog

import (
	"context"
	"testing"

	"github.com/angelmondragon/bakeline-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.New(t)
	svc, err := NewService(NewRepository(client.DB()), dbtest.Logger())
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(nil, dbtest.Logger())
	require.Error(t, err)
	_, err = NewService(NewRepository(nil), nil)
	require.Error(t, err)
}

func TestCreateProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{Name: " Concha ", SKU: "PAN-001", Unit: "unidad"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, product.ID)
	require.Equal(t, "Concha", product.Name)
	require.True(t, product.Active)
	require.Equal(t, uuid.Version(7), product.ID.Version())

	inactive := false
	hidden, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Rosca", SKU: "PAN-009", Unit: "kg", Active: &inactive})
	require.NoError(t, err)
	require.False(t, hidden.Active)

	loaded, err := svc.GetProduct(ctx, hidden.ID)
	require.NoError(t, err)
	require.False(t, loaded.Active)
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for name, input := range map[string]CreateProductInput{
		"missing name": {SKU: "A", Unit: "kg"},
		"missing sku":  {Name: "A", Unit: "kg"},
		"missing unit": {Name: "A", SKU: "A"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, input)
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateProductDuplicateSKUConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Bolillo", SKU: "PAN-002", Unit: "unidad"})
	require.NoError(t, err)
	_, err = svc.DeactivateProduct(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Bolillo 2", SKU: "PAN-002", Unit: "unidad"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestListAndDeactivate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cake, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Pastel", SKU: "PST-1", Unit: "unidad"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Baguette", SKU: "PAN-3", Unit: "unidad"})
	require.NoError(t, err)

	all, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Baguette", all[0].Name)

	deactivated, err := svc.DeactivateProduct(ctx, cake.ID)
	require.NoError(t, err)
	require.False(t, deactivated.Active)

	again, err := svc.DeactivateProduct(ctx, cake.ID)
	require.NoError(t, err)
	require.False(t, again.Active)

	active, err := svc.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "Baguette", active[0].Name)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, uuid.Must(uuid.NewV7()))
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = svc.DeactivateProduct(ctx, uuid.Must(uuid.NewV7()))
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = svc.GetProduct(ctx, uuid.Nil)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
}
