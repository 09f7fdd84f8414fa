package decorations

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu   sync.Mutex
	days []string
}

func (r *recordingInvalidator) InvalidateDay(_ context.Context, day time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append(r.days, dates.Format(day))
}

func newTestService(t *testing.T, limits pagination.Limits) (Service, *db.Client, *recordingInvalidator) {
	t.Helper()
	client := dbtest.New(t)
	invalidator := &recordingInvalidator{}
	svc, err := NewService(NewRepository(client.DB()), client, invalidator, time.UTC, limits, dbtest.Logger(), nil)
	require.NoError(t, err)
	return svc, client, invalidator
}

func newLot(t *testing.T, client *db.Client, quantity string) *models.ProductionLot {
	t.Helper()
	product := dbtest.MustProduct(t, client.DB(), "Pastel", "unidad")
	return dbtest.MustLot(t, client.DB(), product, quantity, dbtest.Day(2024, time.September, 25))
}

func decorate(svc Service, lotID uuid.UUID, quantity int64) error {
	_, err := svc.RecordDecoration(context.Background(), RecordDecorationInput{
		LotID:            lotID,
		Style:            "Fondant",
		QuantityFinished: decimal.NewFromInt(quantity),
	})
	return err
}

func TestRecordDecorationExceedingLotFails(t *testing.T) {
	svc, client, invalidator := newTestService(t, pagination.DefaultLimits)
	lot := newLot(t, client, "50")

	err := decorate(svc, lot.ID, 60)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
	assert.Empty(t, invalidator.days)

	var count int64
	require.NoError(t, client.DB().Model(&models.DecorationEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordDecorationCapAcrossSequence(t *testing.T) {
	svc, client, _ := newTestService(t, pagination.DefaultLimits)
	lot := newLot(t, client, "50")

	require.NoError(t, decorate(svc, lot.ID, 20))
	require.NoError(t, decorate(svc, lot.ID, 20))
	require.NoError(t, decorate(svc, lot.ID, 10), "reaching the lot quantity exactly is allowed")

	err := decorate(svc, lot.ID, 1)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "50", details["already_decorated"])
}

func TestRecordDecorationNeverExceedsLotForAnySequence(t *testing.T) {
	svc, client, _ := newTestService(t, pagination.DefaultLimits)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 5; round++ {
		lotQty := int64(rng.Intn(40) + 1)
		lot := newLot(t, client, decimal.NewFromInt(lotQty).String())

		var accepted int64
		for i := 0; i < 12; i++ {
			qty := int64(rng.Intn(15) + 1)
			err := decorate(svc, lot.ID, qty)
			if accepted+qty <= lotQty {
				require.NoError(t, err, "round %d step %d", round, i)
				accepted += qty
				continue
			}
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "round %d step %d: %v", round, i, err)
		}

		stored, err := NewRepository(client.DB()).SumFinished(context.Background(), lot.ID)
		require.NoError(t, err)
		assert.True(t, stored.Equal(decimal.NewFromInt(accepted)))
		assert.True(t, stored.LessThanOrEqual(lot.Quantity))
	}
}

func TestRecordDecorationConcurrentStationsRespectCap(t *testing.T) {
	svc, client, _ := newTestService(t, pagination.DefaultLimits)
	lot := newLot(t, client, "50")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := decorate(svc, lot.ID, 10)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
				return
			}
			if pkgerrors.Is(err, pkgerrors.CodeValidation) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	assert.Equal(t, 5, rejected)
}

func TestRecordDecorationValidation(t *testing.T) {
	svc, client, _ := newTestService(t, pagination.DefaultLimits)
	lot := newLot(t, client, "10")

	cases := map[string]RecordDecorationInput{
		"missing lot":        {Style: "Glaseado", QuantityFinished: decimal.NewFromInt(1)},
		"unknown lot":        {LotID: uuid.Must(uuid.NewV7()), Style: "Glaseado", QuantityFinished: decimal.NewFromInt(1)},
		"missing style":      {LotID: lot.ID, Style: "  ", QuantityFinished: decimal.NewFromInt(1)},
		"zero quantity":      {LotID: lot.ID, Style: "Glaseado", QuantityFinished: decimal.Zero},
		"unit mismatch":      {LotID: lot.ID, Style: "Glaseado", QuantityFinished: decimal.NewFromInt(1), Unit: "kg"},
		"lossy quantity":     {LotID: lot.ID, Style: "Glaseado", QuantityFinished: decimal.RequireFromString("1.2345")},
		"oversized quantity": {LotID: lot.ID, Style: "Glaseado", QuantityFinished: decimal.New(1, 9)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RecordDecoration(context.Background(), input)
			require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestRecordDecorationDefaultsUnitAndInvalidatesCreatedDay(t *testing.T) {
	svc, client, invalidator := newTestService(t, pagination.DefaultLimits)
	lot := newLot(t, client, "10")

	event, err := svc.RecordDecoration(context.Background(), RecordDecorationInput{
		LotID:            lot.ID,
		Style:            "Chocolate",
		QuantityFinished: decimal.RequireFromString("2.5"),
		Evidence:         []string{"photo://deco-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "unidad", event.Unit)
	assert.Equal(t, []string{"photo://deco-1"}, event.Evidence)
	assert.Equal(t, []string{dates.Format(dates.TodayAt(event.CreatedAt, time.UTC))}, invalidator.days)
}

func TestListDecorationsFiltersByLotAndPages(t *testing.T) {
	svc, client, _ := newTestService(t, pagination.Limits{Default: 2, Max: 5})
	lotA := newLot(t, client, "100")
	lotB := newLot(t, client, "100")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, decorate(svc, lotA.ID, 1))
	}
	require.NoError(t, decorate(svc, lotB.ID, 1))

	first, err := svc.ListDecorations(ctx, ListDecorationsInput{LotID: &lotA.ID})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListDecorations(ctx, ListDecorationsInput{LotID: &lotA.ID, Pagination: pagination.Params{Cursor: first.NextCursor}})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.NextCursor)
	assert.True(t, first.Items[1].ID.String() < second.Items[0].ID.String())

	today := dates.Today(time.UTC)
	all, err := svc.ListDecorations(ctx, ListDecorationsInput{From: &today, To: &today, Pagination: pagination.Params{Limit: 5}})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)

	yesterday := today.AddDate(0, 0, -1)
	none, err := svc.ListDecorations(ctx, ListDecorationsInput{From: &yesterday, To: &yesterday})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
}
