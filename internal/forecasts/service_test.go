package forecasts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/bakeline-backend/internal/catalog"
	"github.com/angelmondragon/bakeline-backend/internal/lots"
	"github.com/angelmondragon/bakeline-backend/pkg/db"
	"github.com/angelmondragon/bakeline-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bakeline-backend/pkg/db/models"
	"github.com/angelmondragon/bakeline-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, limits pagination.Limits) (*db.Client, Service) {
	t.Helper()
	client := dbtest.New(t)
	products := catalog.NewRepository(client.DB())
	lotSvc, err := lots.NewService(lots.NewRepository(client.DB()), products, nil, time.UTC, limits, dbtest.Logger(), nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), products, lotSvc, limits, dbtest.Logger(), nil)
	require.NoError(t, err)
	return client, svc
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func record(t *testing.T, svc Service, product *models.Product, day time.Time, predicted, model string) *ForecastDTO {
	t.Helper()
	forecast, err := svc.RecordForecast(context.Background(), RecordForecastInput{
		ProductID:         product.ID,
		TargetDate:        day,
		PredictedQuantity: dec(predicted),
		ModelVersion:      model,
	})
	require.NoError(t, err)
	return forecast
}

func TestComputeScore(t *testing.T) {
	cases := []struct {
		name      string
		predicted string
		actual    string
		mae       string
		mape      string
	}{
		{"over", "60", "50", "10", "0.2"},
		{"under", "40", "50", "10", "0.2"},
		{"exact", "50", "50", "0", "0"},
		{"thirds", "40", "30", "10", "0.333333"},
		{"zero actual", "12", "0", "12", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := computeScore(dec(tc.predicted), dec(tc.actual))
			assert.True(t, got.MAE.Equal(dec(tc.mae)), "mae %s", got.MAE)
			if tc.mape == "" {
				assert.False(t, got.MAPE.Valid)
				return
			}
			require.True(t, got.MAPE.Valid)
			assert.True(t, got.MAPE.Decimal.Equal(dec(tc.mape)), "mape %s", got.MAPE.Decimal)
		})
	}
}

func TestRecordForecastDoubleSubmitConflicts(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	day := dbtest.Day(2024, 9, 25)

	first := record(t, svc, product, day, "48", "v1")
	assert.Equal(t, enums.ForecastStatusPending, first.Status)
	assert.Equal(t, "2024-09-25", first.TargetDate)
	assert.Nil(t, first.MAE)

	_, err := svc.RecordForecast(ctx, RecordForecastInput{
		ProductID:         product.ID,
		TargetDate:        day.Add(5 * time.Hour),
		PredictedQuantity: dec("51"),
		ModelVersion:      " v1 ",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict), "got %v", err)

	record(t, svc, product, day, "51", "v2")
	record(t, svc, product, day.AddDate(0, 0, 1), "51", "v1")
}

func TestUniqueConstraintBacksThePreCheck(t *testing.T) {
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	newForecast := func() *models.Forecast {
		return &models.Forecast{
			ID:                uuid.Must(uuid.NewV7()),
			ProductID:         product.ID,
			TargetDate:        dbtest.Day(2024, 9, 25),
			PredictedQuantity: dec("10"),
			ModelVersion:      "v1",
			Status:            enums.ForecastStatusPending,
		}
	}
	require.NoError(t, repo.Create(context.Background(), newForecast()))
	err := repo.Create(context.Background(), newForecast())
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, uniqueForecastConstraint))
}

func TestRecordForecastValidation(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	day := dbtest.Day(2024, 9, 25)

	cases := map[string]RecordForecastInput{
		"missing product":     {TargetDate: day, PredictedQuantity: dec("1"), ModelVersion: "v1"},
		"unknown product":     {ProductID: uuid.New(), TargetDate: day, PredictedQuantity: dec("1"), ModelVersion: "v1"},
		"missing date":        {ProductID: product.ID, PredictedQuantity: dec("1"), ModelVersion: "v1"},
		"negative predicted":  {ProductID: product.ID, TargetDate: day, PredictedQuantity: dec("-1"), ModelVersion: "v1"},
		"blank model":         {ProductID: product.ID, TargetDate: day, PredictedQuantity: dec("1"), ModelVersion: "  "},
		"lossy predicted":     {ProductID: product.ID, TargetDate: day, PredictedQuantity: dec("1.2345"), ModelVersion: "v1"},
		"oversized predicted": {ProductID: product.ID, TargetDate: day, PredictedQuantity: dec("1000000000"), ModelVersion: "v1"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RecordForecast(context.Background(), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestScoreForecastLifecycle(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	forecast := record(t, svc, product, dbtest.Day(2024, 9, 25), "60", "v1")

	_, err := svc.ScoreForecast(ctx, forecast.ID, dec("-1"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.ScoreForecast(ctx, forecast.ID, dec("0.0004"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = svc.ScoreForecast(ctx, forecast.ID, dec("1e9"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.ScoreForecast(ctx, uuid.New(), dec("1"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	scored, err := svc.ScoreForecast(ctx, forecast.ID, dec("50"))
	require.NoError(t, err)
	assert.Equal(t, enums.ForecastStatusScored, scored.Status)
	require.NotNil(t, scored.MAE)
	assert.True(t, scored.MAE.Equal(dec("10")))
	require.NotNil(t, scored.MAPE)
	assert.True(t, scored.MAPE.Equal(dec("0.2")))
	assert.NotNil(t, scored.ScoredAt)

	_, err = svc.ScoreForecast(ctx, forecast.ID, dec("55"))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict), "got %v", err)

	stored, err := svc.GetForecast(ctx, forecast.ID)
	require.NoError(t, err)
	assert.True(t, stored.ActualQuantity.Equal(dec("50")), "a rejected rescore leaves the first score")
	assert.True(t, stored.MAE.Equal(dec("10")))
}

func TestScoreForecastZeroActualHasNullMAPE(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	forecast := record(t, svc, product, dbtest.Day(2024, 9, 25), "8", "v1")

	scored, err := svc.ScoreForecast(context.Background(), forecast.ID, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, scored.MAE.Equal(dec("8")))
	assert.Nil(t, scored.MAPE)

	stored, err := svc.GetForecast(context.Background(), forecast.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MAPE)
}

func TestConcurrentScoringScoresOnce(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	forecast := record(t, svc, product, dbtest.Day(2024, 9, 25), "60", "v1")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(actual int64) {
			defer wg.Done()
			_, err := svc.ScoreForecast(context.Background(), forecast.ID, decimal.NewFromInt(actual))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case pkgerrors.Is(err, pkgerrors.CodeStateConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(40 + i))
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 7, conflicts)
}

func TestScoreDateUsesProducedQuantity(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	ctx := context.Background()
	day := dbtest.Day(2024, 9, 25)
	conchas := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	bolillos := dbtest.MustProduct(t, client.DB(), "Bolillo", "unidad")
	dbtest.MustLot(t, client.DB(), conchas, "30", day)
	dbtest.MustLot(t, client.DB(), conchas, "20", day)

	a := record(t, svc, conchas, day, "60", "v1")
	b := record(t, svc, conchas, day, "45", "v2")
	c := record(t, svc, bolillos, day, "10", "v1")
	record(t, svc, conchas, day.AddDate(0, 0, 1), "70", "v1")

	_, err := svc.ScoreForecast(ctx, b.ID, dec("49"))
	require.NoError(t, err)

	scored, err := svc.ScoreDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, a.ID, scored[0].ID)
	assert.True(t, scored[0].ActualQuantity.Equal(dec("50")))
	assert.True(t, scored[0].MAE.Equal(dec("10")))

	bolilloForecast, err := svc.GetForecast(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ForecastStatusPending, bolilloForecast.Status)

	again, err := svc.ScoreDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestScoreDateWaitsForLateLots(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	ctx := context.Background()
	day := dbtest.Day(2024, 9, 25)
	conchas := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	forecast := record(t, svc, conchas, day, "40", "v1")

	scored, err := svc.ScoreDate(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, scored)

	stored, err := svc.GetForecast(ctx, forecast.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ForecastStatusPending, stored.Status)
	assert.Nil(t, stored.MAE)

	dbtest.MustLot(t, client.DB(), conchas, "38", day)

	scored, err = svc.ScoreDate(ctx, day)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.True(t, scored[0].ActualQuantity.Equal(dec("38")))
	assert.True(t, scored[0].MAE.Equal(dec("2")))
}

func TestScoreForecastAcceptsZeroActualManually(t *testing.T) {
	client, svc := newTestService(t, pagination.DefaultLimits)
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")
	forecast := record(t, svc, product, dbtest.Day(2024, 9, 25), "12", "v1")

	scored, err := svc.ScoreForecast(context.Background(), forecast.ID, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, enums.ForecastStatusScored, scored.Status)
	assert.Nil(t, scored.MAPE)
}

func TestListForecastsAndAccuracy(t *testing.T) {
	client, svc := newTestService(t, pagination.Limits{Default: 2, Max: 2})
	ctx := context.Background()
	product := dbtest.MustProduct(t, client.DB(), "Concha", "unidad")

	f1 := record(t, svc, product, dbtest.Day(2024, 9, 23), "60", "v1")
	f2 := record(t, svc, product, dbtest.Day(2024, 9, 24), "40", "v1")
	f3 := record(t, svc, product, dbtest.Day(2024, 9, 25), "10", "v1")
	record(t, svc, product, dbtest.Day(2024, 9, 25), "99", "v2")

	_, err := svc.ScoreForecast(ctx, f1.ID, dec("50"))
	require.NoError(t, err)
	_, err = svc.ScoreForecast(ctx, f2.ID, dec("50"))
	require.NoError(t, err)
	_, err = svc.ScoreForecast(ctx, f3.ID, decimal.Zero)
	require.NoError(t, err)

	page, err := svc.ListForecasts(ctx, ListForecastsInput{ModelVersion: "v1"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, f1.ID, page.Items[0].ID)
	require.NotEmpty(t, page.NextCursor)

	page, err = svc.ListForecasts(ctx, ListForecastsInput{ModelVersion: "v1", Pagination: pagination.Params{Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, f3.ID, page.Items[0].ID)
	assert.Empty(t, page.NextCursor)

	pending := enums.ForecastStatusPending
	page, err = svc.ListForecasts(ctx, ListForecastsInput{Status: &pending})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "v2", page.Items[0].ModelVersion)

	report, err := svc.Accuracy(ctx, AccuracyInput{ModelVersion: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scored)
	require.NotNil(t, report.MeanMAE)
	assert.True(t, report.MeanMAE.Equal(dec("10")), "mean mae %s", report.MeanMAE)
	require.NotNil(t, report.MeanMAPE)
	assert.True(t, report.MeanMAPE.Equal(dec("0.2")), "mean mape %s", report.MeanMAPE)

	from, to := dbtest.Day(2024, 9, 25), dbtest.Day(2024, 9, 25)
	report, err = svc.Accuracy(ctx, AccuracyInput{ModelVersion: "v1", From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scored)
	assert.Nil(t, report.MeanMAPE)

	report, err = svc.Accuracy(ctx, AccuracyInput{ModelVersion: "v9"})
	require.NoError(t, err)
	assert.Zero(t, report.Scored)
	assert.Nil(t, report.MeanMAE)

	earlier := dbtest.Day(2024, 9, 23)
	_, err = svc.Accuracy(ctx, AccuracyInput{From: &to, To: &earlier})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
