package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/pkg/dates"
)

type fakeScorer struct {
	days   []string
	failOn string
}

func (f *fakeScorer) ScoreDate(_ context.Context, day time.Time) ([]forecasts.ForecastDTO, error) {
	f.days = append(f.days, dates.Format(day))
	if dates.Format(day) == f.failOn {
		return nil, errors.New("storage unavailable")
	}
	return []forecasts.ForecastDTO{{ID: uuid.New()}, {ID: uuid.New()}}, nil
}

type fakeSummarizer struct {
	days []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, day time.Time) (*summary.DailySummary, error) {
	f.days = append(f.days, dates.Format(day))
	return &summary.DailySummary{Date: dates.Format(day), Produced: decimal.Zero}, nil
}

func TestForecastScoringJobScansClosedDays(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	// 02:00 UTC on the 26th is still the 25th in Mexico City.
	now := func() time.Time { return time.Date(2024, 9, 26, 2, 0, 0, 0, time.UTC) }

	scorer := &fakeScorer{}
	job, err := NewForecastScoringJob(ForecastScoringJobParams{
		Forecasts: scorer,
		Logger:    testLogger(),
		Location:  loc,
		Lookback:  2,
		Now:       now,
	})
	require.NoError(t, err)

	scored, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, scored)
	assert.Equal(t, []string{"2024-09-23", "2024-09-24"}, scorer.days)
}

func TestForecastScoringJobContinuesPastFailures(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 9, 26, 12, 0, 0, 0, time.UTC) }
	scorer := &fakeScorer{failOn: "2024-09-24"}
	job, err := NewForecastScoringJob(ForecastScoringJobParams{Forecasts: scorer, Logger: testLogger(), Now: now})
	require.NoError(t, err)

	scored, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-09-24")
	assert.Equal(t, 4, scored)
	assert.Len(t, scorer.days, defaultScoringLookback)
}

func TestSummaryWarmJobWarmsYesterdayAndToday(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 9, 26, 12, 0, 0, 0, time.UTC) }
	summaries := &fakeSummarizer{}
	job, err := NewSummaryWarmJob(summaries, time.UTC, now)
	require.NoError(t, err)

	warmed, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, warmed)
	assert.Equal(t, []string{"2024-09-25", "2024-09-26"}, summaries.days)
}

func TestJobConstructorsRequireDependencies(t *testing.T) {
	_, err := NewForecastScoringJob(ForecastScoringJobParams{Logger: testLogger()})
	require.Error(t, err)
	_, err = NewSummaryWarmJob(nil, nil, nil)
	require.Error(t, err)
}
