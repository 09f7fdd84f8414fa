package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bakeline-backend/internal/forecasts"
	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
)

const defaultScoringLookback = 3

type dateScorer interface {
	ScoreDate(ctx context.Context, day time.Time) ([]forecasts.ForecastDTO, error)
}

// ForecastScoringJobParams configure the nightly scorer.
type ForecastScoringJobParams struct {
	Forecasts dateScorer
	Logger    *logger.Logger
	Location  *time.Location
	// Lookback is how many closed days, ending yesterday, are rescanned for pending forecasts.
	Lookback int
	Now      func() time.Time
}

// ForecastScoringJob scores pending forecasts for recently closed business days. Scoring is
// idempotent, so rescanning days that were already scored only picks up late forecasts.
type ForecastScoringJob struct {
	forecasts dateScorer
	logg      *logger.Logger
	loc       *time.Location
	lookback  int
	now       func() time.Time
}

func NewForecastScoringJob(params ForecastScoringJobParams) (*ForecastScoringJob, error) {
	if params.Forecasts == nil {
		return nil, fmt.Errorf("forecast service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultScoringLookback
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &ForecastScoringJob{
		forecasts: params.Forecasts,
		logg:      params.Logger,
		loc:       loc,
		lookback:  lookback,
		now:       now,
	}, nil
}

func (j *ForecastScoringJob) Name() string { return "forecast_scoring" }

func (j *ForecastScoringJob) Run(ctx context.Context) (int, error) {
	today := dates.TodayAt(j.now(), j.loc)
	total := 0
	var errs error
	for offset := j.lookback; offset >= 1; offset-- {
		day := today.AddDate(0, 0, -offset)
		scored, err := j.forecasts.ScoreDate(ctx, day)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("score %s: %w", dates.Format(day), err))
			continue
		}
		if len(scored) > 0 {
			j.logg.Info(j.logg.WithFields(ctx, map[string]any{
				"date":   dates.Format(day),
				"scored": len(scored),
			}), "forecasts scored")
		}
		total += len(scored)
	}
	return total, errs
}
