package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bakeline-backend/internal/summary"
	"github.com/angelmondragon/bakeline-backend/pkg/dates"
)

type summarizer interface {
	Summarize(ctx context.Context, day time.Time) (*summary.DailySummary, error)
}

// SummaryWarmJob materializes the daily summary of today and yesterday so the first dashboard
// read after a quiet period is served from cache.
type SummaryWarmJob struct {
	summaries summarizer
	loc       *time.Location
	now       func() time.Time
}

func NewSummaryWarmJob(summaries summarizer, loc *time.Location, now func() time.Time) (*SummaryWarmJob, error) {
	if summaries == nil {
		return nil, fmt.Errorf("summary service required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &SummaryWarmJob{summaries: summaries, loc: loc, now: now}, nil
}

func (j *SummaryWarmJob) Name() string { return "summary_warm" }

func (j *SummaryWarmJob) Run(ctx context.Context) (int, error) {
	today := dates.TodayAt(j.now(), j.loc)
	warmed := 0
	var errs error
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		if _, err := j.summaries.Summarize(ctx, day); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("summarize %s: %w", dates.Format(day), err))
			continue
		}
		warmed++
	}
	return warmed, errs
}
