package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
	"github.com/angelmondragon/bakeline-backend/pkg/logger"
	"github.com/angelmondragon/bakeline-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/bakeline-backend/pkg/redis"
	"github.com/shopspring/decimal"
)

// DailySummary totals the three ledgers for one calendar day.
type DailySummary struct {
	Date      string          `json:"date"`
	Produced  decimal.Decimal `json:"produced"`
	Decorated decimal.Decimal `json:"decorated"`
	Wasted    decimal.Decimal `json:"wasted"`
}

// Service computes daily summaries and, when a cache is configured, materializes them.
type Service interface {
	Summarize(ctx context.Context, day time.Time) (*DailySummary, error)
	InvalidateDay(ctx context.Context, day time.Time)
}

// Options configures the optional cache. A nil Cache disables materialization.
type Options struct {
	Cache    Cache
	CacheTTL time.Duration
	Location *time.Location
	Metrics  *metrics.LedgerMetrics
}

type service struct {
	repo    Repository
	cache   Cache
	ttl     time.Duration
	loc     *time.Location
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
}

// NewService wires the aggregator.
func NewService(repo Repository, logg *logger.Logger, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("summary repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:    repo,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		loc:     loc,
		logg:    logg,
		metrics: opts.Metrics,
	}, nil
}

// Summarize is always equal to a fresh computation over the ledgers. A cached value is keyed
// by the day's write version, so any write to the day makes older entries unreachable.
func (s *service) Summarize(ctx context.Context, day time.Time) (*DailySummary, error) {
	day = dates.Normalize(day)
	if s.cache == nil {
		return s.compute(ctx, day)
	}

	label := dates.Format(day)
	version, err := s.cache.Version(ctx, s.cache.SummaryVersionKey(label))
	if err != nil {
		s.metrics.IncCacheLookup(metrics.CacheError)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "summary cache unavailable")
		return s.compute(ctx, day)
	}

	key := s.cache.SummaryKey(label, version)
	if cached, ok := s.lookup(ctx, key); ok {
		return cached, nil
	}

	out, err := s.compute(ctx, day)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(out); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "summary cache write failed")
		}
	}
	return out, nil
}

// InvalidateDay bumps the day's write version. Failures are logged only: entries expire after
// the cache TTL regardless.
func (s *service) InvalidateDay(ctx context.Context, day time.Time) {
	if s.cache == nil {
		return
	}
	label := dates.Format(dates.Normalize(day))
	if _, err := s.cache.Incr(ctx, s.cache.SummaryVersionKey(label)); err != nil {
		s.metrics.IncInvalidation(false)
		ctx = s.logg.WithFields(ctx, map[string]any{"date": label, "error": err.Error()})
		s.logg.Warn(ctx, "summary version bump failed")
		return
	}
	s.metrics.IncInvalidation(true)
}

func (s *service) lookup(ctx context.Context, key string) (*DailySummary, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNil(err) {
			s.metrics.IncCacheLookup(metrics.CacheMiss)
		} else {
			s.metrics.IncCacheLookup(metrics.CacheError)
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "summary cache read failed")
		}
		return nil, false
	}
	var out DailySummary
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.metrics.IncCacheLookup(metrics.CacheError)
		return nil, false
	}
	s.metrics.IncCacheLookup(metrics.CacheHit)
	return &out, true
}

func (s *service) compute(ctx context.Context, day time.Time) (*DailySummary, error) {
	start, end := dates.Range(day)
	produced, err := s.repo.SumProduced(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: sum production lots")
	}
	since, before := dates.InstantRange(day, s.loc)
	decorated, err := s.repo.SumDecorated(ctx, since, before)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: sum decoration events")
	}
	wasted, err := s.repo.SumWasted(ctx, start, end)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: sum waste events")
	}
	return &DailySummary{
		Date:      dates.Format(day),
		Produced:  produced,
		Decorated: decorated,
		Wasted:    wasted,
	}, nil
}
