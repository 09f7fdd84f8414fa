package summary

import (
	"context"
	"time"
)

// Cache is the subset of the redis client the summary materialization needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Version(ctx context.Context, key string) (int64, error)
	SummaryVersionKey(day string) string
	SummaryKey(day string, version int64) string
}
