package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup outcomes for the summary cache counter.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// LedgerMetrics counts ledger writes, rejected writes and summary cache behaviour.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	writes        *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeline_ledger_writes_total",
		Help: "Ledger and inventory records accepted, by entity.",
	}, []string{"entity"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeline_ledger_rejections_total",
		Help: "Ledger and inventory writes rejected, by entity and error code.",
	}, []string{"entity", "code"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeline_summary_cache_lookups_total",
		Help: "Daily summary cache lookups, by result.",
	}, []string{"result"})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeline_summary_invalidations_total",
		Help: "Daily summary version bumps, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(writes, rejections, cacheLookups, invalidations)
	return &LedgerMetrics{
		writes:        writes,
		rejections:    rejections,
		cacheLookups:  cacheLookups,
		invalidations: invalidations,
	}
}

// IncWrite counts an accepted write for entity.
func (m *LedgerMetrics) IncWrite(entity string) {
	if m == nil || m.writes == nil {
		return
	}
	m.writes.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncRejection counts a rejected write for entity with the error code that rejected it.
func (m *LedgerMetrics) IncRejection(entity, code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(entity), normalizeLabel(code)).Inc()
}

// IncCacheLookup counts a summary cache lookup with its result.
func (m *LedgerMetrics) IncCacheLookup(result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncInvalidation counts a summary version bump; failed bumps are worth alerting on.
func (m *LedgerMetrics) IncInvalidation(ok bool) {
	if m == nil || m.invalidations == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.invalidations.WithLabelValues(outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
