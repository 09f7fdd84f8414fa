package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records scheduled job runs. A nil *JobMetrics records nothing.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	items    *prometheus.CounterVec
}

// NewJobMetrics registers the scheduler metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bakeline_job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeline_job_runs_total",
		Help: "Scheduled job executions, by job and outcome.",
	}, []string{"job", "outcome"})
	items := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeline_job_items_total",
		Help: "Records processed by scheduled jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, items)
	return &JobMetrics{duration: duration, runs: runs, items: items}
}

func (j *JobMetrics) ObserveDuration(job string, elapsed time.Duration) {
	if j == nil || j.duration == nil {
		return
	}
	j.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
}

// IncRun counts one finished run of job.
func (j *JobMetrics) IncRun(job string, ok bool) {
	if j == nil || j.runs == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	j.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

// AddItems counts records a job touched, e.g. forecasts scored.
func (j *JobMetrics) AddItems(job string, n int) {
	if j == nil || j.items == nil || n <= 0 {
		return
	}
	j.items.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}
