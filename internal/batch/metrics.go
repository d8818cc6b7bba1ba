package batch

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsPrefix = "foldbatch_"
	statusLabel   = "status"
)

// Metrics collects per-invocation job metrics. A batch runner has no scrape endpoint, so the metrics are written to a
// file in the Prometheus text format for node_exporter's textfile collector to pick up.
type Metrics struct {
	registry      *prometheus.Registry
	jobsProcessed *prometheus.CounterVec
	jobDurations  *prometheus.HistogramVec
	batchJobs     *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

func NewMetrics() *Metrics {
	jobsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricsPrefix + "jobs_processed_total",
			Help: "Jobs run to a terminal status by this invocation",
		},
		[]string{statusLabel},
	)
	jobDurations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricsPrefix + "job_duration_seconds",
			Help:    "Wall-clock time of a single prediction",
			Buckets: prometheus.ExponentialBuckets(30, 2, 12),
		},
		[]string{statusLabel},
	)
	batchJobs := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricsPrefix + "batch_jobs",
			Help: "Jobs in the batch by status",
		},
		[]string{statusLabel},
	)
	lastRun := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metricsPrefix + "last_run_timestamp_seconds",
			Help: "Time at which the batch state was last recorded",
		},
	)
	registry := prometheus.NewRegistry()
	registry.MustRegister(jobsProcessed, jobDurations, batchJobs, lastRun)
	return &Metrics{
		registry:      registry,
		jobsProcessed: jobsProcessed,
		jobDurations:  jobDurations,
		batchJobs:     batchJobs,
		lastRun:       lastRun,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordJob records one finished attempt.
func (m *Metrics) RecordJob(status Status, duration time.Duration) {
	m.jobsProcessed.WithLabelValues(status.String()).Inc()
	m.jobDurations.WithLabelValues(status.String()).Observe(duration.Seconds())
}

// RecordState sets the per-status job gauges from a snapshot of the batch.
func (m *Metrics) RecordState(states []JobState, now time.Time) {
	for status, count := range CountByStatus(states) {
		m.batchJobs.WithLabelValues(status.String()).Set(float64(count))
	}
	m.lastRun.Set(float64(now.Unix()))
}

// WriteTextfile writes every metric to path, replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "error writing metrics to %s", path)
	}
	return nil
}
