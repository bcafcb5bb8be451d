package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// Metrics holds the counters and timings of learner runs. Each instance
// owns its registry so that several pipelines can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RunsStarted  *prometheus.CounterVec
	RunFailures  *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec
	ActiveRuns   prometheus.Gauge
	OutputLines  *prometheus.CounterVec
	Preprocessed prometheus.Counter
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "higgsml",
			Name:      "learner_runs_started_total",
			Help:      "Learner runs launched, by mode.",
		}, []string{"mode"}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "higgsml",
			Name:      "learner_run_failures_total",
			Help:      "Learner runs that exited unsuccessfully, by mode.",
		}, []string{"mode"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "higgsml",
			Name:      "learner_run_duration_seconds",
			Help:      "Wall time from launch to exit of learner runs, by mode.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"mode"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "higgsml",
			Name:      "learner_runs_active",
			Help:      "Learner runs launched and not yet awaited.",
		}),
		OutputLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "higgsml",
			Name:      "learner_output_lines_total",
			Help:      "Console lines read from learner runs, by mode.",
		}, []string{"mode"}),
		Preprocessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "higgsml",
			Name:      "events_serialized_total",
			Help:      "Event rows handed to the learner.",
		}),
	}
	m.registry.MustRegister(
		m.RunsStarted,
		m.RunFailures,
		m.RunDuration,
		m.ActiveRuns,
		m.OutputLines,
		m.Preprocessed,
	)
	return m
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteToTextfile writes the metrics to path in the text exposition format.
func (m *Metrics) WriteToTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, m.registry), "pipeline: write metrics %s", path)
}
