// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dex-spillover-lab/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "spillover"

// Fatal error categories.
const (
	CategorySchema    = "schema"
	CategoryOrdering  = "ordering"
	CategoryAmbiguity = "ambiguity"
	CategoryCausality = "causality"
	CategoryStorage   = "storage"
	CategoryInput     = "input"
	CategoryOther     = "other"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	// Pipeline metrics
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	RowsProcessed *prometheus.CounterVec

	// Data quality metrics
	MissingValues   *prometheus.GaugeVec
	DataLossPercent *prometheus.GaugeVec
	FatalErrors     *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(namespace, reg, reg)
}

func newMetrics(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: gatherer,

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by command and status",
		}, []string{"command", "status"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_processed_total",
			Help:      "Total number of rows emitted by each stage",
		}, []string{"stage"}),

		MissingValues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "missing_values",
			Help:      "Number of missing values per feature column",
		}, []string{"variant", "column"}),
		DataLossPercent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "data_loss_percent",
			Help:      "Share of rows dropped at each join or filter",
		}, []string{"variant", "stage"}),
		FatalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fatal_errors_total",
			Help:      "Total number of fatal errors by category",
		}, []string{"category"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records a stage duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddRows records the number of rows a stage emitted.
func (m *Metrics) AddRows(stage string, n int) {
	if m == nil {
		return
	}
	m.RowsProcessed.WithLabelValues(stage).Add(float64(n))
}

// RecordLoss records the data loss of one join or filter.
func (m *Metrics) RecordLoss(l domain.LossReport) {
	if m == nil {
		return
	}
	m.DataLossPercent.WithLabelValues(l.Variant, l.Stage).Set(l.Percent())
}

// SetMissing records the missing-value census of one variant.
func (m *Metrics) SetMissing(variant string, counts map[string]int) {
	if m == nil {
		return
	}
	for column, n := range counts {
		m.MissingValues.WithLabelValues(variant, column).Set(float64(n))
	}
}

// RecordFatal increments the fatal error counter of a category.
func (m *Metrics) RecordFatal(category string) {
	if m == nil {
		return
	}
	m.FatalErrors.WithLabelValues(category).Inc()
}

// RecordRun records a finished command run.
func (m *Metrics) RecordRun(command string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	} else {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
	m.RunsTotal.WithLabelValues(command, status).Inc()
}
