// Package observability provides Prometheus metrics and structured logging.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blue-railroad-bot/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "blue_railroad_bot"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal    *prometheus.CounterVec
	RunDuration  prometheus.Histogram
	TokensLoaded prometheus.Gauge

	// Record metrics
	MalformedRecords prometheus.Counter

	// Page metrics
	PagesTotal *prometheus.CounterVec

	// Sink metrics
	SinkErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Run metrics
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "runs_total",
			Help:      "Total number of import runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Import run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		TokensLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "tokens_loaded",
			Help:      "Number of tokens normalized by the last run",
		}),

		// Record metrics
		MalformedRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "malformed_records_total",
			Help:      "Total number of chain-data records skipped as malformed",
		}),

		// Page metrics
		PagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wiki",
			Name:      "pages_total",
			Help:      "Total number of planned pages by kind and outcome",
		}, []string{"kind", "outcome"}),

		// Sink metrics
		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "sink_errors_total",
			Help:      "Total number of failed run-history or snapshot writes",
		}, []string{"sink"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful import run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler serving the metrics of a specific registry.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRun records a finished run. A nil summary or non-nil err counts as fatal.
func (m *Metrics) RecordRun(s *domain.RunSummary, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(duration.Seconds())
	if err != nil || s == nil {
		m.RunsTotal.WithLabelValues("fatal").Inc()
		return
	}

	m.RunsTotal.WithLabelValues("success").Inc()
	m.TokensLoaded.Set(float64(s.TokensLoaded))
	m.MalformedRecords.Add(float64(s.MalformedRecords))
	m.LastSuccessfulRun.Set(float64(s.FinishedAt.Unix()))

	for _, p := range s.Pages {
		outcome := string(p.Action)
		if p.Failed() {
			outcome = "failed"
		}
		m.PagesTotal.WithLabelValues(string(p.Kind), outcome).Inc()
	}
}

// RecordSinkError records a failed write to an optional sink ("runs", "snapshots").
func (m *Metrics) RecordSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink).Inc()
}
