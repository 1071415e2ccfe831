// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the analyzer.
type Metrics struct {
	// Upstream request metrics
	RequestAttempts *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec

	// Acquisition metrics
	PagesFetched           prometheus.Counter
	TransactionsClassified *prometheus.CounterVec
	BatchesResolved        prometheus.Counter
	StakeFallbacks         prometheus.Counter

	// Analysis metrics
	AnalysesTotal     *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	NarrativeFailures *prometheus.CounterVec
	SinkErrors        *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_credit_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		RequestAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_attempts_total",
			Help:      "Total number of upstream request attempts by target and outcome",
		}, []string{"target", "outcome"}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream request attempt latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"target"}),

		PagesFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "pages_fetched_total",
			Help:      "Total number of transaction history pages fetched",
		}),
		TransactionsClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "transactions_classified_total",
			Help:      "Total number of transactions classified by size class",
		}, []string{"class"}),
		BatchesResolved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "signature_batches_resolved_total",
			Help:      "Total number of signature batches resolved into parsed transactions",
		}),
		StakeFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assets",
			Name:      "stake_fallbacks_total",
			Help:      "Total number of stake lookups that degraded to zero",
		}),

		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of address analyses by result",
		}, []string{"result"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Address analysis duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		NarrativeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "narrative_failures_total",
			Help:      "Total number of narrative generation failures by stage",
		}, []string{"stage"}),
		SinkErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "sink_errors_total",
			Help:      "Total number of report persistence errors by sink",
		}, []string{"sink"}),

		LastSuccessfulAnalysis: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordRequest records one upstream request attempt.
func RecordRequest(target, outcome string, seconds float64) {
	DefaultMetrics.RequestAttempts.WithLabelValues(target, outcome).Inc()
	DefaultMetrics.RequestLatency.WithLabelValues(target).Observe(seconds)
}

// RecordPage records a fetched history page and its classification split.
func RecordPage(normal, small int) {
	DefaultMetrics.PagesFetched.Inc()
	DefaultMetrics.TransactionsClassified.WithLabelValues("normal").Add(float64(normal))
	DefaultMetrics.TransactionsClassified.WithLabelValues("small").Add(float64(small))
}

// RecordBatchResolved increments the resolved batches counter.
func RecordBatchResolved() {
	DefaultMetrics.BatchesResolved.Inc()
}

// RecordStakeFallback increments the stake fallback counter.
func RecordStakeFallback() {
	DefaultMetrics.StakeFallbacks.Inc()
}

// RecordAnalysis records a finished analysis.
func RecordAnalysis(success bool, durationSeconds float64, finishedUnix int64) {
	result := "failure"
	if success {
		result = "success"
		DefaultMetrics.LastSuccessfulAnalysis.Set(float64(finishedUnix))
	}
	DefaultMetrics.AnalysesTotal.WithLabelValues(result).Inc()
	DefaultMetrics.AnalysisDuration.Observe(durationSeconds)
}

// RecordNarrativeFailure records a narrative failure at stage "generate" or "parse".
func RecordNarrativeFailure(stage string) {
	DefaultMetrics.NarrativeFailures.WithLabelValues(stage).Inc()
}

// RecordSinkError records a failed report save.
func RecordSinkError(sink string) {
	DefaultMetrics.SinkErrors.WithLabelValues(sink).Inc()
}
