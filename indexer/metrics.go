package indexer

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "indexer"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Latency for indexing one batch, labeled by sink.
	IndexSeconds metrics.Histogram

	// Number of batches indexed, labeled by sink.
	BatchesIndexed metrics.Counter

	// Number of event records indexed, labeled by sink.
	EventsIndexed metrics.Counter

	// Number of failed indexing attempts, labeled by sink.
	IndexErrors metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		IndexSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "index_seconds",
			Help:      "Latency for indexing one committed batch.",
			Buckets:   stdprometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"sink"}),
		BatchesIndexed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_indexed",
			Help:      "Number of committed batches indexed.",
		}, []string{"sink"}),
		EventsIndexed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "events_indexed",
			Help:      "Number of event records indexed.",
		}, []string{"sink"}),
		IndexErrors: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "index_errors",
			Help:      "Number of failed indexing attempts.",
		}, []string{"sink"}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		IndexSeconds:   discard.NewHistogram(),
		BatchesIndexed: discard.NewCounter(),
		EventsIndexed:  discard.NewCounter(),
		IndexErrors:    discard.NewCounter(),
	}
}
