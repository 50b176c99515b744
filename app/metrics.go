package app

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "app"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Height of the last committed block.
	Height metrics.Gauge
	// Number of transactions processed, labeled by phase (check, deliver)
	// and result code name.
	Txs metrics.Counter
	// Number of event records committed.
	EventsCommitted metrics.Counter
	// Time spent writing a block to the database.
	CommitSeconds metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Height of the last committed block.",
		}, []string{}),
		Txs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "txs",
			Help:      "Number of transactions processed.",
		}, []string{"phase", "code"}),
		EventsCommitted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "events_committed",
			Help:      "Number of event records committed.",
		}, []string{}),
		CommitSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "commit_seconds",
			Help:      "Time spent writing a block to the database.",
			Buckets:   stdprometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Height:          discard.NewGauge(),
		Txs:             discard.NewCounter(),
		EventsCommitted: discard.NewCounter(),
		CommitSeconds:   discard.NewHistogram(),
	}
}
