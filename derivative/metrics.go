package derivative

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "derivative"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of options created.
	OptionsCreated metrics.Counter
	// Number of options sold, labeled by path (buy, bid).
	OptionsSold metrics.Counter
	// Number of options settled, labeled by path (execute, claim, cancel).
	Settlements metrics.Counter
	// Number of calls rejected by the reentrancy guard.
	ReentrantCalls metrics.Counter
	// Number of randomness requests issued.
	OracleRequests metrics.Counter
	// Number of randomness requests fulfilled.
	OracleFulfillments metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		OptionsCreated: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "options_created",
			Help:      "Number of options created.",
		}, []string{}),
		OptionsSold: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "options_sold",
			Help:      "Number of options sold.",
		}, []string{"path"}),
		Settlements: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "settlements",
			Help:      "Number of options whose collateral was released.",
		}, []string{"path"}),
		ReentrantCalls: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "reentrant_calls",
			Help:      "Number of calls rejected by the reentrancy guard.",
		}, []string{}),
		OracleRequests: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "oracle_requests",
			Help:      "Number of randomness requests issued.",
		}, []string{}),
		OracleFulfillments: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "oracle_fulfillments",
			Help:      "Number of randomness requests fulfilled.",
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		OptionsCreated:     discard.NewCounter(),
		OptionsSold:        discard.NewCounter(),
		Settlements:        discard.NewCounter(),
		ReentrantCalls:     discard.NewCounter(),
		OracleRequests:     discard.NewCounter(),
		OracleFulfillments: discard.NewCounter(),
	}
}
