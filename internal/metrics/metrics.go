// Package metrics holds the Prometheus collectors for the refresh engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Refresh outcomes
const (
	OutcomeCached     = "cached"
	OutcomeResolved   = "resolved"
	OutcomeEmpty      = "empty"
	OutcomeFailed     = "failed"
	OutcomeRegistered = "registered"
)

// Metrics groups the collectors exported by traktcache
type Metrics struct {
	Refreshes     *prometheus.CounterVec
	ResolverCalls prometheus.Counter
	BatchSize     prometheus.Histogram
	BatchDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg (if not nil)
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "traktcache",
			Name:      "refreshes_total",
			Help:      "Single-item refreshes by outcome.",
		}, []string{"outcome"}),
		ResolverCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "traktcache",
			Name:      "resolver_calls_total",
			Help:      "Metadata resolver invocations after in-flight deduplication.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "traktcache",
			Name:      "batch_dispatched_items",
			Help:      "Items dispatched for refresh per batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "traktcache",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of batch refreshes, dispatch to join.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Refreshes, m.ResolverCalls, m.BatchSize, m.BatchDuration)
	}
	return m
}
