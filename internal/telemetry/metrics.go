// Package telemetry holds the client's Prometheus metrics, registered once
// per Client and shared across its internal components. A nil *Metrics
// (constructed when the caller passes a nil MetricsRegisterer) makes every
// recording method a no-op, so call sites never need a nil check.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the client-wide metric set. Every field is safe to use on a
// nil *Metrics receiver.
type Metrics struct {
	retryAttempts   *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	pullCycles      *prometheus.CounterVec
	pullDuration    *prometheus.HistogramVec
	dispatchedTotal *prometheus.CounterVec
}

// New registers the client's metrics with reg. A nil reg disables metrics
// entirely; the returned *Metrics is nil and every method call on it is a
// no-op.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		retryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acm_client",
			Subsystem: "transport",
			Name:      "retry_attempts_total",
			Help:      "Outbound request attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),

		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acm_client",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "In-memory cache lookups by tier and result.",
		}, []string{"tier", "result"}),

		pullCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acm_client",
			Subsystem: "pulling",
			Name:      "cycles_total",
			Help:      "Long-poll cycles by shard outcome.",
		}, []string{"outcome"}),

		pullDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "acm_client",
			Subsystem: "pulling",
			Name:      "cycle_duration_seconds",
			Help:      "Long-poll cycle duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 40},
		}, []string{"outcome"}),

		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "acm_client",
			Subsystem: "dispatch",
			Name:      "callbacks_total",
			Help:      "Watcher callbacks submitted, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.retryAttempts, m.cacheHits, m.pullCycles, m.pullDuration, m.dispatchedTotal)
	return m
}

func (m *Metrics) RecordRetryAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.retryAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordCacheLookup(tier, result string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(tier, result).Inc()
}

func (m *Metrics) RecordPullCycle(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.pullCycles.WithLabelValues(outcome).Inc()
	m.pullDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *Metrics) RecordDispatch(outcome string) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(outcome).Inc()
}
