package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/retry"
)

const unnamedOperation = "unnamed"

// RetryCollector is a retry.Observer that records attempt lifecycles as
// Prometheus metrics.
type RetryCollector struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	backoff  *prometheus.HistogramVec
	elapsed  *prometheus.HistogramVec
}

// NewRetryCollector registers the retry metrics with reg. It panics if they
// are already registered.
func NewRetryCollector(reg prometheus.Registerer) *RetryCollector {
	factory := promauto.With(reg)

	return &RetryCollector{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_upstream_attempts_total",
				Help: "Total number of upstream operation attempts",
			},
			[]string{"operation"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_upstream_retries_total",
				Help: "Total number of scheduled retries",
			},
			[]string{"operation"},
		),
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_upstream_outcomes_total",
				Help: "Final outcome of upstream operations",
			},
			[]string{"operation", "outcome"},
		),
		backoff: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_upstream_backoff_seconds",
				Help:    "Scheduled wait before a retry",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"operation"},
		),
		elapsed: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_upstream_operation_seconds",
				Help:    "Time from first attempt to final outcome, waits included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),
	}
}

// Observe implements retry.Observer.
func (c *RetryCollector) Observe(_ context.Context, ev retry.Event) {
	op := ev.Operation
	if op == "" {
		op = unnamedOperation
	}

	switch ev.State {
	case retry.StateAttempting:
		c.attempts.WithLabelValues(op).Inc()
	case retry.StateRetrying:
		c.retries.WithLabelValues(op).Inc()
		c.backoff.WithLabelValues(op).Observe(ev.Delay.Seconds())
	case retry.StateSucceeded, retry.StateExhausted, retry.StateAborted:
		outcome := ev.State.String()
		c.outcomes.WithLabelValues(op, outcome).Inc()
		c.elapsed.WithLabelValues(op, outcome).Observe(ev.Elapsed.Seconds())
	}
}

// MetricsHandler serves the metrics gathered by g in the Prometheus text format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
