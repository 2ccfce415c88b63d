package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ResilienceMetrics exports retry and circuit breaker events of outbound calls.
// It satisfies resilience.Observer.
type ResilienceMetrics struct {
	service      string
	retriesTotal *prometheus.CounterVec
	retryBackoff *prometheus.HistogramVec
	breakerState *prometheus.GaugeVec
}

// NewResilienceMetrics registers the collectors with every given registry, so
// both the API and the worker endpoints can expose them.
func NewResilienceMetrics(service string, registerers ...prometheus.Registerer) *ResilienceMetrics {
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retries scheduled for outbound operations.",
		},
		[]string{"service", "operation"},
	)
	retryBackoff := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retry_backoff_seconds",
			Help:      "Wait before each retry.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2},
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "circuit_breaker_open",
			Help:      "1 while the breaker of an operation is open, 0.5 when half-open, 0 when closed.",
		},
		[]string{"service", "operation"},
	)

	for _, reg := range registerers {
		if reg != nil {
			reg.MustRegister(retriesTotal, retryBackoff, breakerState)
		}
	}

	return &ResilienceMetrics{
		service:      service,
		retriesTotal: retriesTotal,
		retryBackoff: retryBackoff,
		breakerState: breakerState,
	}
}

func (m *ResilienceMetrics) RetryScheduled(operation string, _ int, wait time.Duration) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
	m.retryBackoff.WithLabelValues(m.service, operation).Observe(wait.Seconds())
}

func (m *ResilienceMetrics) BreakerStateChanged(operation string, _, to string) {
	value := 0.0
	switch to {
	case "open":
		value = 1
	case "half-open":
		value = 0.5
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
