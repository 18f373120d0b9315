package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var breakerStates = []string{"closed", "half-open", "open"}

// UpstreamMetrics implements resilience.Hooks for one service.
type UpstreamMetrics struct {
	service      string
	retries      *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func newUpstreamMetrics(service string, registry *prometheus.Registry) *UpstreamMetrics {
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vi",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retries scheduled for outbound calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vi",
			Subsystem: "upstream",
			Name:      "circuit_breaker_state",
			Help:      "1 for the current breaker state of each operation, 0 otherwise.",
		},
		[]string{"service", "operation", "state"},
	)
	registry.MustRegister(retries, breakerState)
	return &UpstreamMetrics{service: service, retries: retries, breakerState: breakerState}
}

func (m *UpstreamMetrics) OnRetry(operation string, _ int) {
	m.retries.WithLabelValues(m.service, operation).Inc()
}

func (m *UpstreamMetrics) OnBreakerStateChange(operation string, _ string, to string) {
	for _, state := range breakerStates {
		value := 0.0
		if state == to {
			value = 1
		}
		m.breakerState.WithLabelValues(m.service, operation, state).Set(value)
	}
}
