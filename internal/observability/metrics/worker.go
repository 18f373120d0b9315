package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	syncTotal      *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	syncInFlight   prometheus.Gauge
	indexedRecords *prometheus.GaugeVec

	Upstream *UpstreamMetrics
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	syncTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vi",
			Subsystem: "worker",
			Name:      "index_sync_total",
			Help:      "Total index sync runs by status.",
		},
		[]string{"service", "status"},
	)
	syncDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vi",
			Subsystem: "worker",
			Name:      "index_sync_duration_seconds",
			Help:      "Index sync duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	syncInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vi",
			Subsystem: "worker",
			Name:      "index_sync_in_flight",
			Help:      "Number of in-flight index sync runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	indexedRecords := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vi",
			Subsystem: "worker",
			Name:      "indexed_records",
			Help:      "Records written by the last successful sync per category.",
		},
		[]string{"service", "category"},
	)

	registry.MustRegister(syncTotal, syncDuration, syncInFlight, indexedRecords)

	return &WorkerMetrics{
		registry:       registry,
		syncTotal:      syncTotal,
		syncDuration:   syncDuration,
		syncInFlight:   syncInFlight,
		indexedRecords: indexedRecords,
		Upstream:       newUpstreamMetrics(service, registry),
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartSync() {
	m.syncInFlight.Inc()
}

func (m *WorkerMetrics) FinishSync(service string, duration time.Duration, err error) {
	m.syncInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.syncTotal.WithLabelValues(service, status).Inc()
	m.syncDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) SetIndexedRecords(service, category string, count int) {
	if count < 0 {
		return
	}
	m.indexedRecords.WithLabelValues(service, category).Set(float64(count))
}
