package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchRequestsTotal *prometheus.CounterVec
	searchResults       *prometheus.HistogramVec
	searchDuration      *prometheus.HistogramVec
	analysisTotal       *prometheus.CounterVec
	analysisAttempts    *prometheus.HistogramVec
	analysisDuration    *prometheus.HistogramVec
	refreshRequests     *prometheus.CounterVec

	Upstream *UpstreamMetrics
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vi",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vi",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total search pipeline runs by category and status.",
		},
		[]string{"service", "category", "status"},
	)
	searchResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vi",
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of ranked results per successful search.",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50, 100},
		},
		[]string{"service", "category"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vi",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search pipeline duration in seconds, analysis included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "category"},
	)
	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vi",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total analysis calls by outcome status.",
		},
		[]string{"service", "model", "status"},
	)
	analysisAttempts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vi",
			Subsystem: "analysis",
			Name:      "attempts",
			Help:      "Provider attempts per analysis call.",
			Buckets:   []float64{0, 1, 2, 3},
		},
		[]string{"service", "model"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vi",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "model"},
	)
	refreshRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vi",
			Subsystem: "index",
			Name:      "refresh_requests_total",
			Help:      "Total index refresh requests published by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchRequestsTotal,
		searchResults,
		searchDuration,
		analysisTotal,
		analysisAttempts,
		analysisDuration,
		refreshRequests,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		searchRequestsTotal: searchRequestsTotal,
		searchResults:       searchResults,
		searchDuration:      searchDuration,
		analysisTotal:       analysisTotal,
		analysisAttempts:    analysisAttempts,
		analysisDuration:    analysisDuration,
		refreshRequests:     refreshRequests,
		Upstream:            newUpstreamMetrics(service, registry),
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

var knownPaths = map[string]struct{}{
	"/api/vector/search/products":    {},
	"/api/vector/search/customers":   {},
	"/api/vector/recommend/products": {},
	"/api/vector/status":             {},
	"/api/vector/refresh":            {},
	"/healthz":                       {},
	"/metrics":                       {},
}

// normalizePath folds unknown paths into one label to bound cardinality.
func normalizePath(path string) string {
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return "other"
}

func (m *HTTPServerMetrics) RecordSearch(service, category string, resultCount int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.searchRequestsTotal.WithLabelValues(service, category, status).Inc()
	if err != nil {
		return
	}
	m.searchResults.WithLabelValues(service, category).Observe(float64(resultCount))
	m.searchDuration.WithLabelValues(service, category).Observe(duration.Seconds())
}

// ObserveAnalysis records one Analysis Client call.
func (m *HTTPServerMetrics) ObserveAnalysis(model, status string, attempts int, duration time.Duration) {
	if model == "" {
		model = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.analysisTotal.WithLabelValues(m.service, model, status).Inc()
	if status == "unavailable" || status == "cache_hit" {
		return
	}
	m.analysisAttempts.WithLabelValues(m.service, model).Observe(float64(attempts))
	m.analysisDuration.WithLabelValues(m.service, model).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRefreshRequest(service string, err error) {
	status := "accepted"
	if err != nil {
		status = "error"
	}
	m.refreshRequests.WithLabelValues(service, status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
