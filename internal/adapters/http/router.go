package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kirillkom/vector-insight/internal/config"
	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
	"github.com/kirillkom/vector-insight/internal/observability/metrics"
)

const (
	serviceName      = "vector-insight-api"
	maxRequestBytes  = 1 << 20
	backpressureWait = 250 * time.Millisecond
)

type Router struct {
	cfg         config.Config
	search      ports.SearchService
	refresher   ports.IndexRefresher
	recommender ports.ProductRecommender
	metrics     *metrics.HTTPServerMetrics
}

// NewRouter wires the HTTP surface. refresher and httpMetrics may be nil.
func NewRouter(
	cfg config.Config,
	search ports.SearchService,
	refresher ports.IndexRefresher,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		search:    search,
		refresher: refresher,
		metrics:   httpMetrics,
	}
}

// WithRecommender enables product recommendations. Without one the route answers 503.
func (rt *Router) WithRecommender(recommender ports.ProductRecommender) *Router {
	rt.recommender = recommender
	return rt
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/vector/search/products", rt.searchHandler(domain.CategoryProduct))
	api.HandleFunc("POST /api/vector/search/customers", rt.searchHandler(domain.CategoryCustomer))
	api.HandleFunc("POST /api/vector/recommend/products", rt.recommendProducts)
	api.HandleFunc("GET /api/vector/status", rt.status)
	api.HandleFunc("POST /api/vector/refresh", rt.refresh)

	var apiHandler http.Handler = api
	apiHandler = backpressureMiddleware(apiHandler, rt.cfg.APIMaxInFlight, backpressureWait)
	apiHandler = rateLimitMiddleware(apiHandler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("/api/", apiHandler)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return otelhttp.NewHandler(handler, serviceName)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchHandler(category domain.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		var req searchRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Query == nil || strings.TrimSpace(*req.Query) == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		payload, err := rt.search.Search(r.Context(), domain.Query{
			Text:            *req.Query,
			Category:        category,
			Limit:           req.Limit,
			IncludeAnalysis: req.IncludeAnalysis,
		})
		if rt.metrics != nil {
			count := 0
			if payload != nil {
				count = len(payload.Results)
			}
			rt.metrics.RecordSearch(serviceName, category.String(), count, time.Since(started), err)
		}
		if err != nil {
			rt.writeDomainError(w, r, "search", err)
			return
		}

		writeJSON(w, http.StatusOK, toSearchResponse(*req.Query, payload))
	}
}

func (rt *Router) recommendProducts(w http.ResponseWriter, r *http.Request) {
	if rt.recommender == nil {
		writeError(w, http.StatusServiceUnavailable, "product recommendations are not configured")
		return
	}

	var req recommendRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	customerID := strings.TrimSpace(req.CustomerID.String())
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	rec, err := rt.recommender.RecommendProducts(r.Context(), customerID, req.Limit)
	if err != nil {
		rt.writeDomainError(w, r, "recommend", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendResponse(rec))
}

func (rt *Router) status(w http.ResponseWriter, r *http.Request) {
	status := rt.search.Status(r.Context())
	counts := status.Counts
	if counts == nil {
		counts = map[string]int{}
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Success:   true,
		Available: status.Available,
		Counts:    counts,
	})
}

func (rt *Router) refresh(w http.ResponseWriter, r *http.Request) {
	if rt.refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "index refresh is not configured")
		return
	}

	jobID, err := rt.refresher.RequestRefresh(r.Context())
	if rt.metrics != nil {
		rt.metrics.RecordRefreshRequest(serviceName, err)
	}
	if err != nil {
		rt.writeDomainError(w, r, "refresh", err)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{
		Success: true,
		JobID:   jobID,
		Message: "index refresh requested",
	})
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
	}
	writeError(w, status, publicErrorMessage(err, status))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}
