package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/vector-insight/internal/config"
	"github.com/kirillkom/vector-insight/internal/core/ports"
	"github.com/kirillkom/vector-insight/internal/core/usecase"
	"github.com/kirillkom/vector-insight/internal/infrastructure/analysis"
	"github.com/kirillkom/vector-insight/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/vector-insight/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/vector-insight/internal/infrastructure/queue/nats"
	"github.com/kirillkom/vector-insight/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/vector-insight/internal/infrastructure/resilience"
	"github.com/kirillkom/vector-insight/internal/infrastructure/vector/memory"
	"github.com/kirillkom/vector-insight/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/vector-insight/internal/observability/metrics"
)

const (
	APIServiceName    = "vector-insight-api"
	WorkerServiceName = "vector-insight-worker"
)

type App struct {
	Config config.Config

	SearchUC    ports.SearchService
	Refresher   ports.IndexRefresher
	Recommender ports.ProductRecommender
	Metrics     *metrics.HTTPServerMetrics

	closers []func()
}

// NewAPI wires the query pipeline. A missing Gemini credential, an unreachable
// warehouse or an unreachable NATS server degrades the corresponding feature
// instead of failing startup.
func NewAPI(_ context.Context, cfg config.Config) (*App, error) {
	httpMetrics := metrics.NewHTTPServerMetrics(APIServiceName)
	executor := resilience.NewExecutor(cfg.ResilienceConfig(), resilience.WithHooks(httpMetrics.Upstream))
	embedder := ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor))

	index, err := newEmbeddingIndex(cfg, embedder, executor)
	if err != nil {
		return nil, err
	}

	var generator ports.TextGenerator
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		generator = gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	analyzer := analysis.New(cfg.AnalysisConfig(), generator, executor, analysis.WithObserver(httpMetrics))

	searchUC := usecase.NewSearchUseCase(index, analyzer, cfg.SearchDefaultLimit, cfg.AnalysisTimeout)

	app := &App{
		Config:   cfg,
		SearchUC: searchUC,
		Metrics:  httpMetrics,
	}

	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			slog.Warn("product_recommendations_disabled", "error", err)
		} else {
			app.Recommender = usecase.NewRecommendUseCase(postgres.NewProfileStore(db), index)
			app.closers = append(app.closers, func() { _ = db.Close() })
		}
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		slog.Warn("index_refresh_disabled", "error", err)
		return app, nil
	}
	app.Refresher = usecase.NewRefreshUseCase(queue)
	app.closers = append(app.closers, queue.Close)
	return app, nil
}

func newEmbeddingIndex(cfg config.Config, embedder ports.Embedder, executor *resilience.Executor) (ports.EmbeddingIndex, error) {
	switch cfg.IndexBackend {
	case config.IndexBackendQdrant:
		return qdrant.NewIndex(qdrant.New(cfg.QdrantURL, executor), embedder), nil
	case config.IndexBackendMemory:
		records, err := memory.LoadSnapshot(cfg.IndexSnapshotPath)
		if err != nil {
			// Serve with an unbuilt index: searches report the index as unavailable.
			slog.Error("index_snapshot_load_failed", "path", cfg.IndexSnapshotPath, "error", err)
			return memory.New(embedder), nil
		}
		idx, err := memory.Build(embedder, records)
		if err != nil {
			return nil, fmt.Errorf("build memory index: %w", err)
		}
		slog.Info("index_snapshot_loaded", "path", cfg.IndexSnapshotPath, "records", len(records))
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
