package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kirillkom/vector-insight/internal/config"
	"github.com/kirillkom/vector-insight/internal/core/ports"
	"github.com/kirillkom/vector-insight/internal/core/usecase"
	"github.com/kirillkom/vector-insight/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/vector-insight/internal/infrastructure/queue/nats"
	"github.com/kirillkom/vector-insight/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/vector-insight/internal/infrastructure/resilience"
	"github.com/kirillkom/vector-insight/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/vector-insight/internal/infrastructure/vector/memory"
	"github.com/kirillkom/vector-insight/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/vector-insight/internal/observability/metrics"
)

type WorkerApp struct {
	Config config.Config

	Queue   ports.MessageQueue
	SyncUC  ports.IndexSynchronizer
	Metrics *metrics.WorkerMetrics

	closeFn func()
}

func NewWorker(_ context.Context, cfg config.Config) (*WorkerApp, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	workerMetrics := metrics.NewWorkerMetrics(WorkerServiceName)
	executor := resilience.NewExecutor(cfg.ResilienceConfig(), resilience.WithHooks(workerMetrics.Upstream))

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder := ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor))
	writer := qdrant.NewWriter(qdrant.New(cfg.QdrantURL, executor))
	syncUC := usecase.NewIndexSyncUseCase(postgres.NewRecordSource(db), embedder, writer, cfg.SyncBatchSize)
	if cfg.SyncWriteSnapshot {
		storage, err := localfs.New(filepath.Dir(cfg.IndexSnapshotPath))
		if err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("init snapshot storage: %w", err)
		}
		syncUC.WithSnapshot(memory.NewSnapshotWriter(storage, filepath.Base(cfg.IndexSnapshotPath)))
	}

	return &WorkerApp{
		Config:  cfg,
		Queue:   queue,
		SyncUC:  syncUC,
		Metrics: workerMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *WorkerApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
