package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
)

const (
	defaultSyncBatchSize = 64
	abortTimeout         = 10 * time.Second

	// vectorSizeSample is embedded only to learn the vector size when a category has no rows.
	vectorSizeSample = "vector size"
)

// IndexSyncUseCase rebuilds each category collection from the relational store.
type IndexSyncUseCase struct {
	source    ports.RecordSource
	embedder  ports.Embedder
	writer    ports.IndexWriter
	snapshot  ports.SnapshotStore
	batchSize int
}

func NewIndexSyncUseCase(
	source ports.RecordSource,
	embedder ports.Embedder,
	writer ports.IndexWriter,
	batchSize int,
) *IndexSyncUseCase {
	if batchSize <= 0 {
		batchSize = defaultSyncBatchSize
	}
	return &IndexSyncUseCase{
		source:    source,
		embedder:  embedder,
		writer:    writer,
		batchSize: batchSize,
	}
}

// WithSnapshot makes every successful SyncAll also export the indexed records.
func (uc *IndexSyncUseCase) WithSnapshot(store ports.SnapshotStore) *IndexSyncUseCase {
	uc.snapshot = store
	return uc
}

func (uc *IndexSyncUseCase) SyncAll(ctx context.Context) (map[domain.Category]int, error) {
	counts := make(map[domain.Category]int, len(domain.Categories()))
	var exported []domain.Record
	dim := 0
	for _, category := range domain.Categories() {
		start := time.Now()
		records, err := uc.syncCategory(ctx, category, &dim)
		if err != nil {
			return counts, fmt.Errorf("sync %s: %w", category.Collection(), err)
		}
		n := len(records)
		counts[category] = n
		if uc.snapshot != nil {
			exported = append(exported, records...)
		}
		slog.Info("index_sync_category",
			"category", category.String(),
			"records", n,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
		)
	}
	if uc.snapshot != nil {
		if err := uc.snapshot.WriteSnapshot(ctx, exported); err != nil {
			return counts, fmt.Errorf("write snapshot: %w", err)
		}
	}
	return counts, nil
}

func (uc *IndexSyncUseCase) syncCategory(ctx context.Context, category domain.Category, dim *int) ([]domain.Record, error) {
	sources, err := uc.source.ListRecords(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	// Embed the first batch before touching the index so the collection can be
	// created with the right vector size.
	var vectors [][]float32
	if len(sources) > 0 {
		vectors, err = uc.embedBatch(ctx, sources[:min(uc.batchSize, len(sources))])
		if err != nil {
			return nil, err
		}
		*dim = len(vectors[0])
	} else if *dim == 0 {
		sample, err := uc.embedder.EmbedQuery(ctx, vectorSizeSample)
		if err != nil {
			return nil, fmt.Errorf("embed vector size sample: %w", err)
		}
		*dim = len(sample)
	}

	build, err := uc.writer.BeginRebuild(ctx, category, *dim)
	if err != nil {
		return nil, fmt.Errorf("begin rebuild: %w", err)
	}
	indexed, err := uc.fill(ctx, build, category, sources, vectors)
	if err == nil {
		err = build.Commit(ctx)
	}
	if err != nil {
		abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
		defer cancel()
		if abortErr := build.Abort(abortCtx); abortErr != nil {
			slog.Warn("index_rebuild_abort_failed", "category", category.String(), "error", abortErr)
		}
		return nil, err
	}
	return indexed, nil
}

// fill upserts every source; first holds the already embedded vectors of the first batch.
func (uc *IndexSyncUseCase) fill(
	ctx context.Context,
	build ports.IndexBuild,
	category domain.Category,
	sources []domain.SourceRecord,
	first [][]float32,
) ([]domain.Record, error) {
	indexed := make([]domain.Record, 0, len(sources))
	for start := 0; start < len(sources); start += uc.batchSize {
		batch := sources[start:min(start+uc.batchSize, len(sources))]

		vectors := first
		if start > 0 {
			var err error
			if vectors, err = uc.embedBatch(ctx, batch); err != nil {
				return nil, err
			}
		}

		records := make([]domain.Record, len(batch))
		for i, src := range batch {
			records[i] = domain.Record{
				ID:        src.ID,
				Category:  category,
				Embedding: vectors[i],
				Metadata:  src.Metadata,
			}
		}
		if err := build.Upsert(ctx, records); err != nil {
			return nil, fmt.Errorf("upsert batch: %w", err)
		}
		indexed = append(indexed, records...)
	}
	return indexed, nil
}

func (uc *IndexSyncUseCase) embedBatch(ctx context.Context, batch []domain.SourceRecord) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, src := range batch {
		texts[i] = src.Text
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("embed batch: expected %d vectors, got %d", len(batch), len(vectors))
	}
	return vectors, nil
}
