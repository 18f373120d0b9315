package ports

import (
	"context"
	"time"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

// Embedder builds vectors for record features and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingIndex answers nearest-neighbour queries over one category at a time.
type EmbeddingIndex interface {
	Query(ctx context.Context, text string, category domain.Category, limit int) ([]domain.Match, error)
	Size(ctx context.Context, category domain.Category) (int, error)
}

// IndexWriter replaces the contents of a category collection.
type IndexWriter interface {
	BeginRebuild(ctx context.Context, category domain.Category, vectorSize int) (IndexBuild, error)
}

// IndexBuild collects records out of sight of readers. Commit makes them the live
// contents of the category; Abort discards them and leaves the live contents alone.
type IndexBuild interface {
	Upsert(ctx context.Context, records []domain.Record) error
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// TextGenerator is the opaque generative-text capability.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Analyzer turns a prompt into an outcome. It never returns an error.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, timeout time.Duration) domain.AnalysisOutcome
}

// RecordSource reads the records that feed the index.
type RecordSource interface {
	ListRecords(ctx context.Context, category domain.Category) ([]domain.SourceRecord, error)
}

// CustomerProfiles loads a customer with their purchase history.
type CustomerProfiles interface {
	CustomerProfile(ctx context.Context, customerID string) (*domain.CustomerProfile, error)
}

// MessageQueue publishes/consumes index refresh requests.
type MessageQueue interface {
	PublishRefreshRequested(ctx context.Context, jobID string) error
	SubscribeRefreshRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// SnapshotStore persists indexed records for the in-memory index backend.
type SnapshotStore interface {
	WriteSnapshot(ctx context.Context, records []domain.Record) error
}
