package ports

import (
	"context"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

// SearchService is the inbound contract for category similarity search with optional analysis.
type SearchService interface {
	Search(ctx context.Context, query domain.Query) (*domain.ResponsePayload, error)
	Status(ctx context.Context) domain.IndexStatus
}

// ProductRecommender suggests products for a known customer.
type ProductRecommender interface {
	RecommendProducts(ctx context.Context, customerID string, limit int) (*domain.Recommendation, error)
}

// IndexRefresher is the inbound contract for asking the worker to rebuild the index.
type IndexRefresher interface {
	RequestRefresh(ctx context.Context) (string, error)
}

// IndexSynchronizer rebuilds the vector index from the relational store.
type IndexSynchronizer interface {
	SyncAll(ctx context.Context) (map[domain.Category]int, error)
}
