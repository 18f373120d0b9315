package qdrant

import (
	"context"
	"fmt"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
)

// Index answers similarity queries against the per-category collections.
type Index struct {
	client   *Client
	embedder ports.Embedder
}

func NewIndex(client *Client, embedder ports.Embedder) *Index {
	return &Index{client: client, embedder: embedder}
}

type queryPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (i *Index) Query(ctx context.Context, text string, category domain.Category, limit int) ([]domain.Match, error) {
	if !category.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qdrant query", fmt.Errorf("unknown category %d", category))
	}
	if limit <= 0 {
		return []domain.Match{}, nil
	}

	vector, err := i.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "embed query", err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	reqBody := map[string]any{
		"query":        vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result struct {
			Points []queryPoint `json:"points"`
		} `json:"result"`
	}
	path := collectionPath(category.Collection()) + "/points/query"
	if err := i.client.call(ctx, "query", "POST", path, reqBody, &resp); err != nil {
		return nil, toIndexError("qdrant query", err)
	}

	out := make([]domain.Match, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		recordID := getStringPayload(p.Payload, "record_id")
		if recordID == "" {
			recordID = fmt.Sprintf("%v", p.ID)
		}
		out = append(out, domain.Match{
			RecordID: recordID,
			Score:    p.Score,
			Metadata: getMetadataPayload(p.Payload, "metadata"),
		})
	}
	return out, nil
}

func (i *Index) Size(ctx context.Context, category domain.Category) (int, error) {
	if !category.Valid() {
		return 0, domain.WrapError(domain.ErrInvalidInput, "qdrant size", fmt.Errorf("unknown category %d", category))
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	path := collectionPath(category.Collection()) + "/points/count"
	if err := i.client.call(ctx, "count", "POST", path, map[string]any{"exact": true}, &resp); err != nil {
		return 0, toIndexError("qdrant size", err)
	}
	return resp.Result.Count, nil
}
