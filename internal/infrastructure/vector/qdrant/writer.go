package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
)

// pointNamespace keeps point ids stable across syncs for the same record.
var pointNamespace = uuid.MustParse("6f1c2b8e-4d0a-4c1e-9a57-3b2f4e8d9c10")

// Writer rebuilds category collections for the sync worker. Readers address a
// category through an alias; every rebuild fills a fresh collection and swaps the
// alias, so searches keep hitting the previous data until the new one is complete.
type Writer struct {
	client *Client
	now    func() time.Time
}

func NewWriter(client *Client) *Writer {
	return &Writer{client: client, now: time.Now}
}

func (w *Writer) BeginRebuild(ctx context.Context, category domain.Category, vectorSize int) (ports.IndexBuild, error) {
	alias := category.Collection()
	if alias == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qdrant rebuild", fmt.Errorf("unknown category %d", category))
	}
	if vectorSize <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "qdrant rebuild", fmt.Errorf("vector size must be positive"))
	}

	collection := fmt.Sprintf("%s_%d", alias, w.now().UnixNano())
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	if err := w.client.call(ctx, "create_collection", http.MethodPut, collectionPath(collection), reqBody, nil); err != nil {
		return nil, err
	}
	return &build{client: w.client, category: category, alias: alias, collection: collection}, nil
}

type build struct {
	client     *Client
	category   domain.Category
	alias      string
	collection string
}

func (b *build) Upsert(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(records))
	for _, r := range records {
		if len(r.Embedding) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert", fmt.Errorf("record %s has no embedding", r.ID))
		}
		points = append(points, point{
			ID:     PointID(b.category, r.ID),
			Vector: r.Embedding,
			Payload: map[string]any{
				"record_id": r.ID,
				"category":  b.category.String(),
				"metadata":  r.Metadata,
			},
		})
	}
	return b.client.call(ctx, "upsert", http.MethodPut, collectionPath(b.collection)+"/points?wait=true", map[string]any{"points": points}, nil)
}

// Commit points the category alias at the new collection in one alias request,
// then drops the collection it replaced.
func (b *build) Commit(ctx context.Context) error {
	previous, err := b.aliasTarget(ctx)
	if err != nil {
		return err
	}

	var actions []map[string]any
	if previous != "" {
		actions = append(actions, map[string]any{"delete_alias": map[string]any{"alias_name": b.alias}})
	} else if err := b.dropCollection(ctx, b.alias); err != nil {
		// A plain collection named like the alias blocks alias creation.
		return err
	}
	actions = append(actions, map[string]any{
		"create_alias": map[string]any{"collection_name": b.collection, "alias_name": b.alias},
	})
	if err := b.client.call(ctx, "update_aliases", http.MethodPost, "/collections/aliases", map[string]any{"actions": actions}, nil); err != nil {
		return err
	}

	if previous != "" && previous != b.collection {
		if err := b.dropCollection(ctx, previous); err != nil {
			slog.Warn("qdrant_previous_collection_kept", "collection", previous, "error", err)
		}
	}
	return nil
}

func (b *build) Abort(ctx context.Context) error {
	return b.dropCollection(ctx, b.collection)
}

func (b *build) aliasTarget(ctx context.Context) (string, error) {
	var resp struct {
		Result struct {
			Aliases []struct {
				AliasName      string `json:"alias_name"`
				CollectionName string `json:"collection_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if err := b.client.call(ctx, "list_aliases", http.MethodGet, "/aliases", nil, &resp); err != nil {
		return "", err
	}
	for _, a := range resp.Result.Aliases {
		if a.AliasName == b.alias {
			return a.CollectionName, nil
		}
	}
	return "", nil
}

func (b *build) dropCollection(ctx context.Context, name string) error {
	err := b.client.call(ctx, "delete_collection", http.MethodDelete, collectionPath(name), nil, nil)
	if err != nil && !hasStatus(err, http.StatusNotFound) {
		return err
	}
	return nil
}

func PointID(category domain.Category, recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(category.String()+":"+recordID)).String()
}
