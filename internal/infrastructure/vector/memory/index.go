package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
)

type entry struct {
	record domain.Record
	norm   float64
}

// Index is an in-process cosine index. It is immutable once built, so concurrent
// queries need no locking.
type Index struct {
	embedder   ports.Embedder
	built      bool
	byCategory map[domain.Category][]entry
	dimensions map[domain.Category]int
}

// New returns an index that has not been built; every query fails with
// ErrIndexUnavailable.
func New(embedder ports.Embedder) *Index {
	return &Index{embedder: embedder}
}

func Build(embedder ports.Embedder, records []domain.Record) (*Index, error) {
	idx := &Index{
		embedder:   embedder,
		built:      true,
		byCategory: make(map[domain.Category][]entry),
		dimensions: make(map[domain.Category]int),
	}
	seen := make(map[domain.Category]map[string]struct{})

	for _, r := range records {
		if !r.Category.Valid() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index", fmt.Errorf("record %q has unknown category", r.ID))
		}
		if r.ID == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index", fmt.Errorf("record without id in %s", r.Category.Collection()))
		}
		if len(r.Embedding) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index", fmt.Errorf("record %q has no embedding", r.ID))
		}
		if dim, ok := idx.dimensions[r.Category]; ok && dim != len(r.Embedding) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index",
				fmt.Errorf("record %q has %d dimensions, expected %d", r.ID, len(r.Embedding), dim))
		}
		if seen[r.Category] == nil {
			seen[r.Category] = make(map[string]struct{})
		}
		if _, dup := seen[r.Category][r.ID]; dup {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build index", fmt.Errorf("duplicate record %q in %s", r.ID, r.Category.Collection()))
		}
		seen[r.Category][r.ID] = struct{}{}

		idx.dimensions[r.Category] = len(r.Embedding)
		idx.byCategory[r.Category] = append(idx.byCategory[r.Category], entry{
			record: copyRecord(r),
			norm:   vectorNorm(r.Embedding),
		})
	}
	return idx, nil
}

func (i *Index) Query(ctx context.Context, text string, category domain.Category, limit int) ([]domain.Match, error) {
	if !i.built {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "memory query", fmt.Errorf("index not built"))
	}
	if !category.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "memory query", fmt.Errorf("unknown category %d", category))
	}
	entries := i.byCategory[category]
	if limit <= 0 || len(entries) == 0 {
		return []domain.Match{}, nil
	}

	vector, err := i.embedder.EmbedQuery(ctx, text)
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) {
			return nil, domain.WrapError(domain.ErrIndexUnavailable, "embed query", err)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vector) != i.dimensions[category] {
		// The embedding model changed since the snapshot was written.
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "memory query",
			fmt.Errorf("query vector has %d dimensions, index expects %d", len(vector), i.dimensions[category]))
	}
	queryNorm := vectorNorm(vector)

	out := make([]domain.Match, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.Match{
			RecordID: e.record.ID,
			Score:    cosine(vector, queryNorm, e.record.Embedding, e.norm),
			Metadata: copyMetadata(e.record.Metadata),
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (i *Index) Size(_ context.Context, category domain.Category) (int, error) {
	if !i.built {
		return 0, domain.WrapError(domain.ErrIndexUnavailable, "memory size", fmt.Errorf("index not built"))
	}
	return len(i.byCategory[category]), nil
}

func cosine(a []float32, normA float64, b []float32, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func copyRecord(r domain.Record) domain.Record {
	out := r
	out.Embedding = append([]float32(nil), r.Embedding...)
	out.Metadata = copyMetadata(r.Metadata)
	return out
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
