package usecase

import (
	"math"
	"sort"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

const (
	MinResultLimit = 1
	MaxResultLimit = 100
)

// ClampLimit bounds a requested result count to [MinResultLimit, MaxResultLimit].
func ClampLimit(limit int) int {
	if limit < MinResultLimit {
		return MinResultLimit
	}
	if limit > MaxResultLimit {
		return MaxResultLimit
	}
	return limit
}

// RankResults orders raw matches by descending score, truncates them to the clamped limit
// and assigns 1-based ranks. Equal scores keep their original order.
func RankResults(matches []domain.Match, limit int) []domain.SearchResult {
	limit = ClampLimit(limit)
	if len(matches) == 0 {
		return []domain.SearchResult{}
	}

	type scored struct {
		match domain.Match
		score float64
	}
	ordered := make([]scored, len(matches))
	for i, m := range matches {
		ordered[i] = scored{match: m, score: normalizeScore(m.Score)}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].score > ordered[j].score
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	out := make([]domain.SearchResult, 0, len(ordered))
	for i, item := range ordered {
		out = append(out, domain.SearchResult{
			RecordID:        item.match.RecordID,
			SimilarityScore: item.score,
			Rank:            i + 1,
			Metadata:        copyMetadata(item.match.Metadata),
		})
	}
	return out
}

// normalizeScore maps a cosine score into [0, 1]; anti-correlated vectors score 0.
func normalizeScore(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
