package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

var (
	productFields  = []string{"name", "category", "brand"}
	customerFields = []string{"name", "gender", "age", "loyalty_level"}
)

// BuildAnalysisPrompt renders the analysis instruction for a ranked result set.
// Identical inputs always produce identical text.
func BuildAnalysisPrompt(queryText string, results []domain.SearchResult, category domain.Category) (string, error) {
	if len(results) == 0 {
		return "", domain.WrapError(domain.ErrEmptyResultSet, "build analysis prompt", fmt.Errorf("query %q", queryText))
	}

	switch category {
	case domain.CategoryProduct:
		return fmt.Sprintf(`You are a senior product analyst. Analyze the product search results below and give professional insight.

Search query: %s
Result count: %d products

Products:
%s
Provide the following:
1. Search result assessment: relevance and completeness of the results.
2. Product insight: characteristics and trends of this product mix.
3. Business recommendations: concrete actions based on the results.
4. Improvements: how product search and recommendation could be improved.

Respond in Traditional Chinese, within 300 words.
`, queryText, len(results), renderResultLines(results, productFields)), nil
	case domain.CategoryCustomer:
		return fmt.Sprintf(`You are a senior customer analyst. Analyze the customer search results below and give professional insight.

Search query: %s
Result count: %d customers

Customers:
%s
Provide the following:
1. Cohort traits: what the customers in these results have in common.
2. Market insight: trends and patterns in customer needs.
3. Marketing recommendations: targeted marketing based on this cohort.
4. Service optimization: how to improve service and customer experience.

Respond in Traditional Chinese, within 300 words.
`, queryText, len(results), renderResultLines(results, customerFields)), nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "build analysis prompt", fmt.Errorf("unsupported category %s", category))
	}
}

func renderResultLines(results []domain.SearchResult, leading []string) string {
	var b strings.Builder
	for _, r := range results {
		name := r.Metadata["name"]
		if name == "" {
			name = "N/A"
		}
		fmt.Fprintf(&b, "- [%d] %s (id: %s", r.Rank, name, r.RecordID)
		for _, key := range orderedMetadataKeys(r.Metadata, leading) {
			fmt.Fprintf(&b, ", %s: %s", key, r.Metadata[key])
		}
		fmt.Fprintf(&b, ", similarity: %.2f%%)\n", r.SimilarityScore*100)
	}
	return b.String()
}

// orderedMetadataKeys lists known fields first, then the rest alphabetically. "name" is
// rendered separately and skipped here.
func orderedMetadataKeys(metadata map[string]string, leading []string) []string {
	seen := make(map[string]struct{}, len(leading))
	keys := make([]string, 0, len(metadata))
	for _, key := range leading {
		seen[key] = struct{}{}
		if key == "name" {
			continue
		}
		if _, ok := metadata[key]; ok {
			keys = append(keys, key)
		}
	}

	rest := make([]string, 0, len(metadata))
	for key := range metadata {
		if _, ok := seen[key]; ok {
			continue
		}
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
