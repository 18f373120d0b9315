package usecase

import (
	"strings"
	"testing"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{RecordID: "p-1", SimilarityScore: 0.91, Rank: 1, Metadata: map[string]string{
			"name": "UltraBook 14", "category": "laptop", "brand": "Acme", "sku": "UB14", "color": "silver",
		}},
		{RecordID: "p-2", SimilarityScore: 0.85, Rank: 2, Metadata: map[string]string{
			"name": "ProBook 15", "brand": "Acme", "category": "laptop",
		}},
	}
}

func TestBuildAnalysisPromptIsDeterministic(t *testing.T) {
	first, err := BuildAnalysisPrompt("筆記型電腦", sampleResults(), domain.CategoryProduct)
	if err != nil {
		t.Fatalf("BuildAnalysisPrompt() error = %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := BuildAnalysisPrompt("筆記型電腦", sampleResults(), domain.CategoryProduct)
		if err != nil {
			t.Fatalf("BuildAnalysisPrompt() error = %v", err)
		}
		if next != first {
			t.Fatalf("prompt changed between identical calls:\n%s\n---\n%s", first, next)
		}
	}
}

func TestBuildAnalysisPromptSelectsTemplateByCategory(t *testing.T) {
	product, err := BuildAnalysisPrompt("laptop", sampleResults(), domain.CategoryProduct)
	if err != nil {
		t.Fatalf("product prompt error = %v", err)
	}
	customer, err := BuildAnalysisPrompt("loyal young buyers", sampleResults(), domain.CategoryCustomer)
	if err != nil {
		t.Fatalf("customer prompt error = %v", err)
	}

	if !strings.Contains(product, "product analyst") || !strings.Contains(product, "Business recommendations") {
		t.Fatalf("unexpected product prompt: %s", product)
	}
	if !strings.Contains(customer, "customer analyst") || !strings.Contains(customer, "Service optimization") {
		t.Fatalf("unexpected customer prompt: %s", customer)
	}
	if product == customer {
		t.Fatalf("templates must differ by category")
	}
}

func TestBuildAnalysisPromptRendersResults(t *testing.T) {
	prompt, err := BuildAnalysisPrompt("laptop", sampleResults(), domain.CategoryProduct)
	if err != nil {
		t.Fatalf("BuildAnalysisPrompt() error = %v", err)
	}
	wantLine := "- [1] UltraBook 14 (id: p-1, category: laptop, brand: Acme, color: silver, sku: UB14, similarity: 91.00%)"
	if !strings.Contains(prompt, wantLine) {
		t.Fatalf("expected line %q in prompt:\n%s", wantLine, prompt)
	}
	if !strings.Contains(prompt, "Result count: 2 products") {
		t.Fatalf("expected result count in prompt:\n%s", prompt)
	}
}

func TestBuildAnalysisPromptRejectsEmptyResults(t *testing.T) {
	_, err := BuildAnalysisPrompt("laptop", nil, domain.CategoryProduct)
	if !domain.IsKind(err, domain.ErrEmptyResultSet) {
		t.Fatalf("expected ErrEmptyResultSet, got %v", err)
	}
}

func TestBuildAnalysisPromptRejectsUnknownCategory(t *testing.T) {
	_, err := BuildAnalysisPrompt("laptop", sampleResults(), domain.Category(99))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
