package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

type profilesFake struct {
	profile *domain.CustomerProfile
	err     error
}

func (f profilesFake) CustomerProfile(context.Context, string) (*domain.CustomerProfile, error) {
	return f.profile, f.err
}

func aliceProfile() *domain.CustomerProfile {
	return &domain.CustomerProfile{
		ID:                "7",
		Name:              "Alice",
		Gender:            "F",
		LoyaltyLevel:      "Gold",
		TopCategory:       "laptop",
		TopBrand:          "Acme",
		PurchasedProducts: []string{"UltraBook 14"},
	}
}

func TestRecommendProductsSkipsPurchasedProducts(t *testing.T) {
	index := &indexFake{matches: laptopMatches()}
	uc := NewRecommendUseCase(profilesFake{profile: aliceProfile()}, index)

	rec, err := uc.RecommendProducts(context.Background(), "7", 2)
	if err != nil {
		t.Fatalf("RecommendProducts() error = %v", err)
	}
	if index.text != "Gold F laptop Acme" || index.category != domain.CategoryProduct || index.limit != 4 {
		t.Fatalf("unexpected index query text=%q category=%v limit=%d", index.text, index.category, index.limit)
	}
	if rec.CustomerID != "7" || rec.CustomerName != "Alice" {
		t.Fatalf("unexpected customer: %+v", rec)
	}
	if len(rec.Results) != 2 || rec.Results[0].RecordID != "p-2" || rec.Results[0].Rank != 1 || rec.Results[1].RecordID != "p-3" {
		t.Fatalf("unexpected results: %+v", rec.Results)
	}
}

func TestRecommendProductsWithoutPurchasesUsesProfileOnly(t *testing.T) {
	index := &indexFake{matches: laptopMatches()}
	profile := &domain.CustomerProfile{ID: "8", Name: "Bob", Gender: "M", LoyaltyLevel: "Silver"}

	rec, err := NewRecommendUseCase(profilesFake{profile: profile}, index).RecommendProducts(context.Background(), "8", 0)
	if err != nil {
		t.Fatalf("RecommendProducts() error = %v", err)
	}
	if index.text != "Silver M" || index.limit != 2*DefaultRecommendLimit {
		t.Fatalf("unexpected query text=%q limit=%d", index.text, index.limit)
	}
	if len(rec.Results) != 3 {
		t.Fatalf("expected all 3 matches, got %d", len(rec.Results))
	}
}

func TestRecommendProductsPropagatesErrors(t *testing.T) {
	notFound := domain.WrapError(domain.ErrNotFound, "customer profile", errors.New("customer 9"))
	if _, err := NewRecommendUseCase(profilesFake{err: notFound}, &indexFake{}).RecommendProducts(context.Background(), "9", 5); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	down := domain.WrapError(domain.ErrIndexUnavailable, "query", errors.New("qdrant down"))
	if _, err := NewRecommendUseCase(profilesFake{profile: aliceProfile()}, &indexFake{err: down}).RecommendProducts(context.Background(), "7", 5); !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected index unavailable, got %v", err)
	}

	if _, err := NewRecommendUseCase(profilesFake{}, &indexFake{}).RecommendProducts(context.Background(), " ", 5); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRecommendProductsEmptyProfileSkipsIndex(t *testing.T) {
	index := &indexFake{matches: laptopMatches()}
	rec, err := NewRecommendUseCase(profilesFake{profile: &domain.CustomerProfile{ID: "5"}}, index).RecommendProducts(context.Background(), "5", 5)
	if err != nil {
		t.Fatalf("RecommendProducts() error = %v", err)
	}
	if index.text != "" || len(rec.Results) != 0 || rec.Results == nil {
		t.Fatalf("expected empty non-nil results without an index query, got %+v text=%q", rec.Results, index.text)
	}
}
