package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
)

const DefaultRecommendLimit = 5

// RecommendUseCase turns a customer profile into a product similarity query and drops
// what the customer already bought.
type RecommendUseCase struct {
	profiles ports.CustomerProfiles
	index    ports.EmbeddingIndex
}

func NewRecommendUseCase(profiles ports.CustomerProfiles, index ports.EmbeddingIndex) *RecommendUseCase {
	return &RecommendUseCase{profiles: profiles, index: index}
}

func (uc *RecommendUseCase) RecommendProducts(ctx context.Context, customerID string, limit int) (*domain.Recommendation, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "recommend products", errors.New("customer id is required"))
	}
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	limit = ClampLimit(limit)

	ctx, span := otel.Tracer("usecase/recommend").Start(ctx, "recommend.products")
	defer span.End()
	span.SetAttributes(attribute.Int("recommend.limit", limit))

	profile, err := uc.profiles.CustomerProfile(ctx, customerID)
	if err != nil {
		span.SetStatus(codes.Error, "profile")
		return nil, fmt.Errorf("load customer profile: %w", err)
	}

	rec := &domain.Recommendation{CustomerID: profile.ID, CustomerName: profile.Name, Results: []domain.SearchResult{}}
	text := RecommendationQuery(profile)
	if text == "" {
		return rec, nil
	}

	// Over-fetch so filtering out purchases can still fill the limit.
	matches, err := uc.index.Query(ctx, text, domain.CategoryProduct, ClampLimit(limit*2))
	if err != nil {
		span.SetStatus(codes.Error, "index")
		return nil, fmt.Errorf("query index: %w", err)
	}

	purchased := make(map[string]struct{}, len(profile.PurchasedProducts))
	for _, name := range profile.PurchasedProducts {
		purchased[name] = struct{}{}
	}
	kept := make([]domain.Match, 0, len(matches))
	for _, m := range matches {
		if _, bought := purchased[m.Metadata["name"]]; bought {
			continue
		}
		kept = append(kept, m)
	}

	rec.Results = RankResults(kept, limit)
	span.SetAttributes(attribute.Int("recommend.results", len(rec.Results)))
	return rec, nil
}

// RecommendationQuery describes the customer by loyalty level and gender, plus the
// category and brand they spent most on.
func RecommendationQuery(profile *domain.CustomerProfile) string {
	parts := []string{profile.LoyaltyLevel, profile.Gender, profile.TopCategory, profile.TopBrand}
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
