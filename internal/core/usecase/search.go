package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/core/ports"
)

const DefaultSearchLimit = 10

type SearchUseCase struct {
	index           ports.EmbeddingIndex
	analyzer        ports.Analyzer
	defaultLimit    int
	analysisTimeout time.Duration
}

func NewSearchUseCase(
	index ports.EmbeddingIndex,
	analyzer ports.Analyzer,
	defaultLimit int,
	analysisTimeout time.Duration,
) *SearchUseCase {
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}
	return &SearchUseCase{
		index:           index,
		analyzer:        analyzer,
		defaultLimit:    defaultLimit,
		analysisTimeout: analysisTimeout,
	}
}

// Search runs the query pipeline. Only index failures fail the request; analysis problems
// degrade the analysis field of the payload.
func (uc *SearchUseCase) Search(ctx context.Context, query domain.Query) (*domain.ResponsePayload, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("query text is required"))
	}
	if !query.Category.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("unsupported category %s", query.Category))
	}
	limit := query.Limit
	if limit <= 0 {
		limit = uc.defaultLimit
	}
	limit = ClampLimit(limit)

	tracer := otel.Tracer("usecase/search")
	ctx, span := tracer.Start(ctx, "search.pipeline")
	defer span.End()
	span.SetAttributes(
		attribute.String("search.category", query.Category.String()),
		attribute.Int("search.limit", limit),
		attribute.Bool("search.include_analysis", query.IncludeAnalysis),
	)

	indexCtx, indexSpan := tracer.Start(ctx, "search.index")
	matches, err := uc.index.Query(indexCtx, text, query.Category, limit)
	if err != nil {
		indexSpan.RecordError(err)
		indexSpan.SetStatus(codes.Error, err.Error())
		indexSpan.End()
		span.SetStatus(codes.Error, "index query failed")
		return nil, fmt.Errorf("query index: %w", err)
	}
	indexSpan.End()

	results := RankResults(matches, limit)
	span.SetAttributes(attribute.Int("search.results", len(results)))

	analysis := domain.NoAnalysis()
	if query.IncludeAnalysis && len(results) > 0 {
		analysis = uc.analyze(ctx, text, results, query.Category)
	}

	payload := AssembleResponse(results, query.IncludeAnalysis, analysis)
	return &payload, nil
}

func (uc *SearchUseCase) analyze(
	ctx context.Context,
	text string,
	results []domain.SearchResult,
	category domain.Category,
) domain.OptionalAnalysis {
	ctx, span := otel.Tracer("usecase/search").Start(ctx, "search.analysis")
	defer span.End()

	prompt, err := BuildAnalysisPrompt(text, results, category)
	if err != nil {
		slog.Warn("analysis_prompt_failed", "category", category.String(), "error", err)
		return domain.SomeAnalysis(domain.AnalysisFailed(domain.ReasonRequestRejected))
	}

	outcome := uc.analyzer.Analyze(ctx, prompt, uc.analysisTimeout)
	span.SetAttributes(attribute.Bool("analysis.success", outcome.Succeeded()))
	return domain.SomeAnalysis(outcome)
}

// Status reports per-category index sizes. Any unavailable category marks the index unavailable.
func (uc *SearchUseCase) Status(ctx context.Context) domain.IndexStatus {
	status := domain.IndexStatus{Available: true, Counts: make(map[string]int, len(domain.Categories()))}
	for _, category := range domain.Categories() {
		size, err := uc.index.Size(ctx, category)
		if err != nil {
			slog.Warn("index_status_failed", "category", category.String(), "error", err)
			status.Available = false
			continue
		}
		status.Counts[category.Collection()] = size
	}
	return status
}
