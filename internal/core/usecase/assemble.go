package usecase

import "github.com/kirillkom/vector-insight/internal/core/domain"

// AssembleResponse merges ranked results and the optional analysis outcome.
// Inputs are copied, never mutated.
func AssembleResponse(results []domain.SearchResult, includeAnalysis bool, outcome domain.OptionalAnalysis) domain.ResponsePayload {
	copied := make([]domain.SearchResult, len(results))
	for i, r := range results {
		r.Metadata = copyMetadata(r.Metadata)
		copied[i] = r
	}

	payload := domain.ResponsePayload{Results: copied, Analysis: domain.NoAnalysis()}
	if !includeAnalysis {
		return payload
	}
	if len(copied) == 0 {
		payload.Analysis = domain.SomeAnalysis(domain.AnalysisFailed(domain.ReasonNoResults))
		return payload
	}
	if value, ok := outcome.Get(); ok {
		payload.Analysis = domain.SomeAnalysis(value)
		return payload
	}
	payload.Analysis = domain.SomeAnalysis(domain.AnalysisFailed(domain.ReasonAnalysisUnavailable))
	return payload
}
