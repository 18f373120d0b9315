package httpadapter

import (
	"encoding/json"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

type searchRequest struct {
	Query           *string `json:"query"`
	Limit           int     `json:"limit"`
	IncludeAnalysis bool    `json:"include_analysis"`
}

type searchResponse struct {
	Success    bool                  `json:"success"`
	Query      string                `json:"query"`
	Count      int                   `json:"count"`
	Results    []domain.SearchResult `json:"results"`
	AIAnalysis *analysisResponse     `json:"ai_analysis,omitempty"`
}

type analysisResponse struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis,omitempty"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

// recommendRequest accepts the customer id as a JSON number or string.
type recommendRequest struct {
	CustomerID json.Number `json:"customer_id"`
	Limit      int         `json:"limit"`
}

type recommendResponse struct {
	Success         bool                  `json:"success"`
	CustomerID      string                `json:"customer_id"`
	CustomerName    string                `json:"customer_name"`
	Count           int                   `json:"count"`
	Recommendations []domain.SearchResult `json:"recommendations"`
}

type statusResponse struct {
	Success   bool           `json:"success"`
	Available bool           `json:"available"`
	Counts    map[string]int `json:"counts"`
}

type refreshResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func toSearchResponse(query string, payload *domain.ResponsePayload) searchResponse {
	results := payload.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	resp := searchResponse{
		Success: true,
		Query:   query,
		Count:   len(results),
		Results: results,
	}
	if outcome, ok := payload.Analysis.Get(); ok {
		resp.AIAnalysis = toAnalysisResponse(outcome)
	}
	return resp
}

func toAnalysisResponse(outcome domain.AnalysisOutcome) *analysisResponse {
	if text, model, ok := outcome.Success(); ok {
		return &analysisResponse{Success: true, Analysis: text, Model: model}
	}
	reason, _ := outcome.Failure()
	return &analysisResponse{Success: false, Error: reason}
}

func toRecommendResponse(rec *domain.Recommendation) recommendResponse {
	results := rec.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	return recommendResponse{
		Success:         true,
		CustomerID:      rec.CustomerID,
		CustomerName:    rec.CustomerName,
		Count:           len(results),
		Recommendations: results,
	}
}
