package domain

const (
	ReasonAnalysisUnavailable = "analysis unavailable"
	ReasonNoResults           = "no results to analyze"
	ReasonTimeout             = "analysis timed out"
	ReasonRateLimited         = "analysis service is busy, try again later"
	ReasonServiceError        = "analysis service error"
	ReasonQuotaExhausted      = "analysis quota exhausted"
	ReasonCredentialRejected  = "analysis credential rejected"
	ReasonRequestRejected     = "analysis request rejected"
	ReasonCancelled           = "analysis cancelled"
	ReasonCircuitOpen         = "analysis temporarily unavailable"
)

// AnalysisOutcome is either a success carrying generated text or a failure carrying a
// human readable reason. Use AnalysisSucceeded or AnalysisFailed to build one.
type AnalysisOutcome struct {
	success bool
	text    string
	model   string
	reason  string
}

func AnalysisSucceeded(text, model string) AnalysisOutcome {
	return AnalysisOutcome{success: true, text: text, model: model}
}

func AnalysisFailed(reason string) AnalysisOutcome {
	return AnalysisOutcome{reason: reason}
}

func (o AnalysisOutcome) Succeeded() bool { return o.success }

// Success returns the generated text and model; ok is false for failures.
func (o AnalysisOutcome) Success() (text, model string, ok bool) {
	if !o.success {
		return "", "", false
	}
	return o.text, o.model, true
}

// Failure returns the failure reason; ok is false for successes.
func (o AnalysisOutcome) Failure() (reason string, ok bool) {
	if o.success {
		return "", false
	}
	return o.reason, true
}

// OptionalAnalysis holds an AnalysisOutcome only when analysis was requested.
type OptionalAnalysis struct {
	present bool
	outcome AnalysisOutcome
}

func NoAnalysis() OptionalAnalysis { return OptionalAnalysis{} }

func SomeAnalysis(outcome AnalysisOutcome) OptionalAnalysis {
	return OptionalAnalysis{present: true, outcome: outcome}
}

func (o OptionalAnalysis) Get() (AnalysisOutcome, bool) {
	return o.outcome, o.present
}

type ResponsePayload struct {
	Results  []SearchResult
	Analysis OptionalAnalysis
}

// AnalysisState tracks one Analysis Client call.
type AnalysisState string

const (
	StateIdle       AnalysisState = "idle"
	StateRequesting AnalysisState = "requesting"
	StateRetrying   AnalysisState = "retrying"
	StateSucceeded  AnalysisState = "succeeded"
	StateFailed     AnalysisState = "failed"
)
