package analysis

import (
	"log/slog"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

var allowedTransitions = map[domain.AnalysisState][]domain.AnalysisState{
	domain.StateIdle:       {domain.StateRequesting},
	domain.StateRequesting: {domain.StateSucceeded, domain.StateRetrying, domain.StateFailed},
	domain.StateRetrying:   {domain.StateSucceeded, domain.StateFailed},
}

// stateTracker follows a single Analyze call. Succeeded and Failed are terminal.
type stateTracker struct {
	model   string
	current domain.AnalysisState
	history []domain.AnalysisState
}

func newStateTracker(model string) *stateTracker {
	return &stateTracker{
		model:   model,
		current: domain.StateIdle,
		history: []domain.AnalysisState{domain.StateIdle},
	}
}

func (t *stateTracker) transition(next domain.AnalysisState) {
	if !canTransition(t.current, next) {
		slog.Error("analysis_state_invalid", "model", t.model, "from", t.current, "to", next)
		return
	}
	slog.Debug("analysis_state", "model", t.model, "from", t.current, "to", next)
	t.current = next
	t.history = append(t.history, next)
}

func (t *stateTracker) fail(reason string, err error) {
	if t.current == domain.StateIdle {
		// Rejected before any attempt ran (open breaker, cancelled context).
		t.transition(domain.StateRequesting)
	}
	slog.Warn("analysis_failed", "model", t.model, "reason", reason, "error", err)
	t.transition(domain.StateFailed)
}

func (t *stateTracker) State() domain.AnalysisState {
	return t.current
}

func canTransition(from, to domain.AnalysisState) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
