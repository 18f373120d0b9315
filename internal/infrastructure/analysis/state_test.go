package analysis

import (
	"errors"
	"testing"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

func TestStateTrackerRetryPath(t *testing.T) {
	tracker := newStateTracker("m")
	tracker.transition(domain.StateRequesting)
	tracker.transition(domain.StateRetrying)
	tracker.transition(domain.StateSucceeded)

	want := []domain.AnalysisState{domain.StateIdle, domain.StateRequesting, domain.StateRetrying, domain.StateSucceeded}
	if len(tracker.history) != len(want) {
		t.Fatalf("unexpected history %v", tracker.history)
	}
	for i := range want {
		if tracker.history[i] != want[i] {
			t.Fatalf("history[%d] = %s, want %s", i, tracker.history[i], want[i])
		}
	}
}

func TestStateTrackerTerminalStatesAreFinal(t *testing.T) {
	tracker := newStateTracker("m")
	tracker.transition(domain.StateRequesting)
	tracker.transition(domain.StateSucceeded)
	tracker.transition(domain.StateRetrying)

	if tracker.State() != domain.StateSucceeded {
		t.Fatalf("terminal state changed to %s", tracker.State())
	}
}

func TestStateTrackerFailBeforeAttempt(t *testing.T) {
	tracker := newStateTracker("m")
	tracker.fail(domain.ReasonCircuitOpen, errors.New("open"))
	if tracker.State() != domain.StateFailed {
		t.Fatalf("expected failed, got %s", tracker.State())
	}
}
