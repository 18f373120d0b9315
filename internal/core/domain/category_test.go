package domain

import "testing"

func TestParseCategoryAcceptsSingularAndPlural(t *testing.T) {
	cases := map[string]Category{
		"product":    CategoryProduct,
		"Products":   CategoryProduct,
		" customer ": CategoryCustomer,
		"customers":  CategoryCustomer,
	}
	for raw, want := range cases {
		got, err := ParseCategory(raw)
		if err != nil {
			t.Fatalf("ParseCategory(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseCategory(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	_, err := ParseCategory("sales")
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalysisOutcomeHasExactlyOneVariant(t *testing.T) {
	ok := AnalysisSucceeded("text", "gemini-pro")
	if _, isFailure := ok.Failure(); isFailure {
		t.Fatalf("success outcome must not expose a failure")
	}
	if text, model, isSuccess := ok.Success(); !isSuccess || text != "text" || model != "gemini-pro" {
		t.Fatalf("unexpected success variant: %q %q %v", text, model, isSuccess)
	}

	failed := AnalysisFailed(ReasonTimeout)
	if _, _, isSuccess := failed.Success(); isSuccess {
		t.Fatalf("failure outcome must not expose a success")
	}
	if reason, isFailure := failed.Failure(); !isFailure || reason != ReasonTimeout {
		t.Fatalf("unexpected failure variant: %q %v", reason, isFailure)
	}
}

func TestNoAnalysisIsAbsent(t *testing.T) {
	if _, present := NoAnalysis().Get(); present {
		t.Fatalf("expected absent analysis")
	}
	if _, present := SomeAnalysis(AnalysisFailed("x")).Get(); !present {
		t.Fatalf("expected present analysis")
	}
}
