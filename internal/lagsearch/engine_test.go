package lagsearch

import (
	"testing"
	"time"

	"policypulse/internal/errors"
	"policypulse/internal/testkit"
)

func TestSearchLags_FindsPlantedLeadTime(t *testing.T) {
	// Scenario: the predictor is the outcome shifted 3 months earlier with
	// small noise, so lag 3 must win the held-out comparison.
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 36, 100, 1.5, 2.0, 17)
	predictor := testkit.LeadingPredictor(outcome, 3, 0.3, 18)

	selection, err := SearchLags(outcome, predictor, 6)
	if err != nil {
		t.Fatalf("SearchLags failed: %v", err)
	}
	if selection.Best.Lag != 3 {
		t.Fatalf("Expected best lag 3, got %d (candidates %+v)", selection.Best.Lag, selection.Candidates)
	}
	if selection.Best.R2 < 0.8 {
		t.Errorf("Expected held-out R² above 0.8 at the planted lag, got %.4f", selection.Best.R2)
	}
	if selection.Best.RMSE < 0 {
		t.Errorf("RMSE must be non-negative, got %.4f", selection.Best.RMSE)
	}
	if len(selection.Fitted) == 0 {
		t.Error("Expected a full-data refit trajectory for the winning lag")
	}
}

func TestSearchLags_CandidatesAscendAndStayInRange(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 30, 50, 1.0, 1.0, 9)
	predictor := testkit.LeadingPredictor(outcome, 2, 0.5, 10)

	selection, err := SearchLags(outcome, predictor, 4)
	if err != nil {
		t.Fatalf("SearchLags failed: %v", err)
	}
	prev := 0
	for _, c := range selection.Candidates {
		if c.Lag <= prev {
			t.Errorf("Candidates not in ascending lag order: %+v", selection.Candidates)
		}
		if c.Lag < 1 || c.Lag > 4 {
			t.Errorf("Candidate lag %d outside 1..4", c.Lag)
		}
		prev = c.Lag
	}
}

func TestSearchLags_RefitCoversAllAvailableRows(t *testing.T) {
	// The reported trajectory refits on every joined row, not just the
	// training split used for selection.
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 24, 80, 0.8, 1.0, 13)
	predictor := testkit.LeadingPredictor(outcome, 1, 0.3, 14)

	selection, err := SearchLags(outcome, predictor, 3)
	if err != nil {
		t.Fatalf("SearchLags failed: %v", err)
	}
	want := 24 - selection.Best.Lag
	if len(selection.Fitted) != want {
		t.Errorf("Expected %d fitted rows for lag %d, got %d", want, selection.Best.Lag, len(selection.Fitted))
	}
}

func TestSearchLags_ShortHistoryIsInsufficientData(t *testing.T) {
	// Six shared months cannot support any lag's minimum row count.
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 6, 100, 1, 0.5, 1)
	predictor := testkit.LeadingPredictor(outcome, 1, 0.5, 2)

	_, err := SearchLags(outcome, predictor, 6)
	if !errors.IsInsufficientData(err) {
		t.Fatalf("Expected INSUFFICIENT_DATA, got %v", err)
	}
}

func TestSearchLags_RejectsBadArguments(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 12, 100, 1, 0.5, 1)

	if _, err := SearchLags(outcome, outcome, 0); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("maxLag 0: expected INVALID_INPUT, got %v", err)
	}

	disjoint := testkit.TrendSeries(start.AddDate(5, 0, 0), 12, 100, 1, 0.5, 2)
	if _, err := SearchLags(outcome, disjoint, 3); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("Disjoint months: expected INVALID_INPUT, got %v", err)
	}
}
