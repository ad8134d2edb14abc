package align

import (
	"math"
	"testing"
	"time"

	"policypulse/domain/series"
	"policypulse/internal/errors"
	"policypulse/internal/testkit"
)

func TestAlign_AveragesWithinMonth(t *testing.T) {
	// Scenario: two mid-month readings must collapse to their mean, keyed by
	// the first day of the month.
	observations := series.ObservationSeries{
		{Timestamp: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Value: 10},
		{Timestamp: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Value: 20},
	}

	monthly, err := Align(observations)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if len(monthly) != 1 {
		t.Fatalf("Expected 1 month, got %d", len(monthly))
	}
	if got := monthly[0].Value; got != 15 {
		t.Errorf("Expected monthly mean 15, got %.4f", got)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !monthly[0].Month.Equal(want) {
		t.Errorf("Expected month key %v, got %v", want, monthly[0].Month)
	}
}

func TestAlign_RoundTripsSyntheticDailies(t *testing.T) {
	// Scenario: daily observations constructed so each month's mean equals the
	// monthly value exactly must align back to the input series.
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	want := testkit.TrendSeries(start, 12, 100, 1.5, 2.0, 42)
	observations := testkit.DailyObservations(want, 5, 3.0, 7)

	monthly, err := Align(observations)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if len(monthly) != len(want) {
		t.Fatalf("Expected %d months, got %d", len(want), len(monthly))
	}
	for i := range want {
		if !monthly[i].Month.Equal(want[i].Month) {
			t.Errorf("Month %d: expected %v, got %v", i, want[i].Month, monthly[i].Month)
		}
		if diff := math.Abs(monthly[i].Value - want[i].Value); diff > 1e-9 {
			t.Errorf("Month %d: expected %.6f, got %.6f", i, want[i].Value, monthly[i].Value)
		}
	}
}

func TestAlign_MonthsStrictlyIncreasing(t *testing.T) {
	// Input arrives shuffled across months; output must still be ordered.
	observations := series.ObservationSeries{
		{Timestamp: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Value: 3},
		{Timestamp: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Value: 1},
		{Timestamp: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), Value: 2},
	}

	monthly, err := Align(observations)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if !monthly.IsMonotonic() {
		t.Fatalf("Expected strictly increasing months, got %v", monthly.Months())
	}
	if monthly[0].Value != 1 || monthly[2].Value != 3 {
		t.Errorf("Months sorted but values misplaced: %v", monthly.Values())
	}
}

func TestAlign_DropsNaNValues(t *testing.T) {
	observations := series.ObservationSeries{
		{Timestamp: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Value: math.NaN()},
		{Timestamp: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Value: 8},
		// February is all-NaN and must vanish from the output.
		{Timestamp: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Value: math.NaN()},
	}

	monthly, err := Align(observations)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if len(monthly) != 1 {
		t.Fatalf("Expected 1 month after dropping NaN, got %d", len(monthly))
	}
	if monthly[0].Value != 8 {
		t.Errorf("Expected 8 after dropping NaN sibling, got %.4f", monthly[0].Value)
	}
}

func TestAlign_EmptyAndAllNaNAreInvalidInput(t *testing.T) {
	if _, err := Align(nil); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("Empty series: expected INVALID_INPUT, got %v", err)
	}

	allNaN := series.ObservationSeries{
		{Timestamp: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Value: math.NaN()},
	}
	if _, err := Align(allNaN); errors.GetCode(err) != errors.CodeInvalidInput {
		t.Errorf("All-NaN series: expected INVALID_INPUT, got %v", err)
	}
}

func TestInnerJoin_KeepsOnlySharedMonths(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	left := series.MonthlySeries{
		{Month: start, Value: 1},
		{Month: start.AddDate(0, 1, 0), Value: 2},
		{Month: start.AddDate(0, 2, 0), Value: 3},
	}
	right := series.MonthlySeries{
		{Month: start.AddDate(0, 1, 0), Value: 20},
		{Month: start.AddDate(0, 3, 0), Value: 40},
	}

	joined := InnerJoin(left, right)
	if len(joined) != 1 {
		t.Fatalf("Expected 1 shared month, got %d", len(joined))
	}
	if joined[0].Left != 2 || joined[0].Right != 20 {
		t.Errorf("Join matched wrong values: %+v", joined[0])
	}
}
