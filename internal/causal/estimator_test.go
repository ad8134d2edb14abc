package causal

import (
	"math"
	"testing"
	"time"

	"policypulse/domain/series"
	"policypulse/internal/errors"
	"policypulse/internal/testkit"
)

func TestEstimate_RecoversStepEffect(t *testing.T) {
	// Scenario: a flat series jumps by +10 at month 13 of 24. The model's
	// post-period effect against the counterfactual must recover the jump.
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.StepSeries(start, 24, 12, 50, 10, 0.5, 11)
	policyDate := start.AddDate(0, 12, 0)

	result, summary, err := Estimate(outcome, policyDate, nil)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if len(result) != 24 {
		t.Fatalf("Expected 24 counterfactual points, got %d", len(result))
	}
	if summary.PostPeriodPoints != 12 {
		t.Errorf("Expected 12 post-period points, got %d", summary.PostPeriodPoints)
	}
	if diff := math.Abs(summary.AvgEffect - 10); diff > 1.0 {
		t.Errorf("Expected average effect near +10, got %.4f", summary.AvgEffect)
	}
	if diff := math.Abs(summary.TotalEffect - 120); diff > 12.0 {
		t.Errorf("Expected total effect near +120, got %.4f", summary.TotalEffect)
	}
	if summary.RSquared < 0.9 {
		t.Errorf("Expected R² above 0.9 on a clean step, got %.4f", summary.RSquared)
	}
}

func TestEstimate_PrePeriodCounterfactualTracksObserved(t *testing.T) {
	// Before the policy the counterfactual design equals the fitted design, so
	// the counterfactual must hug the observed series.
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.StepSeries(start, 24, 12, 50, 10, 0.5, 3)
	policyDate := start.AddDate(0, 12, 0)

	result, _, err := Estimate(outcome, policyDate, nil)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	for _, p := range result[:12] {
		if diff := math.Abs(p.Effect); diff > 2.0 {
			t.Errorf("Pre-period %v: effect %.4f should be near zero", p.Month, p.Effect)
		}
		if !(p.CILow <= p.Counterfactual && p.Counterfactual <= p.CIHigh) {
			t.Errorf("Pre-period %v: CI [%.4f, %.4f] excludes counterfactual %.4f",
				p.Month, p.CILow, p.CIHigh, p.Counterfactual)
		}
	}
}

func TestEstimate_EmptyPostPeriodIsDegenerateNotFatal(t *testing.T) {
	// Policy dated after the data ends: no post rows, NaN effects, no error.
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 12, 100, 1, 0.5, 5)
	policyDate := start.AddDate(0, 24, 0)

	result, summary, err := Estimate(outcome, policyDate, nil)
	if err != nil {
		t.Fatalf("Expected degenerate result, got error: %v", err)
	}
	if len(result) != 12 {
		t.Fatalf("Expected full trajectory, got %d points", len(result))
	}
	if summary.PostPeriodPoints != 0 {
		t.Errorf("Expected 0 post-period points, got %d", summary.PostPeriodPoints)
	}
	if !math.IsNaN(summary.AvgEffect) || !math.IsNaN(summary.TotalEffect) {
		t.Errorf("Expected NaN effects on empty post-period, got avg=%.4f total=%.4f",
			summary.AvgEffect, summary.TotalEffect)
	}
}

func TestEstimate_TooFewMonthsIsInsufficientData(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.TrendSeries(start, 3, 100, 1, 0, 1)

	_, _, err := Estimate(outcome, start.AddDate(0, 1, 0), nil)
	if !errors.IsInsufficientData(err) {
		t.Fatalf("Expected INSUFFICIENT_DATA, got %v", err)
	}
}

func TestEstimate_ControlJoinRestrictsToSharedMonths(t *testing.T) {
	// The control covers only the first 18 months; the estimate must run on
	// the intersection rather than imputing the missing tail.
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := testkit.StepSeries(start, 24, 12, 50, 10, 0.5, 21)
	control := testkit.TrendSeries(start, 18, 40, 0.2, 0.5, 22)
	policyDate := start.AddDate(0, 12, 0)

	result, summary, err := Estimate(outcome, policyDate, control)
	if err != nil {
		t.Fatalf("Estimate with control failed: %v", err)
	}
	if len(result) != 18 {
		t.Fatalf("Expected 18 joined months, got %d", len(result))
	}
	if summary.PostPeriodPoints != 6 {
		t.Errorf("Expected 6 post-period points after the join, got %d", summary.PostPeriodPoints)
	}
}

func TestSummarizePolicy_PrePostAverages(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := series.MonthlySeries{
		{Month: start, Value: 10},
		{Month: start.AddDate(0, 1, 0), Value: 20},
		{Month: start.AddDate(0, 2, 0), Value: 30},
		{Month: start.AddDate(0, 3, 0), Value: 60},
	}
	policyDate := start.AddDate(0, 2, 0)

	summary := SummarizePolicy(outcome, policyDate)
	if summary.PrePolicyAvg != 15 {
		t.Errorf("Expected pre average 15, got %.4f", summary.PrePolicyAvg)
	}
	if summary.PostPolicyAvg != 45 {
		t.Errorf("Expected post average 45, got %.4f", summary.PostPolicyAvg)
	}
	if diff := math.Abs(summary.PercentChange - 200); diff > 1e-9 {
		t.Errorf("Expected percent change 200, got %.4f", summary.PercentChange)
	}
}

func TestSummarizePolicy_NaNWhenAPeriodIsEmpty(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := series.MonthlySeries{
		{Month: start, Value: 10},
		{Month: start.AddDate(0, 1, 0), Value: 20},
	}

	// All months pre-policy.
	summary := SummarizePolicy(outcome, start.AddDate(0, 6, 0))
	if !math.IsNaN(summary.PostPolicyAvg) || !math.IsNaN(summary.PercentChange) {
		t.Errorf("Empty post-period: expected NaN post average and change, got %+v", summary)
	}

	// All months post-policy.
	summary = SummarizePolicy(outcome, start.AddDate(0, -6, 0))
	if !math.IsNaN(summary.PrePolicyAvg) || !math.IsNaN(summary.PercentChange) {
		t.Errorf("Empty pre-period: expected NaN pre average and change, got %+v", summary)
	}
}

func TestPeriodLabel(t *testing.T) {
	policy := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := PeriodLabel(time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC), policy); got != "pre_policy" {
		t.Errorf("May 2023: expected pre_policy, got %s", got)
	}
	// A mid-month policy date leaves its own month in the pre-period: the
	// month start June 1 precedes June 15.
	if got := PeriodLabel(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), policy); got != "pre_policy" {
		t.Errorf("June 2023: expected pre_policy, got %s", got)
	}
	if got := PeriodLabel(time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), policy); got != "post_policy" {
		t.Errorf("July 2023: expected post_policy, got %s", got)
	}
}

func TestSummarizePolicy_MidMonthPolicyDateLeavesItsMonthPre(t *testing.T) {
	// Six months of data ending in the policy's own month, policy dated
	// mid-June: every month start precedes the policy date, so the
	// post-period is empty rather than containing June.
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	outcome := make(series.MonthlySeries, 6)
	for i := range outcome {
		outcome[i] = series.MonthlyPoint{Month: start.AddDate(0, i, 0), Value: 10}
	}
	policyDate := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)

	summary := SummarizePolicy(outcome, policyDate)
	if summary.PrePolicyAvg != 10 {
		t.Errorf("Expected pre average 10, got %.4f", summary.PrePolicyAvg)
	}
	if !math.IsNaN(summary.PostPolicyAvg) {
		t.Errorf("Expected NaN post average on an empty post-period, got %.4f", summary.PostPolicyAvg)
	}
	if !math.IsNaN(summary.PercentChange) {
		t.Errorf("Expected NaN percent change, got %.4f", summary.PercentChange)
	}
}
