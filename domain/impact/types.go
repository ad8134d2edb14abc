package impact

import (
	"time"

	"policypulse/domain/core"
)

// InterventionSpec partitions a monthly series into a pre-period (month starts
// before PolicyDate) and a post-period (month starts on or after PolicyDate).
// The raw policy date is the boundary: a mid-month policy date leaves its own
// month in the pre-period, since most of that month predates the intervention.
type InterventionSpec struct {
	PolicyDate time.Time
}

// IsPost reports whether a month falls in the post-period.
func (s InterventionSpec) IsPost(month time.Time) bool {
	return !month.Before(s.PolicyDate)
}

// CounterfactualPoint is one month of the interrupted-time-series output:
// the observed outcome, the model's no-intervention prediction, the 95%
// confidence bounds on that mean prediction, and their difference.
type CounterfactualPoint struct {
	Month          time.Time
	Observed       float64
	Counterfactual float64
	CILow          float64
	CIHigh         float64
	Effect         float64
}

// CounterfactualResult is the full counterfactual trajectory. It is computed
// once per estimation call and never mutated afterwards.
type CounterfactualResult []CounterfactualPoint

// EffectSummary condenses the post-period treatment effect.
// When the post-period is empty, AvgEffect and TotalEffect are NaN and
// PostPeriodPoints is 0; that is a degenerate but valid outcome, not an error.
type EffectSummary struct {
	AvgEffect        float64
	TotalEffect      float64
	RSquared         float64
	PostPeriodPoints int
}

// PolicySummary is the exploratory pre/post comparison of the raw monthly
// series, independent of any regression model.
type PolicySummary struct {
	PrePolicyAvg  float64
	PostPolicyAvg float64
	PercentChange float64
}

// LagCandidate holds the held-out fit metrics for one tested lag.
type LagCandidate struct {
	Lag  int
	R2   float64
	RMSE float64
}

// LagFitPoint is one row of the winning lag's full-data refit, used for
// reporting the fitted trajectory (distinct from the selection split).
type LagFitPoint struct {
	Month     time.Time
	Actual    float64
	Predicted float64
}

// LagSelection is the outcome of a lag search: all viable candidates in
// ascending lag order, the winner, and the winner's full-data refit.
type LagSelection struct {
	Candidates []LagCandidate
	Best       LagCandidate
	Fitted     []LagFitPoint
}

// LagPValue is the Granger-style F-test result for one lag depth. A low
// p-value is statistical evidence of predictive value, not a claim of
// mechanistic causation.
type LagPValue struct {
	Lag    int
	PValue float64
}

// CausalityResult holds per-lag F-test p-values, ascending by lag.
type CausalityResult []LagPValue

// EntityComparison is one row of the cross-entity comparison table.
type EntityComparison struct {
	Entity            core.EntityKey
	PrePolicyAvg      float64
	PostPolicyAvg     float64
	PercentChange     float64
	AvgSentiment      float64
	Posts             int
	HasSentiment      bool
	EffectivenessRank int
}

// RunRecord is the persisted summary of one entity's pipeline run.
type RunRecord struct {
	ID         core.RunID
	Entity     core.EntityKey
	PolicyDate time.Time

	AvgEffect        float64
	TotalEffect      float64
	RSquared         float64
	PostPeriodPoints int

	BestLag  int
	BestR2   float64
	BestRMSE float64

	CreatedAt time.Time
}
