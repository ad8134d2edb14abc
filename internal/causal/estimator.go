// Package causal estimates the effect of a policy intervention on a monthly
// outcome series using an interrupted time series regression, and synthesizes
// the counterfactual trajectory the model predicts had no intervention
// occurred.
package causal

import (
	"math"
	"time"

	"policypulse/domain/impact"
	"policypulse/domain/series"
	"policypulse/internal/align"
	"policypulse/internal/errors"
	"policypulse/internal/regress"

	"github.com/montanaflynn/stats"
)

// minRows is the smallest series the interrupted-time-series design can be fit
// on without rank deficiency across its 3-4 coefficients.
const minRows = 4

// Estimate fits outcome ~ t + post + t_post (+ control when a control series
// is supplied) and re-evaluates the model with post and t_post forced to zero
// to produce the counterfactual trajectory. Confidence bounds are the 95%
// interval of the mean counterfactual response.
//
// An empty post-period is not an error: the summary carries NaN effects and a
// zero post-period count, which callers should surface as a degenerate result.
func Estimate(outcome series.MonthlySeries, policyDate time.Time, control series.MonthlySeries) (impact.CounterfactualResult, impact.EffectSummary, error) {
	spec := impact.InterventionSpec{PolicyDate: policyDate}

	months := outcome.Months()
	observed := outcome.Values()
	var controlValues []float64

	if len(control) > 0 {
		joined := align.InnerJoin(outcome, control)
		months = make([]time.Time, len(joined))
		observed = joined.LeftValues()
		controlValues = joined.RightValues()
		for i, p := range joined {
			months[i] = p.Month
		}
	}

	if len(months) < minRows {
		return nil, impact.EffectSummary{}, errors.InsufficientData("counterfactual",
			"need at least 4 aligned months to fit the interrupted time series model")
	}

	design := make([][]float64, len(months))
	cfDesign := make([][]float64, len(months))
	for i, month := range months {
		t := float64(i)
		post := 0.0
		if spec.IsPost(month) {
			post = 1.0
		}
		row := []float64{1, t, post, t * post}
		cfRow := []float64{1, t, 0, 0}
		if controlValues != nil {
			row = append(row, controlValues[i])
			cfRow = append(cfRow, controlValues[i])
		}
		design[i] = row
		cfDesign[i] = cfRow
	}

	model, err := regress.Fit(design, observed)
	if err != nil {
		return nil, impact.EffectSummary{}, errors.Wrap(err, "fitting interrupted time series model")
	}

	result := make(impact.CounterfactualResult, len(months))
	postEffects := make([]float64, 0, len(months))
	for i, month := range months {
		pred := model.Predict(cfDesign[i])
		se := model.MeanStdErr(cfDesign[i])
		lo, hi := model.MeanCI(pred, se, 0.05)
		effect := observed[i] - pred

		result[i] = impact.CounterfactualPoint{
			Month:          month,
			Observed:       observed[i],
			Counterfactual: pred,
			CILow:          lo,
			CIHigh:         hi,
			Effect:         effect,
		}
		if spec.IsPost(month) {
			postEffects = append(postEffects, effect)
		}
	}

	summary := impact.EffectSummary{
		AvgEffect:        math.NaN(),
		TotalEffect:      math.NaN(),
		RSquared:         model.RSquared,
		PostPeriodPoints: len(postEffects),
	}
	if len(postEffects) > 0 {
		avg, _ := stats.Mean(postEffects)
		total, _ := stats.Sum(postEffects)
		summary.AvgEffect = avg
		summary.TotalEffect = total
	}

	return result, summary, nil
}

// SummarizePolicy compares raw pre- and post-period monthly averages without
// any regression model. PercentChange is NaN when either period is empty or
// the pre-period average is zero.
func SummarizePolicy(outcome series.MonthlySeries, policyDate time.Time) impact.PolicySummary {
	spec := impact.InterventionSpec{PolicyDate: policyDate}

	var pre, post []float64
	for _, p := range outcome {
		if spec.IsPost(p.Month) {
			post = append(post, p.Value)
		} else {
			pre = append(pre, p.Value)
		}
	}

	summary := impact.PolicySummary{
		PrePolicyAvg:  math.NaN(),
		PostPolicyAvg: math.NaN(),
		PercentChange: math.NaN(),
	}
	if len(pre) > 0 {
		summary.PrePolicyAvg, _ = stats.Mean(pre)
	}
	if len(post) > 0 {
		summary.PostPolicyAvg, _ = stats.Mean(post)
	}
	if len(pre) > 0 && len(post) > 0 && summary.PrePolicyAvg != 0 {
		summary.PercentChange = (summary.PostPolicyAvg - summary.PrePolicyAvg) / summary.PrePolicyAvg * 100
	}
	return summary
}

// PeriodLabel returns the artifact-table label for a month relative to the
// raw policy date.
func PeriodLabel(month, policyDate time.Time) string {
	if (impact.InterventionSpec{PolicyDate: policyDate}).IsPost(month) {
		return "post_policy"
	}
	return "pre_policy"
}
