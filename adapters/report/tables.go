package report

import (
	"math"
	"strconv"
	"time"

	"policypulse/domain/core"
	"policypulse/domain/impact"
	"policypulse/domain/sentiment"
	"policypulse/domain/series"
)

// Table is one artifact table headed for CSV or a workbook sheet. Column
// names are part of the external contract read by the dashboard and the
// cross-entity comparison; do not rename them.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// MonthlySeriesTable builds monthly_series: each month's average value and its
// pre/post label relative to the policy date.
func MonthlySeriesTable(monthly series.MonthlySeries, policyDate time.Time) Table {
	spec := impact.InterventionSpec{PolicyDate: policyDate}
	rows := make([][]string, len(monthly))
	for i, p := range monthly {
		period := "pre_policy"
		if spec.IsPost(p.Month) {
			period = "post_policy"
		}
		rows[i] = []string{core.FormatMonth(p.Month), formatFloat(p.Value), period}
	}
	return Table{
		Name:   "monthly_series",
		Header: []string{"month", "monthly_avg_value", "period"},
		Rows:   rows,
	}
}

// PolicySummaryTable builds policy_summary in metric/value layout.
func PolicySummaryTable(summary impact.PolicySummary) Table {
	return Table{
		Name:   "policy_summary",
		Header: []string{"metric", "value"},
		Rows: [][]string{
			{"pre_policy_avg", formatFloat(summary.PrePolicyAvg)},
			{"post_policy_avg", formatFloat(summary.PostPolicyAvg)},
			{"percent_change", formatFloat(summary.PercentChange)},
		},
	}
}

// CausalEffectsTable builds causal_effects: observed outcome, counterfactual,
// confidence bounds and pointwise effect per month.
func CausalEffectsTable(result impact.CounterfactualResult) Table {
	rows := make([][]string, len(result))
	for i, p := range result {
		rows[i] = []string{
			core.FormatMonth(p.Month),
			formatFloat(p.Observed),
			formatFloat(p.Counterfactual),
			formatFloat(p.CILow),
			formatFloat(p.CIHigh),
			formatFloat(p.Effect),
		}
	}
	return Table{
		Name:   "causal_effects",
		Header: []string{"month", "y", "counterfactual", "cf_ci_low", "cf_ci_high", "effect"},
		Rows:   rows,
	}
}

// CausalSummaryTable builds causal_summary in metric/value layout.
func CausalSummaryTable(summary impact.EffectSummary) Table {
	return Table{
		Name:   "causal_summary",
		Header: []string{"metric", "value"},
		Rows: [][]string{
			{"avg_post_policy_treatment_effect", formatFloat(summary.AvgEffect)},
			{"total_post_policy_treatment_effect", formatFloat(summary.TotalEffect)},
			{"model_r_squared", formatFloat(summary.RSquared)},
			{"post_period_points", strconv.Itoa(summary.PostPeriodPoints)},
		},
	}
}

// LagMetricsTable builds lag_model_metrics: held-out fit per tested lag.
func LagMetricsTable(candidates []impact.LagCandidate) Table {
	rows := make([][]string, len(candidates))
	for i, c := range candidates {
		rows[i] = []string{strconv.Itoa(c.Lag), formatFloat(c.R2), formatFloat(c.RMSE)}
	}
	return Table{
		Name:   "lag_model_metrics",
		Header: []string{"lag", "r2", "rmse"},
		Rows:   rows,
	}
}

// LagSummaryTable builds lag_prediction_summary for the chosen lag.
func LagSummaryTable(selection impact.LagSelection) Table {
	return Table{
		Name:   "lag_prediction_summary",
		Header: []string{"metric", "value"},
		Rows: [][]string{
			{"best_lag", strconv.Itoa(selection.Best.Lag)},
			{"best_lag_r2", formatFloat(selection.Best.R2)},
			{"best_lag_rmse", formatFloat(selection.Best.RMSE)},
		},
	}
}

// LagFitTable builds lag_prediction_fit: the winning lag's full-data refit.
func LagFitTable(selection impact.LagSelection) Table {
	rows := make([][]string, len(selection.Fitted))
	for i, p := range selection.Fitted {
		rows[i] = []string{core.FormatMonth(p.Month), formatFloat(p.Actual), formatFloat(p.Predicted)}
	}
	return Table{
		Name:   "lag_prediction_fit",
		Header: []string{"month", "actual", "predicted"},
		Rows:   rows,
	}
}

// GrangerTable builds granger_results: the F-test p-value per tested lag.
func GrangerTable(result impact.CausalityResult) Table {
	rows := make([][]string, len(result))
	for i, p := range result {
		rows[i] = []string{strconv.Itoa(p.Lag), formatFloat(p.PValue)}
	}
	return Table{
		Name:   "granger_results",
		Header: []string{"lag", "ssr_ftest_pvalue"},
		Rows:   rows,
	}
}

// SentimentDailyTable builds sentiment_daily: per-day average compound score
// and post volume.
func SentimentDailyTable(daily []sentiment.DailyPoint) Table {
	rows := make([][]string, len(daily))
	for i, d := range daily {
		rows[i] = []string{
			d.Date.Format("2006-01-02"),
			formatFloat(d.AvgCompound),
			strconv.Itoa(d.Posts),
		}
	}
	return Table{
		Name:   "sentiment_daily",
		Header: []string{"date", "avg_compound", "posts"},
		Rows:   rows,
	}
}

// ComparisonTable builds cross_city_comparison across entities.
func ComparisonTable(comparisons []impact.EntityComparison) Table {
	rows := make([][]string, len(comparisons))
	for i, c := range comparisons {
		avgSentiment := ""
		posts := ""
		if c.HasSentiment {
			avgSentiment = formatFloat(c.AvgSentiment)
			posts = strconv.Itoa(c.Posts)
		}
		rows[i] = []string{
			c.Entity.String(),
			formatFloat(c.PrePolicyAvg),
			formatFloat(c.PostPolicyAvg),
			formatFloat(c.PercentChange),
			avgSentiment,
			posts,
			strconv.Itoa(c.EffectivenessRank),
		}
	}
	return Table{
		Name: "cross_city_comparison",
		Header: []string{
			"city", "pre_policy_avg", "post_policy_avg", "percent_change",
			"avg_sentiment", "posts", "effectiveness_rank",
		},
		Rows: rows,
	}
}

// formatFloat renders a float for artifact tables; NaN becomes an empty cell,
// matching how the downstream consumers expect missing metrics.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
