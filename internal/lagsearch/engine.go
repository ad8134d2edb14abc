// Package lagsearch finds the lead time at which a predictor series best
// anticipates an outcome series, by fitting one single-feature regression per
// candidate lag on a chronological train/test split.
package lagsearch

import (
	"policypulse/domain/impact"
	"policypulse/domain/series"
	"policypulse/internal/align"
	"policypulse/internal/errors"
	"policypulse/internal/regress"
)

const (
	// minLagRows is the fewest joined rows a lag may keep after shifting and
	// still be scored; thinner lags are skipped, not fatal.
	minLagRows = 8
	// minTrainRows floors the chronological training split.
	minTrainRows = 4
	trainRatio   = 0.8
)

// SearchLags joins outcome and predictor on month, then for each lag k in
// 1..maxLag pairs predictor[t-k] with outcome[t] and scores a linear fit on
// held-out rows. The split is chronological, never shuffled: lag prediction is
// only meaningful when the model is evaluated on data strictly after what it
// trained on.
//
// Selection uses strict greater-than while scanning lags in ascending order,
// so ties resolve to the smallest lag deterministically. If every lag lacks
// sufficient history the search fails with an insufficient-data error.
func SearchLags(outcome, predictor series.MonthlySeries, maxLag int) (impact.LagSelection, error) {
	if maxLag < 1 {
		return impact.LagSelection{}, errors.InvalidInput("max lag must be at least 1")
	}

	joined := align.InnerJoin(outcome, predictor)
	if len(joined) == 0 {
		return impact.LagSelection{}, errors.InvalidInput("outcome and predictor share no months")
	}

	var candidates []impact.LagCandidate
	best := impact.LagCandidate{Lag: 0}
	haveBest := false

	for lag := 1; lag <= maxLag; lag++ {
		xs, ys := laggedPairs(joined, lag)
		if len(ys) < minLagRows {
			continue
		}

		split := int(trainRatio * float64(len(ys)))
		if split < minTrainRows {
			split = minTrainRows
		}
		if split >= len(ys) {
			continue // no test rows left
		}

		model, err := fitSimple(xs[:split], ys[:split])
		if err != nil {
			continue
		}

		testPred := make([]float64, len(ys)-split)
		for i, x := range xs[split:] {
			testPred[i] = model.Predict([]float64{1, x})
		}
		actual := ys[split:]

		candidate := impact.LagCandidate{
			Lag:  lag,
			R2:   regress.RSquared(actual, testPred),
			RMSE: regress.RMSE(actual, testPred),
		}
		candidates = append(candidates, candidate)

		if !haveBest || candidate.R2 > best.R2 {
			best = candidate
			haveBest = true
		}
	}

	if !haveBest {
		return impact.LagSelection{}, errors.InsufficientData("lag search", "insufficient data for lag modeling")
	}

	fitted, err := refitBest(joined, best.Lag)
	if err != nil {
		return impact.LagSelection{}, errors.Wrap(err, "refitting winning lag")
	}

	return impact.LagSelection{
		Candidates: candidates,
		Best:       best,
		Fitted:     fitted,
	}, nil
}

// laggedPairs pairs the predictor shifted forward by lag months with the
// outcome, dropping the first lag rows that have no defined lagged predictor.
func laggedPairs(joined series.JoinedSeries, lag int) ([]float64, []float64) {
	if lag >= len(joined) {
		return nil, nil
	}
	n := len(joined) - lag
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = joined[i].Right    // predictor at t-lag
		ys[i] = joined[i+lag].Left // outcome at t
	}
	return xs, ys
}

func fitSimple(xs, ys []float64) (*regress.Model, error) {
	rows := make([][]float64, len(xs))
	for i, x := range xs {
		rows[i] = []float64{1, x}
	}
	return regress.Fit(rows, ys)
}

// refitBest refits the winning lag on all of its available rows to produce the
// reported trajectory, separate from the train/test split used for selection.
func refitBest(joined series.JoinedSeries, lag int) ([]impact.LagFitPoint, error) {
	xs, ys := laggedPairs(joined, lag)
	model, err := fitSimple(xs, ys)
	if err != nil {
		return nil, err
	}

	fitted := make([]impact.LagFitPoint, len(ys))
	for i := range ys {
		fitted[i] = impact.LagFitPoint{
			Month:     joined[i+lag].Month,
			Actual:    ys[i],
			Predicted: model.Predict([]float64{1, xs[i]}),
		}
	}
	return fitted, nil
}
