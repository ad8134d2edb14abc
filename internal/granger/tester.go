// Package granger runs Granger-style causality tests: for each lag depth it
// asks whether the predictor's history improves prediction of the outcome
// beyond the outcome's own history. This is statistical evidence of predictive
// value, not a claim of mechanistic causation, and results should be described
// accordingly.
package granger

import (
	"policypulse/domain/impact"
	"policypulse/domain/series"
	"policypulse/internal/align"
	"policypulse/internal/errors"
	"policypulse/internal/regress"
)

// TestCausality joins outcome and predictor on month and, for each lag depth
// 1..maxLag, compares a restricted model (outcome on its own lags) against an
// unrestricted model (own lags plus predictor lags) with an F-test on the
// residual sums of squares. Lags without enough history for the unrestricted
// fit are skipped; if every lag is skipped the test fails with an
// insufficient-data error.
func TestCausality(outcome, predictor series.MonthlySeries, maxLag int) (impact.CausalityResult, error) {
	if maxLag < 1 {
		return nil, errors.InvalidInput("max lag must be at least 1")
	}

	joined := align.InnerJoin(outcome, predictor)
	y := joined.LeftValues()
	x := joined.RightValues()

	var result impact.CausalityResult
	for lag := 1; lag <= maxLag; lag++ {
		p, ok := testAtLag(y, x, lag)
		if !ok {
			continue
		}
		result = append(result, impact.LagPValue{Lag: lag, PValue: p})
	}

	if len(result) == 0 {
		return nil, errors.InsufficientData("causality test",
			"not enough aligned history for any tested lag")
	}
	return result, nil
}

// testAtLag runs the F-test for one lag depth. Returns ok=false when the
// series is too short to estimate the unrestricted model at this depth.
func testAtLag(y, x []float64, lag int) (float64, bool) {
	n := len(y)
	obs := n - lag
	unrestrictedParams := 2*lag + 1
	dof := float64(obs - unrestrictedParams)
	if dof <= 0 {
		return 0, false
	}

	// Row t predicts y[t] from lags 1..lag of y (restricted) plus the same
	// lags of x (unrestricted).
	restricted := make([][]float64, obs)
	unrestricted := make([][]float64, obs)
	response := make([]float64, obs)
	for i := 0; i < obs; i++ {
		t := i + lag
		response[i] = y[t]

		rRow := make([]float64, 0, lag+1)
		uRow := make([]float64, 0, unrestrictedParams)
		rRow = append(rRow, 1)
		uRow = append(uRow, 1)
		for j := 1; j <= lag; j++ {
			rRow = append(rRow, y[t-j])
			uRow = append(uRow, y[t-j])
		}
		for j := 1; j <= lag; j++ {
			uRow = append(uRow, x[t-j])
		}
		restricted[i] = rRow
		unrestricted[i] = uRow
	}

	restrictedModel, err := regress.Fit(restricted, response)
	if err != nil {
		return 0, false
	}
	unrestrictedModel, err := regress.Fit(unrestricted, response)
	if err != nil {
		return 0, false
	}

	// Floating point can make the restricted RSS dip a hair below the
	// unrestricted one; clamp before forming the F statistic.
	num := restrictedModel.RSS - unrestrictedModel.RSS
	if num < 0 {
		num = 0
	}
	den := unrestrictedModel.RSS / dof
	if den <= 0 || num == 0 {
		return 1, true
	}

	fStat := (num / float64(lag)) / den
	return regress.FTestPValue(fStat, float64(lag), dof), true
}
