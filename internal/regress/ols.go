// Package regress holds the ordinary-least-squares plumbing shared by the
// counterfactual estimator, the lag search, and the causality tester. Design
// matrices are built per call and never persisted.
package regress

import (
	"math"

	"policypulse/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model is a fitted OLS regression. Coefficients are ordered as the design
// matrix columns were supplied (the caller prepends its own intercept column).
type Model struct {
	Coefficients []float64
	Fitted       []float64
	Residuals    []float64
	RSS          float64
	RSquared     float64
	ResidualDF   float64

	sigma2 float64
	xtxInv *mat.Dense
}

// Fit estimates y = Xβ + ε by least squares. X is row-major with one slice per
// observation; every row must have the same number of columns. Requires more
// rows than columns so the residual variance is estimable.
func Fit(rows [][]float64, y []float64) (*Model, error) {
	n := len(rows)
	if n == 0 || n != len(y) {
		return nil, errors.InvalidInput("design matrix and response must have equal, non-zero length")
	}
	p := len(rows[0])
	if p == 0 {
		return nil, errors.InvalidInput("design matrix has no columns")
	}
	if n <= p {
		return nil, errors.InsufficientData("regression", "more coefficients than observations")
	}

	X := mat.NewDense(n, p, nil)
	for i, row := range rows {
		if len(row) != p {
			return nil, errors.InvalidInput("ragged design matrix")
		}
		X.SetRow(i, row)
	}
	Y := mat.NewDense(n, 1, nil)
	for i, v := range y {
		Y.Set(i, 0, v)
	}

	// Normal equations first; SVD-based least squares when X'X is singular.
	// Without an invertible X'X there is no coefficient covariance, so
	// mean-response standard errors are unavailable on the fallback path.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	beta := make([]float64, p)
	var xtxInv *mat.Dense

	var inv mat.Dense
	if err := inv.Inverse(&xtx); err == nil {
		var xty, b mat.Dense
		xty.Mul(X.T(), Y)
		b.Mul(&inv, &xty)
		for i := 0; i < p; i++ {
			beta[i] = b.At(i, 0)
		}
		xtxInv = &inv
	} else {
		var svd mat.SVD
		if ok := svd.Factorize(X, mat.SVDThin); !ok {
			return nil, errors.New(errors.CodeInternalError, "SVD factorization failed on singular design")
		}
		rank := svd.Rank(1e-12)
		if rank == 0 {
			return nil, errors.InvalidInput("design matrix is numerically zero")
		}
		var b mat.Dense
		svd.SolveTo(&b, Y, rank)
		for i := 0; i < p; i++ {
			beta[i] = b.At(i, 0)
		}
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	rss := 0.0
	for i, row := range rows {
		pred := 0.0
		for j, v := range row {
			pred += beta[j] * v
		}
		fitted[i] = pred
		residuals[i] = y[i] - pred
		rss += residuals[i] * residuals[i]
	}

	df := float64(n - p)
	model := &Model{
		Coefficients: beta,
		Fitted:       fitted,
		Residuals:    residuals,
		RSS:          rss,
		RSquared:     RSquared(y, fitted),
		ResidualDF:   df,
		sigma2:       rss / df,
		xtxInv:       xtxInv,
	}
	return model, nil
}

// Predict evaluates the fitted model on one design row.
func (m *Model) Predict(row []float64) float64 {
	pred := 0.0
	for j, v := range row {
		pred += m.Coefficients[j] * v
	}
	return pred
}

// MeanStdErr returns the standard error of the mean response at a design row:
// sqrt(σ² · x₀ᵀ(XᵀX)⁻¹x₀). This is uncertainty in the mean trajectory, NOT a
// prediction interval for a single new observation (which would be wider).
// Returns NaN when the fit fell back to SVD and no covariance exists.
func (m *Model) MeanStdErr(row []float64) float64 {
	if m.xtxInv == nil {
		return math.NaN()
	}
	p := len(row)
	x := mat.NewDense(p, 1, row)
	var tmp, quad mat.Dense
	tmp.Mul(m.xtxInv, x)
	quad.Mul(x.T(), &tmp)
	v := m.sigma2 * quad.At(0, 0)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// MeanCI returns the two-sided confidence bounds for a mean prediction using
// the Student's t quantile at the model's residual degrees of freedom.
func (m *Model) MeanCI(pred, stdErr, alpha float64) (float64, float64) {
	if math.IsNaN(stdErr) || m.ResidualDF <= 0 {
		return math.NaN(), math.NaN()
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: m.ResidualDF}
	q := t.Quantile(1 - alpha/2)
	return pred - q*stdErr, pred + q*stdErr
}

// RSquared computes the coefficient of determination of predictions against
// actuals, with total sum of squares taken around the mean of the actuals.
func RSquared(actual, predicted []float64) float64 {
	meanY, err := stats.Mean(actual)
	if err != nil {
		return math.NaN()
	}
	ssRes := 0.0
	ssTot := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		ssRes += d * d
		t := actual[i] - meanY
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// RMSE computes the root mean squared error of predictions against actuals.
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	sq := make([]float64, len(actual))
	for i := range actual {
		d := actual[i] - predicted[i]
		sq[i] = d * d
	}
	meanSq, err := stats.Mean(sq)
	if err != nil {
		return math.NaN()
	}
	return math.Sqrt(meanSq)
}

// FTestPValue returns the upper-tail p-value of an F statistic with the given
// numerator and denominator degrees of freedom, clamped to [0, 1].
func FTestPValue(fStat, d1, d2 float64) float64 {
	if fStat <= 0 || math.IsNaN(fStat) || math.IsInf(fStat, 0) {
		return 1
	}
	fDist := distuv.F{D1: d1, D2: d2}
	p := 1 - fDist.CDF(fStat)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
