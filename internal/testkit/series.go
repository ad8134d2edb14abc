// Package testkit generates deterministic synthetic series for package tests:
// trends, step interventions, and predictors that lead an outcome by a known
// number of months.
package testkit

import (
	"math/rand"
	"time"

	"policypulse/domain/series"
)

// MonthGrid returns n consecutive month starts beginning at the month of start.
func MonthGrid(start time.Time, n int) []time.Time {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	grid := make([]time.Time, n)
	for i := 0; i < n; i++ {
		grid[i] = first.AddDate(0, i, 0)
	}
	return grid
}

// TrendSeries builds a monthly series base + slope*t with Gaussian noise.
func TrendSeries(start time.Time, n int, base, slope, noise float64, seed int64) series.MonthlySeries {
	rng := rand.New(rand.NewSource(seed))
	grid := MonthGrid(start, n)
	out := make(series.MonthlySeries, n)
	for i, month := range grid {
		out[i] = series.MonthlyPoint{
			Month: month,
			Value: base + slope*float64(i) + rng.NormFloat64()*noise,
		}
	}
	return out
}

// StepSeries builds a monthly series that jumps by delta starting at the
// zero-based month index stepAt.
func StepSeries(start time.Time, n, stepAt int, base, delta, noise float64, seed int64) series.MonthlySeries {
	rng := rand.New(rand.NewSource(seed))
	grid := MonthGrid(start, n)
	out := make(series.MonthlySeries, n)
	for i, month := range grid {
		v := base + rng.NormFloat64()*noise
		if i >= stepAt {
			v += delta
		}
		out[i] = series.MonthlyPoint{Month: month, Value: v}
	}
	return out
}

// LeadingPredictor builds a predictor on the same month grid whose value at
// month t anticipates the outcome at month t+lead, plus Gaussian noise. Months
// past the outcome's end carry the final outcome value so the grid stays full.
func LeadingPredictor(outcome series.MonthlySeries, lead int, noise float64, seed int64) series.MonthlySeries {
	rng := rand.New(rand.NewSource(seed))
	n := len(outcome)
	out := make(series.MonthlySeries, n)
	for i := range outcome {
		src := i + lead
		if src >= n {
			src = n - 1
		}
		out[i] = series.MonthlyPoint{
			Month: outcome[i].Month,
			Value: outcome[src].Value + rng.NormFloat64()*noise,
		}
	}
	return out
}

// DailyObservations expands a monthly series into perMonth dated observations
// whose within-month mean equals the monthly value exactly, so aligning them
// must round-trip back to the input.
func DailyObservations(monthly series.MonthlySeries, perMonth int, spread float64, seed int64) series.ObservationSeries {
	rng := rand.New(rand.NewSource(seed))
	var out series.ObservationSeries
	for _, p := range monthly {
		offsets := make([]float64, perMonth)
		sum := 0.0
		for i := range offsets {
			offsets[i] = rng.NormFloat64() * spread
			sum += offsets[i]
		}
		mean := sum / float64(perMonth)
		for i := range offsets {
			out = append(out, series.Observation{
				Timestamp: p.Month.AddDate(0, 0, i),
				Value:     p.Value + offsets[i] - mean,
			})
		}
	}
	return out
}
