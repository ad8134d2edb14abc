// Package align resamples irregularly-dated observation series onto a common
// monthly grid. Without this alignment the downstream estimators would compare
// values sampled at incompatible frequencies.
package align

import (
	"math"
	"sort"
	"time"

	"policypulse/domain/core"
	"policypulse/domain/series"
	"policypulse/internal/errors"

	"github.com/montanaflynn/stats"
)

// Align groups observations by calendar month and averages the values within
// each month. The result has one row per distinct month present in the input,
// keyed by the first day of the month, in strictly increasing order.
//
// NaN values are dropped before grouping; a month whose observations were all
// NaN does not appear in the output.
func Align(observations series.ObservationSeries) (series.MonthlySeries, error) {
	if len(observations) == 0 {
		return nil, errors.InvalidInput("cannot align an empty observation series")
	}

	buckets := make(map[time.Time][]float64)
	for _, obs := range observations {
		if obs.Timestamp.IsZero() {
			return nil, errors.InvalidInput("observation has no timestamp")
		}
		if math.IsNaN(obs.Value) {
			continue
		}
		month := core.MonthStart(obs.Timestamp)
		buckets[month] = append(buckets[month], obs.Value)
	}

	if len(buckets) == 0 {
		return nil, errors.InvalidInput("observation series has no numeric values")
	}

	months := make([]time.Time, 0, len(buckets))
	for month := range buckets {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	monthly := make(series.MonthlySeries, 0, len(months))
	for _, month := range months {
		mean, err := stats.Mean(buckets[month])
		if err != nil {
			return nil, errors.Wrapf(err, "averaging month %s", core.FormatMonth(month))
		}
		monthly = append(monthly, series.MonthlyPoint{Month: month, Value: mean})
	}

	return monthly, nil
}

// InnerJoin matches two monthly series on identical month starts. Months
// missing from either side are dropped rather than imputed: a partial month
// without its counterpart would bias effect and lag estimates downstream.
func InnerJoin(left, right series.MonthlySeries) series.JoinedSeries {
	rightByMonth := make(map[time.Time]float64, len(right))
	for _, p := range right {
		rightByMonth[p.Month] = p.Value
	}

	joined := make(series.JoinedSeries, 0, len(left))
	for _, p := range left {
		if rv, ok := rightByMonth[p.Month]; ok {
			joined = append(joined, series.JoinedPoint{Month: p.Month, Left: p.Value, Right: rv})
		}
	}
	return joined
}
