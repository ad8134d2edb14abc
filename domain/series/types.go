package series

import (
	"sort"
	"time"

	"policypulse/domain/core"
)

// Observation is a single dated measurement from a raw input source.
// Sampling frequency may be irregular; duplicate timestamps are permitted on input
// and collapse during monthly resampling.
type Observation struct {
	Timestamp time.Time
	Value     float64
}

// ObservationSeries is an ordered sequence of dated observations.
type ObservationSeries []Observation

// Sort orders observations by timestamp ascending, in place.
func (s ObservationSeries) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// MonthlyPoint is one resampled row: the first day of a calendar month and the
// mean of all observations falling inside that month.
type MonthlyPoint struct {
	Month time.Time
	Value float64
}

// MonthlySeries is an ordered monthly grid with strictly increasing month starts.
type MonthlySeries []MonthlyPoint

// Values returns the value column.
func (m MonthlySeries) Values() []float64 {
	out := make([]float64, len(m))
	for i, p := range m {
		out[i] = p.Value
	}
	return out
}

// Months returns the month column.
func (m MonthlySeries) Months() []time.Time {
	out := make([]time.Time, len(m))
	for i, p := range m {
		out[i] = p.Month
	}
	return out
}

// IsMonotonic reports whether month starts are strictly increasing and each is
// the first day of its month. Violations indicate an aligner bug, not bad input.
func (m MonthlySeries) IsMonotonic() bool {
	for i, p := range m {
		if !p.Month.Equal(core.MonthStart(p.Month)) {
			return false
		}
		if i > 0 && !m[i-1].Month.Before(p.Month) {
			return false
		}
	}
	return true
}

// JoinedPoint is one row of two series joined on matching month starts.
type JoinedPoint struct {
	Month time.Time
	Left  float64
	Right float64
}

// JoinedSeries is the inner-join of two monthly series. Months missing from
// either side are dropped: partial-month data without a counterpart would bias
// downstream effect and lag estimates.
type JoinedSeries []JoinedPoint

// LeftValues returns the left value column.
func (j JoinedSeries) LeftValues() []float64 {
	out := make([]float64, len(j))
	for i, p := range j {
		out[i] = p.Left
	}
	return out
}

// RightValues returns the right value column.
func (j JoinedSeries) RightValues() []float64 {
	out := make([]float64, len(j))
	for i, p := range j {
		out[i] = p.Right
	}
	return out
}
