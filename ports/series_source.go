package ports

import (
	"context"

	"policypulse/domain/core"
	"policypulse/domain/series"
)

// SeriesSource fetches a published observation series from an external
// provider. Retry and timeout policy live behind this boundary; the
// statistical core never performs I/O.
type SeriesSource interface {
	Fetch(ctx context.Context, seriesID core.SeriesKey) (series.ObservationSeries, error)
}
