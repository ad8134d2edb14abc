// Package fred fetches published economic index series from the FRED CSV
// endpoint. This is the only network boundary in the system; the statistical
// core consumes the returned series without knowing where it came from.
package fred

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"policypulse/domain/core"
	"policypulse/domain/series"
	"policypulse/internal/errors"
	"policypulse/ports"
)

// Client downloads observation series from fredgraph.csv.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ ports.SeriesSource = (*Client)(nil)

// NewClient creates a FRED client. Timeout applies to the whole download.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads one series by its FRED ID (e.g. ATNHPIUS35620Q). The FRED
// export uses "." for missing values; those rows are skipped.
func (c *Client) Fetch(ctx context.Context, seriesID core.SeriesKey) (series.ObservationSeries, error) {
	if strings.TrimSpace(seriesID.String()) == "" {
		return nil, errors.InvalidInput("series ID cannot be empty")
	}

	endpoint := fmt.Sprintf("%s?id=%s", c.baseURL, url.QueryEscape(seriesID.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building FRED request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("FRED", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.ExternalServiceError("FRED",
			fmt.Errorf("unexpected status %d for series %s", resp.StatusCode, seriesID))
	}

	observations, err := parseSeriesCSV(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing FRED response for %s", seriesID)
	}
	return observations, nil
}

// parseSeriesCSV reads the two-column fredgraph export: a date column followed
// by the series value column.
func parseSeriesCSV(r io.Reader) (series.ObservationSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading series CSV")
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("series response has no data rows")
	}

	var observations series.ObservationSeries
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		raw := strings.TrimSpace(row[1])
		if raw == "" || raw == "." {
			continue
		}
		ts, err := core.ParseDate(row[0])
		if err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.InvalidInput("non-numeric series value " + strconv.Quote(raw))
		}
		observations = append(observations, series.Observation{Timestamp: ts, Value: value})
	}

	if len(observations) == 0 {
		return nil, errors.InvalidInput("series response contained no usable observations")
	}
	observations.Sort()
	return observations, nil
}
