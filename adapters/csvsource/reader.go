// Package csvsource reads tabular input files (CSV or Excel) into domain
// series. Columns are addressed by caller-provided names; only the positional
// semantics of (date, value) matter.
package csvsource

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"policypulse/domain/core"
	"policypulse/domain/sentiment"
	"policypulse/domain/series"
	"policypulse/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Reader handles reading CSV and Excel files into domain rows.
type Reader struct {
	filePath string
	fileType string // "csv" or "xlsx"
}

// NewReader creates a reader for the given path, choosing the format from the
// file extension.
func NewReader(filePath string) *Reader {
	fileType := "csv"
	if ext := strings.ToLower(filepath.Ext(filePath)); ext == ".xlsx" || ext == ".xls" {
		fileType = "xlsx"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// ReadSeries extracts an observation series from the named date and value
// columns. Unparseable dates are hard errors; values of "" or "." (the FRED
// missing marker) skip the row; any other non-numeric value is a hard error.
func (r *Reader) ReadSeries(dateCol, valueCol string) (series.ObservationSeries, error) {
	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("input file has no data rows: " + r.filePath)
	}

	dateIdx, err := columnIndex(rows[0], dateCol)
	if err != nil {
		return nil, err
	}
	valueIdx, err := columnIndex(rows[0], valueCol)
	if err != nil {
		return nil, err
	}

	var observations series.ObservationSeries
	for i, row := range rows[1:] {
		if dateIdx >= len(row) || valueIdx >= len(row) {
			continue // short trailing row
		}
		raw := strings.TrimSpace(row[valueIdx])
		if raw == "" || raw == "." {
			continue
		}
		ts, err := core.ParseDate(row[dateIdx])
		if err != nil {
			return nil, errors.Wrapf(errors.InvalidInput(err.Error()), "row %d of %s", i+2, r.filePath)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.InvalidInput("non-numeric value " + strconv.Quote(raw) + " in " + r.filePath)
		}
		observations = append(observations, series.Observation{Timestamp: ts, Value: value})
	}

	if len(observations) == 0 {
		return nil, errors.InvalidInput("no usable observations in " + r.filePath)
	}
	observations.Sort()
	return observations, nil
}

// ReadPosts extracts unscored social posts for sentiment scoring. Title and
// body columns are optional individually but at least one must exist.
func (r *Reader) ReadPosts(idCol, dateCol, titleCol, bodyCol string) ([]sentiment.Post, error) {
	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("input file has no data rows: " + r.filePath)
	}

	header := rows[0]
	idIdx, err := columnIndex(header, idCol)
	if err != nil {
		return nil, err
	}
	dateIdx, err := columnIndex(header, dateCol)
	if err != nil {
		return nil, err
	}
	titleIdx, titleErr := columnIndex(header, titleCol)
	bodyIdx, bodyErr := columnIndex(header, bodyCol)
	if titleErr != nil && bodyErr != nil {
		return nil, errors.InvalidInput("neither title nor body column found in " + r.filePath)
	}

	var posts []sentiment.Post
	for i, row := range rows[1:] {
		if idIdx >= len(row) || dateIdx >= len(row) {
			continue
		}
		created, err := core.ParseDate(row[dateIdx])
		if err != nil {
			return nil, errors.Wrapf(errors.InvalidInput(err.Error()), "row %d of %s", i+2, r.filePath)
		}
		post := sentiment.Post{ID: row[idIdx], CreatedAt: created}
		if titleErr == nil && titleIdx < len(row) {
			post.Title = row[titleIdx]
		}
		if bodyErr == nil && bodyIdx < len(row) {
			post.Body = row[bodyIdx]
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *Reader) readRows() ([][]string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput("input file not found: " + r.filePath)
	}
	if r.fileType == "xlsx" {
		return r.readExcelRows()
	}
	return r.readCSVRows()
}

func (r *Reader) readCSVRows() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening CSV file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading CSV file")
	}
	return rows, nil
}

func (r *Reader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "opening Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("Excel file has no sheets: " + r.filePath)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading Excel sheet")
	}
	return rows, nil
}

// columnIndex locates a header column by case-insensitive name.
func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i, nil
		}
	}
	return 0, errors.InvalidInput("column " + strconv.Quote(name) + " not found in header")
}
