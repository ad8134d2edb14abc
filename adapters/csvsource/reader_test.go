package csvsource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"policypulse/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSeries_ParsesAndSkipsMissingMarkers(t *testing.T) {
	// "." is FRED's missing marker and empty cells mean the same thing; both
	// skip the row without failing the whole file.
	path := writeTempCSV(t, `DATE,ATNHPIUS35620Q
2023-01-01,310.5
2023-04-01,.
2023-07-01,
2023-10-01,315.2
`)

	observations, err := NewReader(path).ReadSeries("DATE", "ATNHPIUS35620Q")
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, 310.5, observations[0].Value)
	assert.Equal(t, 315.2, observations[1].Value)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), observations[0].Timestamp)
}

func TestReadSeries_HeaderLookupIsCaseInsensitive(t *testing.T) {
	path := writeTempCSV(t, `Date, Value
2023-01-15,42
`)

	observations, err := NewReader(path).ReadSeries("DATE", "value")
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 42.0, observations[0].Value)
}

func TestReadSeries_SortsUnorderedRows(t *testing.T) {
	path := writeTempCSV(t, `date,value
2023-03-01,3
2023-01-01,1
2023-02-01,2
`)

	observations, err := NewReader(path).ReadSeries("date", "value")
	require.NoError(t, err)
	require.Len(t, observations, 3)
	for i := 1; i < len(observations); i++ {
		assert.True(t, observations[i-1].Timestamp.Before(observations[i].Timestamp),
			"observations must come back sorted")
	}
}

func TestReadSeries_HardErrors(t *testing.T) {
	t.Run("unparseable date", func(t *testing.T) {
		path := writeTempCSV(t, "date,value\nnot-a-date,1\n")
		_, err := NewReader(path).ReadSeries("date", "value")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("non-numeric value", func(t *testing.T) {
		path := writeTempCSV(t, "date,value\n2023-01-01,abc\n")
		_, err := NewReader(path).ReadSeries("date", "value")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeTempCSV(t, "date,value\n2023-01-01,1\n")
		_, err := NewReader(path).ReadSeries("date", "price")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := NewReader(filepath.Join(t.TempDir(), "missing.csv")).ReadSeries("date", "value")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})

	t.Run("all rows missing", func(t *testing.T) {
		path := writeTempCSV(t, "date,value\n2023-01-01,.\n")
		_, err := NewReader(path).ReadSeries("date", "value")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	})
}

func TestReadPosts_TitleAndBodyOptionalIndividually(t *testing.T) {
	path := writeTempCSV(t, `id,created_utc,title
p1,2024-02-01,Rents are improving
p2,2024-02-02,Still a crisis
`)

	posts, err := NewReader(path).ReadPosts("id", "created_utc", "title", "body")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "Rents are improving", posts[0].Title)
	assert.Empty(t, posts[0].Body)
}

func TestReadPosts_FailsWithoutAnyTextColumn(t *testing.T) {
	path := writeTempCSV(t, "id,created_utc\np1,2024-02-01\n")

	_, err := NewReader(path).ReadPosts("id", "created_utc", "title", "body")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestNewReader_DetectsFormatFromExtension(t *testing.T) {
	assert.Equal(t, "csv", NewReader("data/input.csv").fileType)
	assert.Equal(t, "xlsx", NewReader("data/input.XLSX").fileType)
	assert.Equal(t, "xlsx", NewReader("data/input.xls").fileType)
	assert.Equal(t, "csv", NewReader("data/input.txt").fileType)
}
