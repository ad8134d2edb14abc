// Package report writes the artifact tables other tools consume: one CSV per
// table plus an optional Excel workbook bundling a whole run.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"policypulse/internal/errors"
)

// Writer persists artifact tables under a single output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer rooted at outputDir, creating it if needed.
func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	return &Writer{outputDir: outputDir}, nil
}

// OutputDir returns the directory artifacts are written into.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// WriteCSV writes one table as <name>.csv and returns the file path.
func (w *Writer) WriteCSV(table Table) (string, error) {
	path := filepath.Join(w.outputDir, table.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(table.Header); err != nil {
		return "", errors.Wrapf(err, "writing header of %s", table.Name)
	}
	for _, row := range table.Rows {
		if err := cw.Write(row); err != nil {
			return "", errors.Wrapf(err, "writing rows of %s", table.Name)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", errors.Wrapf(err, "flushing %s", table.Name)
	}
	return path, nil
}

// WriteAll writes each table as its own CSV, failing on the first error.
func (w *Writer) WriteAll(tables ...Table) error {
	for _, table := range tables {
		if _, err := w.WriteCSV(table); err != nil {
			return err
		}
	}
	return nil
}
