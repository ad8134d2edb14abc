package report

import (
	"fmt"
	"path/filepath"

	"policypulse/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook bundles the given tables into one Excel workbook, one sheet
// per table, and returns the file path. Analysts get a single download
// instead of a directory of CSVs.
func (w *Writer) WriteWorkbook(filename string, tables ...Table) (string, error) {
	if len(tables) == 0 {
		return "", errors.InvalidInput("workbook needs at least one table")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range tables {
		sheet := table.Name
		if i == 0 {
			// Rename the default sheet rather than leaving an empty Sheet1.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return "", errors.Wrapf(err, "naming sheet %s", sheet)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return "", errors.Wrapf(err, "creating sheet %s", sheet)
			}
		}

		if err := writeSheetRow(f, sheet, 1, table.Header); err != nil {
			return "", err
		}
		for rowIdx, row := range table.Rows {
			if err := writeSheetRow(f, sheet, rowIdx+2, row); err != nil {
				return "", err
			}
		}
	}

	path := filepath.Join(w.outputDir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", errors.Wrapf(err, "saving workbook %s", path)
	}
	return path, nil
}

func writeSheetRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return errors.Wrap(err, "computing cell coordinates")
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return errors.Wrap(err, fmt.Sprintf("writing row %d of %s", rowNum, sheet))
	}
	return nil
}
