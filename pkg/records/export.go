package records

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/govmetrics/govdash/pkg/query"
)

// defaultSheet is excelize's initial sheet name.
const defaultSheet = "Sheet1"

// WriteXLSX renders a query result as a spreadsheet with a header row,
// preserving the result's column order.
func WriteXLSX(w io.Writer, sheet string, result *query.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, column := range result.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("locating header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			return fmt.Errorf("writing header cell: %w", err)
		}
	}

	for rowIdx, row := range result.Rows {
		for colIdx, column := range result.Columns {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("locating cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, row[column]); err != nil {
				return fmt.Errorf("writing cell %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
