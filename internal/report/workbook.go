package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"pesticide-analytics/internal/analytics"
)

// WriteWorkbook writes one sheet per result, named after the view, with the
// view's tables stacked top to bottom.
func WriteWorkbook(w io.Writer, results []analytics.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return fmt.Errorf("creating title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, res := range results {
		sheet := res.View().ShortName()
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}

		tables, err := Tables(res)
		if err != nil {
			return err
		}
		if err := writeSheet(f, sheet, res.View().Title(), tables, titleStyle, headerStyle); err != nil {
			return fmt.Errorf("writing sheet %s: %w", sheet, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet, title string, tables []Table, titleStyle, headerStyle int) error {
	row := 1
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}
	row += 2

	width := 1
	for _, t := range tables {
		titleCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, titleCell, t.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, titleCell, titleCell, titleStyle); err != nil {
			return err
		}
		row++

		header := make([]interface{}, len(t.Header))
		for i, h := range t.Header {
			header[i] = h
		}
		headerCell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, headerCell, &header); err != nil {
			return err
		}
		lastHeader, _ := excelize.CoordinatesToCellName(len(t.Header), row)
		if err := f.SetCellStyle(sheet, headerCell, lastHeader, headerStyle); err != nil {
			return err
		}
		row++
		width = max(width, len(t.Header))

		for _, r := range t.Rows {
			values := make([]interface{}, len(r))
			for i, v := range r {
				values[i] = cellValue(v)
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return err
			}
			row++
		}
		row++
	}

	last, _ := excelize.ColumnNumberToName(width)
	return f.SetColWidth(sheet, "A", last, 20)
}

// cellValue keeps numbers numeric; a nil *float64 becomes an empty cell.
func cellValue(v interface{}) interface{} {
	if p, ok := v.(*float64); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}
