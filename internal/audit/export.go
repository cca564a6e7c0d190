package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TableSource provides the exportable tables.
type TableSource interface {
	GetTableNames(ctx context.Context) ([]string, error)
	GetTableData(ctx context.Context, table string) ([]map[string]any, []string, error)
}

// Exporter renders the audit tables into an Excel workbook, one sheet per
// table with a bold header row.
type Exporter struct {
	source TableSource
}

func NewExporter(source TableSource) *Exporter {
	return &Exporter{source: source}
}

// Export writes the workbook to w.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	tables, err := e.source.GetTableNames(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	for i, table := range tables {
		sheet := sheetName(table)
		if i == 0 {
			file.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := file.NewSheet(sheet); err != nil {
				return fmt.Errorf("create sheet %s: %w", sheet, err)
			}
		}

		data, columns, err := e.source.GetTableData(ctx, table)
		if err != nil {
			return fmt.Errorf("read table %s: %w", table, err)
		}

		if err := writeHeader(file, sheet, columns); err != nil {
			return err
		}
		for rowIdx, row := range data {
			values := make([]any, len(columns))
			for colIdx, col := range columns {
				values[colIdx] = row[col]
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := file.SetSheetRow(sheet, cell, &values); err != nil {
				return fmt.Errorf("write row in %s: %w", sheet, err)
			}
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Excel caps sheet names at 31 characters.
func sheetName(table string) string {
	if len(table) > 31 {
		return table[:31]
	}
	return table
}

func writeHeader(file *excelize.File, sheet string, columns []string) error {
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header in %s: %w", sheet, err)
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil
	}
	_ = file.SetCellStyle(sheet, "A1", end, style)
	return nil
}
