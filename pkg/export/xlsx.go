package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an XLSX export.
const SheetName = "Responses"

// XLSX writes a workbook with one sheet holding a bold header row and one row
// per submission.
type XLSX struct {
	columnWidth float64
}

func NewXLSX() *XLSX { return &XLSX{columnWidth: 20} }

func (*XLSX) Name() string { return "xlsx" }
func (*XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (*XLSX) Extension() string   { return "xlsx" }
func (*XLSX) Description() string { return "Excel workbook with a single Responses sheet" }

func (x *XLSX) Serialize(ctx context.Context, table Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	stamp := documentTime(table).Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:          table.Title(),
		Creator:        "formdesk",
		LastModifiedBy: "formdesk",
		Created:        stamp,
		Modified:       stamp,
	}); err != nil {
		return fmt.Errorf("doc props: %w", err)
	}

	columns := table.Columns()
	if err := writeSheetRow(f, 1, columns); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	lastColumn, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", lastColumn, x.columnWidth); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeSheetRow(f, i+2, row.Values()); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, rowNumber int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNumber, err)
	}
	return nil
}

// documentTime is the timestamp stamped into document metadata. It never
// depends on the wall clock.
func documentTime(table Table) time.Time {
	if table.Generated.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return table.Generated.UTC()
}
