package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// CSV writes RFC 4180 output with a header row of column names.
type CSV struct{}

func NewCSV() *CSV { return &CSV{} }

func (*CSV) Name() string        { return "csv" }
func (*CSV) ContentType() string { return "text/csv; charset=utf-8" }
func (*CSV) Extension() string   { return "csv" }
func (*CSV) Description() string { return "Comma-separated values, one row per submission" }

func (*CSV) Serialize(ctx context.Context, table Table, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(row.Values()); err != nil {
			return fmt.Errorf("write row %d: %w", row.Index, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
