package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formdesk/pkg/responses"
)

const (
	DefaultPlaceholder = "-"
	DefaultTimeLayout  = "1/2/2006, 3:04:05 PM"

	FileUploadHeader = "file_upload"
	CreatedAtHeader  = "created_at"
	FileUploadTitle  = "File Upload"
	SubmittedAtTitle = "Submitted At"
	arraySeparator   = ", "
)

// TableOptions controls how cells are rendered.
type TableOptions struct {
	FormID      int64
	Placeholder string
	Location    *time.Location
	TimeLayout  string
}

func (o TableOptions) withDefaults() TableOptions {
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.TimeLayout == "" {
		o.TimeLayout = DefaultTimeLayout
	}
	return o
}

// Row is one submission flattened to display strings.
type Row struct {
	// Index is the 1-based position of the row in the table.
	Index       int
	ID          int64
	Cells       []string
	FileUpload  string
	SubmittedAt string
	// HasFile reports whether FileUpload is a real reference rather than the
	// placeholder.
	HasFile bool
}

// Table is the export-ready view of a record set.
type Table struct {
	FormID  int64
	Headers []string
	Rows    []Row
	// Generated is the latest submission time in the set, used where formats
	// need a document timestamp.
	Generated time.Time
}

// Title returns the document title used by paginated formats.
func (t Table) Title() string {
	return fmt.Sprintf("Form #%d Responses", t.FormID)
}

// Columns returns the machine column names: data keys plus file_upload and
// created_at.
func (t Table) Columns() []string {
	out := make([]string, 0, len(t.Headers)+2)
	out = append(out, t.Headers...)
	return append(out, FileUploadHeader, CreatedAtHeader)
}

// Titles returns the human column titles used by the PDF and HTML views.
func (t Table) Titles() []string {
	out := make([]string, 0, len(t.Headers)+2)
	out = append(out, t.Headers...)
	return append(out, FileUploadTitle, SubmittedAtTitle)
}

// Values returns a row's cells in Columns order.
func (r Row) Values() []string {
	out := make([]string, 0, len(r.Cells)+2)
	out = append(out, r.Cells...)
	return append(out, r.FileUpload, r.SubmittedAt)
}

// BuildTable flattens records into a table. Headers are the first record's
// data keys in wire order.
func BuildTable(records []responses.Record, opts TableOptions) Table {
	opts = opts.withDefaults()
	table := Table{FormID: opts.FormID, Rows: make([]Row, 0, len(records))}
	if len(records) > 0 {
		table.Headers = records[0].Data.Keys()
	}

	for i, record := range records {
		row := Row{
			Index:       i + 1,
			ID:          record.ID,
			Cells:       make([]string, len(table.Headers)),
			FileUpload:  opts.Placeholder,
			SubmittedAt: record.CreatedAt.In(opts.Location).Format(opts.TimeLayout),
		}
		for j, key := range table.Headers {
			value, _ := record.Data.Get(key)
			row.Cells[j] = formatCell(value, opts.Placeholder)
		}
		if strings.TrimSpace(record.FileUpload) != "" {
			row.FileUpload = record.FileUpload
			row.HasFile = true
		}
		if record.CreatedAt.After(table.Generated) {
			table.Generated = record.CreatedAt
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// formatCell renders a data value. Missing and falsy values (null, "", false,
// zero) become the placeholder, arrays are joined.
func formatCell(value any, placeholder string) string {
	switch typed := value.(type) {
	case nil:
		return placeholder
	case string:
		if typed == "" {
			return placeholder
		}
		return typed
	case bool:
		if !typed {
			return placeholder
		}
		return "true"
	case json.Number:
		if f, err := typed.Float64(); err == nil && f == 0 {
			return placeholder
		}
		return typed.String()
	case float64:
		if typed == 0 {
			return placeholder
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		if typed == 0 {
			return placeholder
		}
		return strconv.Itoa(typed)
	case []string:
		if len(typed) == 0 {
			return placeholder
		}
		return strings.Join(typed, arraySeparator)
	case []any:
		if len(typed) == 0 {
			return placeholder
		}
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, formatElement(item))
		}
		return strings.Join(parts, arraySeparator)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(data)
	}
}

func formatElement(item any) string {
	switch typed := item.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(data)
	}
}
