package responses

import (
	"context"
	"fmt"
	"strings"
)

// PageSizes are the page sizes offered to operators.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 5

// Query selects one page of one form's submissions.
type Query struct {
	FormID   int64
	Text     string
	Page     int
	PageSize int
}

// Page is a slice of a filtered set plus its position.
type Page struct {
	Items      []Record
	Total      int
	TotalPages int
	Page       int
	PageSize   int
	// Offset is the 1-based row number of the first item.
	Offset int
}

// Result is the outcome of a query: the requested page plus the whole
// filtered set for export.
type Result struct {
	Page
	Matches []Record
}

// Filter keeps the records of formID whose data contains text,
// case-insensitively. The text is matched as given, surrounding spaces
// included; empty text skips the text filter. The input slice is not
// modified and record order is kept.
func Filter(records []Record, formID int64, text string) []Record {
	needle := strings.ToLower(text)
	out := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Form != formID {
			continue
		}
		if needle != "" && !strings.Contains(record.Data.canonical(), needle) {
			continue
		}
		out = append(out, record)
	}
	return out
}

// Paginate slices records. page and size below 1 are raised to 1; a page past
// the end yields no items and a zero Offset.
func Paginate(records []Record, page, size int) Page {
	if size < 1 {
		size = 1
	}
	if page < 1 {
		page = 1
	}
	total := len(records)
	pages := total / size
	if total%size != 0 {
		pages++
	}
	result := Page{
		Total:      total,
		TotalPages: pages,
		Page:       page,
		PageSize:   size,
		Items:      []Record{},
	}
	// page-1 < pages keeps (page-1)*size below total.
	if page-1 >= pages {
		return result
	}
	start := (page - 1) * size
	end := total
	if total-start > size {
		end = start + size
	}
	result.Offset = start + 1
	result.Items = append(result.Items, records[start:end]...)
	return result
}

// Source fetches every submission visible to the caller.
type Source interface {
	FetchSubmissions(ctx context.Context) ([]Record, error)
}

// Engine runs queries. It keeps no state between calls, so every Fetch goes
// back to the source.
type Engine struct {
	source Source
}

// NewEngine returns an engine reading from source. source may be nil when
// only Run is used.
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Run filters records by q and slices out the requested page.
func (e *Engine) Run(records []Record, q Query) Result {
	matches := Filter(records, q.FormID, q.Text)
	return Result{
		Page:    Paginate(matches, q.Page, q.PageSize),
		Matches: matches,
	}
}

// Fetch loads submissions from the source and runs q over them.
func (e *Engine) Fetch(ctx context.Context, q Query) (Result, error) {
	if e == nil || e.source == nil {
		return Result{}, fmt.Errorf("responses: source is required")
	}
	records, err := e.source.FetchSubmissions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("responses: fetch submissions: %w", err)
	}
	return e.Run(records, q), nil
}
