package export

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var templateFiles embed.FS

// HTML renders a standalone responses page with a row number column and
// "View File" links for uploads.
type HTML struct {
	once sync.Once
	tmpl *pongo2.Template
	err  error
}

func NewHTML() *HTML { return &HTML{} }

func (*HTML) Name() string        { return "html" }
func (*HTML) ContentType() string { return "text/html; charset=utf-8" }
func (*HTML) Extension() string   { return "html" }
func (*HTML) Description() string { return "Browsable HTML responses table" }

func (h *HTML) template() (*pongo2.Template, error) {
	h.once.Do(func() {
		sub, err := fs.Sub(templateFiles, "templates")
		if err != nil {
			h.err = fmt.Errorf("templates: %w", err)
			return
		}
		set := pongo2.NewSet("formdesk-export", pongo2.NewFSLoader(sub))
		h.tmpl, h.err = set.FromFile("responses.html")
	})
	return h.tmpl, h.err
}

func (h *HTML) Serialize(ctx context.Context, table Table, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmpl, err := h.template()
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}
	columns := table.Titles()
	view := pongo2.Context{
		"title":   table.Title(),
		"columns": columns,
		"rows":    htmlRows(table.Rows),
		"total":   len(table.Rows),
		"span":    len(columns) + 1,
	}
	if err := tmpl.ExecuteWriter(view, w); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

type htmlRow struct {
	Index       int
	Cells       []string
	FileUpload  string
	SubmittedAt string
	// Link is FileUpload when it is an absolute http(s) URL.
	Link string
}

func htmlRows(rows []Row) []htmlRow {
	out := make([]htmlRow, len(rows))
	for i, row := range rows {
		out[i] = htmlRow{
			Index:       row.Index,
			Cells:       row.Cells,
			FileUpload:  row.FileUpload,
			SubmittedAt: row.SubmittedAt,
		}
		if row.HasFile && safeLink(row.FileUpload) {
			out[i].Link = row.FileUpload
		}
	}
	return out
}

func safeLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
