package export

import (
	"context"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDF writes a landscape A4 table document titled "Form #<id> Responses".
type PDF struct {
	fontSize   float64
	lineHeight float64
	padding    float64
}

func NewPDF() *PDF {
	return &PDF{fontSize: 8, lineHeight: 4, padding: 1.5}
}

func (*PDF) Name() string        { return "pdf" }
func (*PDF) ContentType() string { return "application/pdf" }
func (*PDF) Extension() string   { return "pdf" }
func (*PDF) Description() string { return "PDF table document, landscape A4" }

func (p *PDF) Serialize(ctx context.Context, table Table, w io.Writer) error {
	doc := fpdf.New("L", "mm", "A4", "")
	stamp := documentTime(table)
	doc.SetCreationDate(stamp)
	doc.SetModificationDate(stamp)
	doc.SetCatalogSort(true)
	doc.SetTitle(table.Title(), true)
	doc.SetCreator("formdesk", true)
	doc.SetMargins(14, 15, 14)
	doc.SetAutoPageBreak(false, 15)

	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 10, tr(table.Title()), "", 1, "L", false, 0, "")
	doc.Ln(2)

	titles := table.Titles()
	widths := p.columnWidths(doc, len(titles))

	header := func() {
		doc.SetFont("Helvetica", "B", p.fontSize)
		doc.SetFillColor(41, 128, 185)
		doc.SetTextColor(255, 255, 255)
		p.drawRow(doc, widths, translate(tr, titles), true)
		doc.SetFont("Helvetica", "", p.fontSize)
		doc.SetTextColor(0, 0, 0)
	}
	header()

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := translate(tr, row.Values())
		if p.needsBreak(doc, widths, cells) {
			doc.AddPage()
			header()
		}
		p.drawRow(doc, widths, cells, false)
	}

	if err := doc.Error(); err != nil {
		return err
	}
	return doc.Output(w)
}

func (p *PDF) columnWidths(doc *fpdf.Fpdf, n int) []float64 {
	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	usable := pageWidth - left - right
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = usable / float64(n)
	}
	return widths
}

func (p *PDF) rowHeight(doc *fpdf.Fpdf, widths []float64, cells []string) (float64, [][]string) {
	lines := make([][]string, len(cells))
	maxLines := 1
	for i, cell := range cells {
		split := doc.SplitText(cell, widths[i]-2*p.padding)
		if len(split) == 0 {
			split = []string{""}
		}
		lines[i] = split
		if len(split) > maxLines {
			maxLines = len(split)
		}
	}
	return float64(maxLines)*p.lineHeight + 2*p.padding, lines
}

func (p *PDF) needsBreak(doc *fpdf.Fpdf, widths []float64, cells []string) bool {
	height, _ := p.rowHeight(doc, widths, cells)
	_, pageHeight := doc.GetPageSize()
	_, _, _, bottom := doc.GetMargins()
	return doc.GetY()+height > pageHeight-bottom
}

func (p *PDF) drawRow(doc *fpdf.Fpdf, widths []float64, cells []string, fill bool) {
	height, lines := p.rowHeight(doc, widths, cells)
	x0, y := doc.GetXY()
	style := "D"
	if fill {
		style = "FD"
	}
	x := x0
	for i := range cells {
		doc.Rect(x, y, widths[i], height, style)
		for j, line := range lines[i] {
			doc.SetXY(x+p.padding, y+p.padding+float64(j)*p.lineHeight)
			doc.CellFormat(widths[i]-2*p.padding, p.lineHeight, line, "", 0, "L", false, 0, "")
		}
		x += widths[i]
	}
	doc.SetXY(x0, y+height)
}

func translate(tr func(string) string, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = tr(v)
	}
	return out
}
