package submission

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/goliatone/go-formdesk/pkg/fieldtypes"
)

const ContentTypeJSON = "application/json"

// Payload is an encoded submission ready to be sent to the store.
type Payload interface {
	ContentType() string
	WriteTo(w io.Writer) (int64, error)
	// Multipart reports whether the payload carries file parts.
	Multipart() bool
}

// Entry is one shaped field value, kept in form order.
type Entry struct {
	Name  string
	Value Value
}

// StructuredPayload is the JSON variant. It marshals as
// {"responses": {...}} with keys in form order.
type StructuredPayload struct {
	Entries []Entry
}

// Responses returns the entries as a plain map of strings and string slices.
func (p *StructuredPayload) Responses() map[string]any {
	out := make(map[string]any, len(p.Entries))
	for _, entry := range p.Entries {
		out[entry.Name] = plainValue(entry.Value)
	}
	return out
}

func (p *StructuredPayload) ContentType() string { return ContentTypeJSON }

func (p *StructuredPayload) Multipart() bool { return false }

// MarshalJSON writes the responses object preserving entry order.
func (p *StructuredPayload) MarshalJSON() ([]byte, error) {
	answers := orderedmap.New[string, any]()
	for _, entry := range p.Entries {
		answers.Set(entry.Name, plainValue(entry.Value))
	}
	return json.Marshal(struct {
		Responses *orderedmap.OrderedMap[string, any] `json:"responses"`
	}{Responses: answers})
}

func (p *StructuredPayload) WriteTo(w io.Writer) (int64, error) {
	data, err := p.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("submission: marshal responses: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

func plainValue(v Value) any {
	switch v.Kind() {
	case fieldtypes.KindChoices:
		choices := v.Choices()
		if choices == nil {
			choices = []string{}
		}
		return choices
	case fieldtypes.KindFile:
		if v.File() == nil {
			return ""
		}
		return v.File().Name()
	default:
		return v.Text()
	}
}

// Part is one multipart entry: a scalar form value or a file.
type Part struct {
	Name  string
	Value string
	File  FileHandle
}

// IsFile reports whether the part carries a file.
func (p Part) IsFile() bool { return p.File != nil }

// MultipartPayload is the multipart/form-data variant. Scalars are one part,
// checkbox selections one part per checked value under the same name, files
// one file part each.
type MultipartPayload struct {
	Parts    []Part
	boundary string
}

// Boundary returns the configured boundary, generating one on first use when
// none was set.
func (p *MultipartPayload) Boundary() string {
	if p.boundary == "" {
		p.boundary = multipart.NewWriter(io.Discard).Boundary()
	}
	return p.boundary
}

func (p *MultipartPayload) ContentType() string {
	return "multipart/form-data; boundary=" + p.Boundary()
}

func (p *MultipartPayload) Multipart() bool { return true }

// Files returns the file parts in order.
func (p *MultipartPayload) Files() []Part {
	var out []Part
	for _, part := range p.Parts {
		if part.IsFile() {
			out = append(out, part)
		}
	}
	return out
}

// WriteTo streams the multipart body. Each file handle is opened and closed
// in turn.
func (p *MultipartPayload) WriteTo(w io.Writer) (int64, error) {
	counter := &countingWriter{w: w}
	mw := multipart.NewWriter(counter)
	if err := mw.SetBoundary(p.Boundary()); err != nil {
		return counter.n, fmt.Errorf("submission: multipart boundary: %w", err)
	}

	for _, part := range p.Parts {
		if !part.IsFile() {
			if err := mw.WriteField(part.Name, part.Value); err != nil {
				return counter.n, fmt.Errorf("submission: write field %q: %w", part.Name, err)
			}
			continue
		}
		if err := writeFilePart(mw, part); err != nil {
			return counter.n, err
		}
	}

	if err := mw.Close(); err != nil {
		return counter.n, fmt.Errorf("submission: close multipart: %w", err)
	}
	return counter.n, nil
}

func writeFilePart(mw *multipart.Writer, part Part) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(part.Name), escapeQuotes(part.File.Name())))
	header.Set("Content-Type", "application/octet-stream")

	dst, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("submission: create file part %q: %w", part.Name, err)
	}
	src, err := part.File.Open()
	if err != nil {
		return fmt.Errorf("submission: open file for %q: %w", part.Name, err)
	}
	defer src.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("submission: copy file for %q: %w", part.Name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
