package submission

import (
	"fmt"

	"github.com/goliatone/go-formdesk/pkg/fieldtypes"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithRegistry overrides the field type handlers.
func WithRegistry(reg *fieldtypes.Registry) Option {
	return func(e *Encoder) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithBoundary fixes the multipart boundary, which makes multipart output
// reproducible.
func WithBoundary(boundary string) Option {
	return func(e *Encoder) {
		e.boundary = boundary
	}
}

// Encoder validates candidate values against a form and builds the payload.
type Encoder struct {
	registry *fieldtypes.Registry
	boundary string
}

// NewEncoder returns an encoder backed by the default field type handlers.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{registry: fieldtypes.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Check runs the schema and required-field checks without shaping values.
func (e *Encoder) Check(form schema.Form, values Values) error {
	if _, err := schema.ValidateForm(form); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	for _, field := range form.Fields() {
		if !field.Required {
			continue
		}
		value, ok := values[field.Name]
		if !ok || value.IsEmpty() {
			return &ValidationError{Field: field.Name, Err: ErrMissingRequiredField}
		}
	}
	return nil
}

// Encode shapes values in form order and picks the payload variant. Values
// for names the form does not declare are ignored and optional fields without
// a value are omitted. Nothing is produced when any check fails.
func (e *Encoder) Encode(form schema.Form, values Values) (Payload, error) {
	if err := e.Check(form, values); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(values))
	hasFile := false
	for _, field := range form.Fields() {
		value, ok := values[field.Name]
		if !ok || value.IsEmpty() {
			continue
		}
		shaped, err := e.registry.Shape(field, value)
		if err != nil {
			return nil, &ValidationError{Field: field.Name, Err: err}
		}
		if shaped.Kind() == fieldtypes.KindFile {
			hasFile = true
		}
		entries = append(entries, Entry{Name: field.Name, Value: shaped})
	}

	if !hasFile {
		return &StructuredPayload{Entries: entries}, nil
	}
	return e.multipart(entries), nil
}

func (e *Encoder) multipart(entries []Entry) *MultipartPayload {
	payload := &MultipartPayload{boundary: e.boundary}
	for _, entry := range entries {
		switch entry.Value.Kind() {
		case fieldtypes.KindFile:
			payload.Parts = append(payload.Parts, Part{Name: entry.Name, File: entry.Value.File()})
		case fieldtypes.KindChoices:
			for _, choice := range entry.Value.Choices() {
				payload.Parts = append(payload.Parts, Part{Name: entry.Name, Value: choice})
			}
		default:
			payload.Parts = append(payload.Parts, Part{Name: entry.Name, Value: entry.Value.Text()})
		}
	}
	return payload
}
