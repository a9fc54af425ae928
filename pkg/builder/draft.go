package builder

import (
	"fmt"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Draft is an immutable snapshot of a form under construction. Every
// operation returns a new Draft; the receiver is never modified.
type Draft struct {
	form    schema.Form
	version uint64
	// sectionIDs gives each section a stable identity so pending fields can
	// detect that the section they were opened against has gone.
	sectionIDs []uint64
	nextID     uint64
}

// New starts an empty draft. The slug is derived from name when blank.
func New(name, slug, description string) Draft {
	name = sanitizeText(name)
	slug = sanitizeText(slug)
	if slug == "" {
		slug = schema.Slug(name)
	}
	return Draft{
		form: schema.Form{
			Name:        name,
			Slug:        slug,
			Description: sanitizeText(description),
			Sections:    []schema.Section{},
		},
	}
}

// FromForm wraps an existing form, validating it first.
func FromForm(form schema.Form) (Draft, error) {
	if _, err := schema.ValidateForm(form); err != nil {
		return Draft{}, fmt.Errorf("builder: load form: %w", err)
	}
	d := Draft{form: form.Clone()}
	d.sectionIDs = make([]uint64, len(form.Sections))
	for i := range d.form.Sections {
		d.nextID++
		d.sectionIDs[i] = d.nextID
		d.form.Sections[i].Order = i + 1
	}
	return d, nil
}

// Form returns a deep copy of the form held by the draft.
func (d Draft) Form() schema.Form { return d.form.Clone() }

// Version counts the operations committed since New.
func (d Draft) Version() uint64 { return d.version }

// SectionCount returns the number of sections.
func (d Draft) SectionCount() int { return len(d.form.Sections) }

// Validate runs the schema checks over the current form.
func (d Draft) Validate() ([]schema.Warning, error) {
	return schema.ValidateForm(d.form)
}

// clone copies the draft deeply enough that the copy can be mutated.
func (d Draft) clone() Draft {
	out := d
	out.form = d.form.Clone()
	out.sectionIDs = append([]uint64(nil), d.sectionIDs...)
	return out
}

func (d Draft) commit() Draft {
	d.version++
	return d
}

// AddSection appends a section with order len(sections)+1.
func AddSection(d Draft, title, description string) (Draft, error) {
	title = sanitizeText(title)
	if title == "" {
		return d, fmt.Errorf("builder: add section: %w", ErrEmptyTitle)
	}
	next := d.clone()
	next.form.Sections = append(next.form.Sections, schema.Section{
		Title:       title,
		Description: sanitizeText(description),
		Order:       len(next.form.Sections) + 1,
		Fields:      []schema.Field{},
	})
	next.nextID++
	next.sectionIDs = append(next.sectionIDs, next.nextID)
	return next.commit(), nil
}

// RemoveSection drops the section at index and renumbers the survivors
// contiguously from 1.
func RemoveSection(d Draft, index int) (Draft, error) {
	if index < 0 || index >= len(d.form.Sections) {
		return d, fmt.Errorf("builder: remove section %d: %w", index, ErrIndexOutOfRange)
	}
	next := d.clone()
	next.form.Sections = append(next.form.Sections[:index], next.form.Sections[index+1:]...)
	next.sectionIDs = append(next.sectionIDs[:index], next.sectionIDs[index+1:]...)
	for i := range next.form.Sections {
		next.form.Sections[i].Order = i + 1
	}
	return next.commit(), nil
}

// AddFieldToSection appends field to the section at sectionIndex. The name is
// derived from the label when empty and the field is validated before it is
// committed.
func AddFieldToSection(d Draft, sectionIndex int, field schema.Field) (Draft, error) {
	if sectionIndex < 0 || sectionIndex >= len(d.form.Sections) {
		return d, fmt.Errorf("builder: add field to section %d: %w", sectionIndex, ErrIndexOutOfRange)
	}
	field = normalizeField(field)
	if err := schema.ValidateField(field); err != nil {
		return d, fmt.Errorf("builder: add field: %w", err)
	}
	if field.Name == "" {
		return d, fmt.Errorf("builder: add field: %w", &schema.FieldError{Field: field.Label, Err: schema.ErrMissingName})
	}
	if _, exists := d.form.Field(field.Name); exists {
		return d, fmt.Errorf("builder: add field: %w", &schema.FieldError{Field: field.Name, Err: ErrDuplicateFieldName})
	}

	next := d.clone()
	section := &next.form.Sections[sectionIndex]
	section.Fields = append(section.Fields, field)
	return next.commit(), nil
}

// RemoveFieldFromSection drops one field, keeping the order of the rest.
func RemoveFieldFromSection(d Draft, sectionIndex, fieldIndex int) (Draft, error) {
	if sectionIndex < 0 || sectionIndex >= len(d.form.Sections) {
		return d, fmt.Errorf("builder: remove field from section %d: %w", sectionIndex, ErrIndexOutOfRange)
	}
	fields := d.form.Sections[sectionIndex].Fields
	if fieldIndex < 0 || fieldIndex >= len(fields) {
		return d, fmt.Errorf("builder: remove field %d: %w", fieldIndex, ErrIndexOutOfRange)
	}
	next := d.clone()
	section := &next.form.Sections[sectionIndex]
	section.Fields = append(section.Fields[:fieldIndex], section.Fields[fieldIndex+1:]...)
	return next.commit(), nil
}

func normalizeField(field schema.Field) schema.Field {
	field = field.Clone()
	field.Label = sanitizeText(field.Label)
	field.Placeholder = sanitizeText(field.Placeholder)
	field.HelpText = sanitizeText(field.HelpText)
	if field.Name == "" {
		field.Name = schema.FieldName(field.Label)
	} else {
		field.Name = schema.FieldName(field.Name)
	}
	for i, opt := range field.Options {
		field.Options[i].Value = sanitizeText(opt.Value)
		field.Options[i].Label = sanitizeText(opt.Label)
		if field.Options[i].Label == "" {
			field.Options[i].Label = field.Options[i].Value
		}
	}
	return field
}
