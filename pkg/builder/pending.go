package builder

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// PendingField is a field being assembled before it joins a section. It is a
// value type: every mutator returns a modified copy.
type PendingField struct {
	sectionIndex int
	sectionID    uint64
	field        schema.Field
}

// NewPendingField opens a field bound to the section at sectionIndex.
func NewPendingField(d Draft, sectionIndex int, label string, fieldType schema.FieldType) (PendingField, error) {
	if sectionIndex < 0 || sectionIndex >= len(d.form.Sections) {
		return PendingField{}, fmt.Errorf("builder: pending field for section %d: %w", sectionIndex, ErrIndexOutOfRange)
	}
	return PendingField{
		sectionIndex: sectionIndex,
		sectionID:    d.sectionIDs[sectionIndex],
		field: schema.Field{
			Label: label,
			Type:  fieldType,
		},
	}, nil
}

// Field returns a copy of the field assembled so far.
func (p PendingField) Field() schema.Field { return p.field.Clone() }

// SectionIndex reports the section the field will be committed to.
func (p PendingField) SectionIndex() int { return p.sectionIndex }

func (p PendingField) WithRequired(required bool) PendingField {
	p.field = p.field.Clone()
	p.field.Required = required
	return p
}

func (p PendingField) WithPlaceholder(placeholder string) PendingField {
	p.field = p.field.Clone()
	p.field.Placeholder = placeholder
	return p
}

func (p PendingField) WithHelpText(help string) PendingField {
	p.field = p.field.Clone()
	p.field.HelpText = help
	return p
}

func (p PendingField) WithName(name string) PendingField {
	p.field = p.field.Clone()
	p.field.Name = name
	return p
}

// AddOption appends an option whose label equals its value.
func AddOption(p PendingField, value string) (PendingField, error) {
	return AddLabeledOption(p, value, "")
}

// AddLabeledOption appends an option. An empty label defaults to the value.
func AddLabeledOption(p PendingField, value, label string) (PendingField, error) {
	value = sanitizeText(value)
	if value == "" {
		return p, ErrEmptyValue
	}
	if p.field.HasOption(value) {
		return p, fmt.Errorf("%w: %q", ErrDuplicateValue, value)
	}
	label = sanitizeText(label)
	if strings.TrimSpace(label) == "" {
		label = value
	}
	next := p
	next.field = p.field.Clone()
	next.field.Options = append(next.field.Options, schema.Option{Value: value, Label: label})
	return next, nil
}

// CommitPending adds the pending field to its section. It fails with
// ErrStalePending when the section was removed, or shifted by an earlier
// removal, after the pending field was opened.
func CommitPending(d Draft, p PendingField) (Draft, error) {
	if p.sectionIndex < 0 || p.sectionIndex >= len(d.sectionIDs) || d.sectionIDs[p.sectionIndex] != p.sectionID {
		return d, ErrStalePending
	}
	return AddFieldToSection(d, p.sectionIndex, p.field)
}
