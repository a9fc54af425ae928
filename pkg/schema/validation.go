package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingLabel         = errors.New("schema: field label is required")
	ErrMissingName          = errors.New("schema: field name is required")
	ErrUnknownFieldType     = errors.New("schema: unknown field type")
	ErrMissingOptions       = errors.New("schema: choice field requires at least one option")
	ErrUnexpectedOptions    = errors.New("schema: only choice fields may declare options")
	ErrDuplicateOptionValue = errors.New("schema: duplicate option value")
	ErrEmptyOption          = errors.New("schema: option value and label are required")
	ErrEmptyTitle           = errors.New("schema: section title is required")
	ErrDuplicateFieldName   = errors.New("schema: duplicate field name")
)

// FieldError reports a structural problem with a single field. Err is one of
// the sentinel errors above so callers can branch with errors.Is.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (field %q)", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Warning is a non-fatal observation about a form.
type Warning string

// WarningEmptySections marks a form that has no sections; it is valid but
// yields an empty fill experience.
const WarningEmptySections Warning = "form has no sections"

// ValidateField checks the invariants of a single field. The field name is
// not required here because builders derive it from the label on commit.
func ValidateField(field Field) error {
	ident := field.Name
	if ident == "" {
		ident = field.Label
	}
	if strings.TrimSpace(field.Label) == "" {
		return &FieldError{Field: ident, Err: ErrMissingLabel}
	}
	if !field.Type.Valid() {
		return &FieldError{Field: ident, Err: fmt.Errorf("%w %q", ErrUnknownFieldType, field.Type)}
	}

	if !field.Type.IsChoice() {
		if len(field.Options) > 0 {
			return &FieldError{Field: ident, Err: ErrUnexpectedOptions}
		}
		return nil
	}

	if len(field.Options) == 0 {
		return &FieldError{Field: ident, Err: ErrMissingOptions}
	}
	seen := make(map[string]struct{}, len(field.Options))
	for _, opt := range field.Options {
		if strings.TrimSpace(opt.Value) == "" || strings.TrimSpace(opt.Label) == "" {
			return &FieldError{Field: ident, Err: ErrEmptyOption}
		}
		if _, dup := seen[opt.Value]; dup {
			return &FieldError{Field: ident, Err: fmt.Errorf("%w %q", ErrDuplicateOptionValue, opt.Value)}
		}
		seen[opt.Value] = struct{}{}
	}
	return nil
}

// ValidateForm validates every section and field. A form without sections is
// reported as a warning, never as an error. Fields must carry a name once they
// are part of a form, and names must be unique across sections since they key
// the submission payload.
func ValidateForm(form Form) ([]Warning, error) {
	var warnings []Warning
	if len(form.Sections) == 0 {
		warnings = append(warnings, WarningEmptySections)
	}

	names := make(map[string]struct{})
	for i, section := range form.Sections {
		if strings.TrimSpace(section.Title) == "" {
			return warnings, fmt.Errorf("schema: section %d: %w", i+1, ErrEmptyTitle)
		}
		for _, field := range section.Fields {
			if err := ValidateField(field); err != nil {
				return warnings, err
			}
			if strings.TrimSpace(field.Name) == "" {
				return warnings, &FieldError{Field: field.Label, Err: ErrMissingName}
			}
			if _, dup := names[field.Name]; dup {
				return warnings, &FieldError{Field: field.Name, Err: ErrDuplicateFieldName}
			}
			names[field.Name] = struct{}{}
		}
	}
	return warnings, nil
}
