package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formdesk/pkg/fieldtypes"
)

var (
	ErrMissingRequiredField = errors.New("submission: required field has no value")
	ErrInvalidSchema        = errors.New("submission: form schema is invalid")
	ErrInvalidChoice        = fieldtypes.ErrInvalidChoice
	ErrFileRequired         = fieldtypes.ErrFileRequired
	ErrUnexpectedValue      = fieldtypes.ErrUnexpectedValue
	ErrSenderRequired       = errors.New("submission: sender is required")
)

// ValidationError reports the field that stopped encoding.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("submission: field %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RejectedError is returned when the store refuses a submission. Raw keeps the
// decoded error body; Details holds it split into field and form level.
type RejectedError struct {
	StatusCode int
	Raw        map[string][]string
	Details    ErrorMapping
}

func (e *RejectedError) Error() string {
	if e == nil {
		return ""
	}
	var parts []string
	parts = append(parts, e.Details.Form...)
	for _, name := range e.Details.FieldNames() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Details.Fields[name], "; ")))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("submission: rejected by store (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("submission: rejected by store (status %d): %s", e.StatusCode, strings.Join(parts, ", "))
}
