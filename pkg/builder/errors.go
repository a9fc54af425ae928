package builder

import (
	"errors"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Structural errors share their identity with the schema sentinels so callers
// can match either name with errors.Is.
var (
	ErrEmptyTitle           = schema.ErrEmptyTitle
	ErrEmptyLabel           = schema.ErrMissingLabel
	ErrOptionsRequired      = schema.ErrMissingOptions
	ErrUnexpectedOptions    = schema.ErrUnexpectedOptions
	ErrDuplicateOptionValue = schema.ErrDuplicateOptionValue
	ErrDuplicateFieldName   = schema.ErrDuplicateFieldName
)

var (
	ErrIndexOutOfRange = errors.New("builder: index out of range")
	ErrEmptyValue      = errors.New("builder: option value is required")
	ErrDuplicateValue  = errors.New("builder: option value already present")
	ErrStalePending    = errors.New("builder: pending field refers to a section that no longer exists")
)
