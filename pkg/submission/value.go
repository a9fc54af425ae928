package submission

import "github.com/goliatone/go-formdesk/pkg/fieldtypes"

// Value and FileHandle are re-exported so callers only need this package to
// build submissions.
type (
	Value      = fieldtypes.Value
	FileHandle = fieldtypes.FileHandle
)

// Values maps field names to candidate values.
type Values map[string]Value

func Text(s string) Value { return fieldtypes.Text(s) }

func Choices(values ...string) Value { return fieldtypes.Choices(values...) }

func File(handle FileHandle) Value { return fieldtypes.File(handle) }

func FileFromPath(path string) FileHandle { return fieldtypes.FileFromPath(path) }

func FileFromBytes(name string, data []byte) FileHandle {
	return fieldtypes.FileFromBytes(name, data)
}
