package fieldtypes

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindChoices
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindChoices:
		return "choices"
	case KindFile:
		return "file"
	default:
		return "none"
	}
}

// FileHandle is a caller-supplied file. Open is called once per encoding so
// handles should be re-openable.
type FileHandle interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Value is the tagged union of candidate field values: a scalar string, a
// list of chosen option values, or a file. The zero Value holds nothing.
type Value struct {
	kind    Kind
	text    string
	choices []string
	file    FileHandle
}

// Text wraps a scalar string.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Choices wraps a list of selected option values.
func Choices(values ...string) Value {
	return Value{kind: KindChoices, choices: append([]string(nil), values...)}
}

// File wraps a file handle. A nil handle yields an empty file value.
func File(handle FileHandle) Value {
	return Value{kind: KindFile, file: handle}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Text returns the scalar string (empty for other variants).
func (v Value) Text() string { return v.text }

// Choices returns a copy of the selected values.
func (v Value) Choices() []string { return append([]string(nil), v.choices...) }

// File returns the file handle, nil for other variants.
func (v Value) File() FileHandle { return v.file }

// IsEmpty reports whether the value carries nothing a required field could
// accept: an empty string, no non-empty choices, or no file. Whitespace is
// an answer like any other.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindText:
		return v.text == ""
	case KindChoices:
		for _, choice := range v.choices {
			if choice != "" {
				return false
			}
		}
		return true
	case KindFile:
		return v.file == nil
	default:
		return true
	}
}

type pathFile struct {
	path string
}

// FileFromPath returns a handle that opens path from the local filesystem.
func FileFromPath(path string) FileHandle {
	return pathFile{path: path}
}

func (f pathFile) Name() string { return filepath.Base(f.path) }

func (f pathFile) Open() (io.ReadCloser, error) {
	if strings.TrimSpace(f.path) == "" {
		return nil, errors.New("fieldtypes: file path is required")
	}
	return os.Open(f.path)
}

type memoryFile struct {
	name string
	data []byte
}

// FileFromBytes returns an in-memory handle, mostly useful in tests and for
// content already read by the caller.
func FileFromBytes(name string, data []byte) FileHandle {
	return memoryFile{name: name, data: append([]byte(nil), data...)}
}

func (f memoryFile) Name() string { return f.name }

func (f memoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
