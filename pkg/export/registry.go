package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Serializer writes a Table in one output format.
type Serializer interface {
	Name() string
	ContentType() string
	// Extension is the file extension without the leading dot.
	Extension() string
	Serialize(ctx context.Context, table Table, w io.Writer) error
}

// FormatInfo describes a registered format.
type FormatInfo struct {
	Name        string
	MIMEType    string
	Extension   string
	Description string
}

type describer interface {
	Description() string
}

// Registry stores serializers by name.
type Registry struct {
	mu          sync.RWMutex
	serializers map[string]Serializer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{serializers: make(map[string]Serializer)}
}

// NewDefaultRegistry returns a registry with the pdf, xlsx, csv and html
// serializers registered.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(NewPDF())
	reg.MustRegister(NewXLSX())
	reg.MustRegister(NewCSV())
	reg.MustRegister(NewHTML())
	return reg
}

// Register adds a serializer by its Name(). Duplicate names return an error.
func (r *Registry) Register(serializer Serializer) error {
	if serializer == nil {
		return fmt.Errorf("export: serializer is required")
	}
	name := strings.ToLower(strings.TrimSpace(serializer.Name()))
	if name == "" {
		return fmt.Errorf("export: serializer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.serializers[name]; exists {
		return fmt.Errorf("export: serializer %q already registered", name)
	}
	r.serializers[name] = serializer
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(serializer Serializer) {
	if err := r.Register(serializer); err != nil {
		panic(err)
	}
}

// Get retrieves a serializer by name, case-insensitively.
func (r *Registry) Get(name string) (Serializer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serializer, ok := r.serializers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("export: format %q not found", name)
	}
	return serializer, nil
}

// Has reports whether a format is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.serializers[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// List returns the registered format names sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.serializers))
	for name := range r.serializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Formats returns metadata for every registered format, sorted by name.
func (r *Registry) Formats() []FormatInfo {
	names := r.List()
	out := make([]FormatInfo, 0, len(names))
	for _, name := range names {
		serializer, err := r.Get(name)
		if err != nil {
			continue
		}
		out = append(out, Info(serializer))
	}
	return out
}

// Info builds the FormatInfo for a serializer.
func Info(serializer Serializer) FormatInfo {
	info := FormatInfo{
		Name:      serializer.Name(),
		MIMEType:  serializer.ContentType(),
		Extension: serializer.Extension(),
	}
	if d, ok := serializer.(describer); ok {
		info.Description = d.Description()
	}
	return info
}

// Export writes table in the named format.
func (r *Registry) Export(ctx context.Context, format string, table Table, w io.Writer) error {
	serializer, err := r.Get(format)
	if err != nil {
		return err
	}
	if err := serializer.Serialize(ctx, table, w); err != nil {
		return fmt.Errorf("export: %s: %w", serializer.Name(), err)
	}
	return nil
}

// Filename returns the download name for a form export, e.g.
// form_7_responses.csv.
func Filename(formID int64, extension string) string {
	return fmt.Sprintf("form_%d_responses.%s", formID, strings.TrimPrefix(extension, "."))
}
