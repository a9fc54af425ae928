package fieldtypes

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// Registry maps field types to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[schema.FieldType]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[schema.FieldType]Handler)}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns a shared registry holding the built-in handlers.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, handler := range Builtins() {
			defaultRegistry.MustRegister(handler)
		}
	})
	return defaultRegistry
}

// Register adds a handler for its Type(). Duplicate types return an error.
func (r *Registry) Register(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("fieldtypes: handler is required")
	}
	fieldType := handler.Type()
	if !fieldType.Valid() {
		return fmt.Errorf("fieldtypes: %w %q", schema.ErrUnknownFieldType, fieldType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[fieldType]; exists {
		return fmt.Errorf("fieldtypes: handler for %q already registered", fieldType)
	}
	r.handlers[fieldType] = handler
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(handler Handler) {
	if err := r.Register(handler); err != nil {
		panic(err)
	}
}

// Get retrieves the handler for a field type.
func (r *Registry) Get(fieldType schema.FieldType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[fieldType]
	if !ok {
		return nil, fmt.Errorf("fieldtypes: no handler for %q", fieldType)
	}
	return handler, nil
}

// Has reports whether a handler is registered for the field type.
func (r *Registry) Has(fieldType schema.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.handlers[fieldType]
	return ok
}

// List returns the registered field types sorted by name.
func (r *Registry) List() []schema.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schema.FieldType, 0, len(r.handlers))
	for fieldType := range r.handlers {
		out = append(out, fieldType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Shape dispatches to the handler registered for the field's type.
func (r *Registry) Shape(field schema.Field, value Value) (Value, error) {
	handler, err := r.Get(field.Type)
	if err != nil {
		return Value{}, err
	}
	return handler.Shape(field, value)
}
