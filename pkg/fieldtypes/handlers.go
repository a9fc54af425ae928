package fieldtypes

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

var (
	ErrInvalidChoice   = errors.New("fieldtypes: value is not one of the field options")
	ErrFileRequired    = errors.New("fieldtypes: file field requires a file handle")
	ErrUnexpectedValue = errors.New("fieldtypes: value kind does not match field type")
)

// Handler shapes a candidate value for one field type. Shape receives a
// non-empty value and returns the value that goes into the payload.
type Handler interface {
	Type() schema.FieldType
	Shape(field schema.Field, value Value) (Value, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	FieldType schema.FieldType
	Fn        func(field schema.Field, value Value) (Value, error)
}

func (h HandlerFunc) Type() schema.FieldType { return h.FieldType }

func (h HandlerFunc) Shape(field schema.Field, value Value) (Value, error) {
	if h.Fn == nil {
		return value, nil
	}
	return h.Fn(field, value)
}

// scalarHandler passes the raw string through. Numbers, dates and emails
// are not coerced.
type scalarHandler struct {
	fieldType schema.FieldType
}

func (h scalarHandler) Type() schema.FieldType { return h.fieldType }

func (h scalarHandler) Shape(field schema.Field, value Value) (Value, error) {
	switch value.Kind() {
	case KindText:
		return value, nil
	case KindChoices:
		// A single-element list is accepted as the scalar it wraps.
		if choices := value.Choices(); len(choices) == 1 {
			return Text(choices[0]), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %s field %q got %s", ErrUnexpectedValue, h.fieldType, field.Name, value.Kind())
}

// singleChoiceHandler serves radio and select: exactly one option value.
type singleChoiceHandler struct {
	fieldType schema.FieldType
}

func (h singleChoiceHandler) Type() schema.FieldType { return h.fieldType }

func (h singleChoiceHandler) Shape(field schema.Field, value Value) (Value, error) {
	var chosen string
	switch value.Kind() {
	case KindText:
		chosen = value.Text()
	case KindChoices:
		choices := value.Choices()
		if len(choices) != 1 {
			return Value{}, fmt.Errorf("%w: %s field %q accepts one value, got %d", ErrInvalidChoice, h.fieldType, field.Name, len(choices))
		}
		chosen = choices[0]
	default:
		return Value{}, fmt.Errorf("%w: %s field %q got %s", ErrUnexpectedValue, h.fieldType, field.Name, value.Kind())
	}
	if !field.HasOption(chosen) {
		return Value{}, fmt.Errorf("%w: %q for field %q", ErrInvalidChoice, chosen, field.Name)
	}
	return Text(chosen), nil
}

// multiChoiceHandler serves checkbox: the list of checked option values with
// duplicates dropped, in the order given.
type multiChoiceHandler struct{}

func (multiChoiceHandler) Type() schema.FieldType { return schema.FieldTypeCheckbox }

func (multiChoiceHandler) Shape(field schema.Field, value Value) (Value, error) {
	var raw []string
	switch value.Kind() {
	case KindText:
		raw = []string{value.Text()}
	case KindChoices:
		raw = value.Choices()
	default:
		return Value{}, fmt.Errorf("%w: checkbox field %q got %s", ErrUnexpectedValue, field.Name, value.Kind())
	}

	seen := make(map[string]struct{}, len(raw))
	checked := make([]string, 0, len(raw))
	for _, item := range raw {
		if item == "" {
			continue
		}
		if !field.HasOption(item) {
			return Value{}, fmt.Errorf("%w: %q for field %q", ErrInvalidChoice, item, field.Name)
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		checked = append(checked, item)
	}
	return Choices(checked...), nil
}

type fileHandler struct{}

func (fileHandler) Type() schema.FieldType { return schema.FieldTypeFile }

func (fileHandler) Shape(field schema.Field, value Value) (Value, error) {
	if value.Kind() != KindFile || value.File() == nil {
		return Value{}, fmt.Errorf("%w: field %q", ErrFileRequired, field.Name)
	}
	return value, nil
}

// Builtins returns one handler per supported field type.
func Builtins() []Handler {
	return []Handler{
		scalarHandler{fieldType: schema.FieldTypeText},
		scalarHandler{fieldType: schema.FieldTypeNumber},
		scalarHandler{fieldType: schema.FieldTypeDate},
		scalarHandler{fieldType: schema.FieldTypeEmail},
		singleChoiceHandler{fieldType: schema.FieldTypeSelect},
		singleChoiceHandler{fieldType: schema.FieldTypeRadio},
		multiChoiceHandler{},
		fileHandler{},
	}
}
