package submission

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

// ErrorMapping splits a store error payload into field-level messages keyed by
// field name and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// FieldNames returns the field keys in sorted order.
func (m ErrorMapping) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether the mapping carries no message at all.
func (m ErrorMapping) IsEmpty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// DecodeErrorBody flattens a JSON error body into path -> messages. Nested
// objects produce dotted paths ({"data": {"email": ["bad"]}} becomes
// "data.email"). A body that is not JSON becomes a single form-level message.
func DecodeErrorBody(body []byte) map[string][]string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return map[string][]string{"": {trimmed}}
	}
	out := make(map[string][]string)
	flattenErrors("", decoded, out)
	return out
}

func flattenErrors(prefix string, node any, dest map[string][]string) {
	switch typed := node.(type) {
	case map[string]any:
		for key, child := range typed {
			flattenErrors(joinPath(prefix, key), child, dest)
		}
	case []any:
		for _, item := range typed {
			switch item.(type) {
			case map[string]any, []any:
				flattenErrors(prefix, item, dest)
			default:
				if msg := scalarMessage(item); msg != "" {
					dest[prefix] = append(dest[prefix], msg)
				}
			}
		}
	default:
		if msg := scalarMessage(typed); msg != "" {
			dest[prefix] = append(dest[prefix], msg)
		}
	}
}

func scalarMessage(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}

// MapErrorPayload assigns each message to the form field its path names.
// Paths may be dotted, slash separated or JSON pointers and may be wrapped in
// "responses" or "data". Unknown paths become form-level messages so nothing
// is lost.
func MapErrorPayload(form schema.Form, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	names := make(map[string]struct{})
	for _, field := range form.Fields() {
		if name := strings.TrimSpace(field.Name); name != "" {
			names[name] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		name, formLevel := mapErrorPath(rawPath, names)
		if formLevel {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = normalizeMessages(append(mapping.Fields[name], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, names map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if IsFormLevelKey(trimmed) {
		return "", true
	}
	segments := dropWrapperSegments(parsePathSegments(trimmed))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		if _, ok := names[segment]; ok {
			return segment, false
		}
		break
	}
	return "", true
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "payload", "data", "responses":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

// IsFormLevelKey reports whether an error payload key addresses the form as a
// whole rather than one field.
func IsFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "detail", "error", "message", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
