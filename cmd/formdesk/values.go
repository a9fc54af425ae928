package main

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

// buildValues turns --set name=value and --file name=path flags into
// submission values. Checkbox fields collect every --set for their name; each
// value is one choice, taken verbatim.
func buildValues(form schema.Form, sets, files []string) (submission.Values, error) {
	values := make(submission.Values)
	choices := make(map[string][]string)
	var order []string

	for _, raw := range sets {
		name, value, err := splitAssignment(raw, "--set")
		if err != nil {
			return nil, err
		}
		field, ok := form.Field(name)
		if !ok {
			return nil, fmt.Errorf("--set %s: form has no field %q", raw, name)
		}
		switch field.Type {
		case schema.FieldTypeFile:
			return nil, fmt.Errorf("--set %s: %q is a file field, use --file", raw, name)
		case schema.FieldTypeCheckbox:
			if _, seen := choices[name]; !seen {
				order = append(order, name)
			}
			choices[name] = append(choices[name], value)
		default:
			values[name] = submission.Text(value)
		}
	}
	for _, name := range order {
		values[name] = submission.Choices(choices[name]...)
	}

	for _, raw := range files {
		name, path, err := splitAssignment(raw, "--file")
		if err != nil {
			return nil, err
		}
		field, ok := form.Field(name)
		if !ok {
			return nil, fmt.Errorf("--file %s: form has no field %q", raw, name)
		}
		if field.Type != schema.FieldTypeFile {
			return nil, fmt.Errorf("--file %s: %q is not a file field", raw, name)
		}
		values[name] = submission.File(submission.FileFromPath(path))
	}
	return values, nil
}

func splitAssignment(raw, flag string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("%s %q: expected name=value", flag, raw)
	}
	return name, value, nil
}
