// Package formfile reads form definitions from YAML or JSON documents and
// replays them through the builder, so a file is subject to exactly the same
// checks as a form assembled interactively.
package formfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdesk/pkg/builder"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

var ErrEmptyDocument = errors.New("formfile: document is empty")

type document struct {
	Name        string        `json:"name" yaml:"name"`
	Slug        string        `json:"slug" yaml:"slug,omitempty"`
	Description string        `json:"description" yaml:"description,omitempty"`
	Sections    []sectionFile `json:"sections" yaml:"sections"`
}

type sectionFile struct {
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description,omitempty"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Label       string       `json:"label" yaml:"label"`
	Name        string       `json:"name" yaml:"name"`
	FieldType   string       `json:"field_type" yaml:"field_type"`
	Type        string       `json:"type" yaml:"type,omitempty"`
	Required    bool         `json:"required" yaml:"required"`
	Placeholder string       `json:"placeholder" yaml:"placeholder,omitempty"`
	HelpText    string       `json:"help_text" yaml:"help_text,omitempty"`
	Options     []optionFile `json:"options" yaml:"options,omitempty"`
}

// optionFile accepts either a bare value ("S") or {value, label}.
type optionFile struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

func (o *optionFile) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*o = optionFile{Value: bare}
		return nil
	}
	type plain optionFile
	var full plain
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*o = optionFile(full)
	return nil
}

func (o *optionFile) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*o = optionFile{Value: node.Value}
		return nil
	}
	type plain optionFile
	var full plain
	if err := node.Decode(&full); err != nil {
		return err
	}
	*o = optionFile(full)
	return nil
}

// Load reads and parses a definition file from disk.
func Load(path string) (builder.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return builder.Draft{}, fmt.Errorf("formfile: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads and parses a definition file from fsys.
func LoadFS(fsys fs.FS, path string) (builder.Draft, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return builder.Draft{}, fmt.Errorf("formfile: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a JSON or YAML document and replays it through the builder.
// source only labels error messages.
func Parse(data []byte, source string) (builder.Draft, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return builder.Draft{}, err
	}

	draft := builder.New(doc.Name, doc.Slug, doc.Description)
	for i, section := range doc.Sections {
		draft, err = builder.AddSection(draft, section.Title, section.Description)
		if err != nil {
			return builder.Draft{}, fmt.Errorf("formfile: %s: section %d: %w", source, i+1, err)
		}
		for j, field := range section.Fields {
			draft, err = addField(draft, i, field)
			if err != nil {
				return builder.Draft{}, fmt.Errorf("formfile: %s: section %d field %d: %w", source, i+1, j+1, err)
			}
		}
	}
	return draft, nil
}

func addField(draft builder.Draft, sectionIndex int, field fieldFile) (builder.Draft, error) {
	rawType := field.FieldType
	if strings.TrimSpace(rawType) == "" {
		rawType = field.Type
	}
	fieldType, ok := schema.ParseFieldType(rawType)
	if !ok {
		return draft, fmt.Errorf("%w %q", schema.ErrUnknownFieldType, rawType)
	}

	pending, err := builder.NewPendingField(draft, sectionIndex, field.Label, fieldType)
	if err != nil {
		return draft, err
	}
	pending = pending.
		WithName(field.Name).
		WithRequired(field.Required).
		WithPlaceholder(field.Placeholder).
		WithHelpText(field.HelpText)

	for _, opt := range field.Options {
		pending, err = builder.AddLabeledOption(pending, opt.Value, opt.Label)
		if err != nil {
			return draft, err
		}
	}
	return builder.CommitPending(draft, pending)
}

func parseDocument(data []byte, source string) (document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return document{}, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}

	var doc document
	if isJSON(data, source) {
		if err := json.Unmarshal(data, &doc); err != nil {
			return document{}, fmt.Errorf("formfile: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("formfile: parse %s: %w", source, err)
	}
	return doc, nil
}

func isJSON(data []byte, source string) bool {
	if strings.EqualFold(filepath.Ext(source), ".json") {
		return true
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Marshal renders a form as a YAML definition document that Parse accepts.
func Marshal(form schema.Form) ([]byte, error) {
	doc := document{
		Name:        form.Name,
		Slug:        form.Slug,
		Description: form.Description,
	}
	for _, section := range form.Sections {
		out := sectionFile{Title: section.Title, Description: section.Description}
		for _, field := range section.Fields {
			ff := fieldFile{
				Label:       field.Label,
				Name:        field.Name,
				FieldType:   string(field.Type),
				Required:    field.Required,
				Placeholder: field.Placeholder,
				HelpText:    field.HelpText,
			}
			for _, opt := range field.Options {
				ff.Options = append(ff.Options, optionFile{Value: opt.Value, Label: opt.Label})
			}
			out.Fields = append(out.Fields, ff)
		}
		doc.Sections = append(doc.Sections, out)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("formfile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("formfile: encode: %w", err)
	}
	return buf.Bytes(), nil
}
