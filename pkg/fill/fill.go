// Package fill walks an operator through a form in the terminal, one prompt
// per field in section order, and returns the collected submission values.
package fill

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

// DateLayout is the input layout accepted by date fields.
const DateLayout = "2006-01-02"

const skipOption = "(skip)"

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithConfirm asks for confirmation after the last field.
func WithConfirm(confirm bool) Option {
	return func(f *Filler) {
		f.confirm = confirm
	}
}

// Filler collects values for a form interactively.
type Filler struct {
	driver  PromptDriver
	confirm bool
}

// New returns a Filler backed by the survey driver unless overridden.
func New(opts ...Option) *Filler {
	f := &Filler{}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill prompts for every field of form. Prompts validate their input the way
// the encoder will, so a completed fill encodes without validation errors.
func (f *Filler) Fill(ctx context.Context, form schema.Form) (submission.Values, error) {
	values := make(submission.Values)
	if form.Name != "" {
		if err := f.driver.Info(ctx, form.Name); err != nil {
			return nil, err
		}
	}
	if form.Description != "" {
		if err := f.driver.Info(ctx, form.Description); err != nil {
			return nil, err
		}
	}
	if len(form.Sections) == 0 {
		if err := f.driver.Info(ctx, "This form has no sections."); err != nil {
			return nil, err
		}
	}

	for _, section := range form.Sections {
		heading := section.Title
		if section.Description != "" {
			heading += "\n" + section.Description
		}
		if err := f.driver.Info(ctx, heading); err != nil {
			return nil, err
		}
		for _, field := range section.Fields {
			value, ok, err := f.ask(ctx, field)
			if err != nil {
				return nil, fmt.Errorf("fill: field %q: %w", field.Name, err)
			}
			if ok {
				values[field.Name] = value
			}
		}
	}

	if f.confirm {
		ok, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Submit responses?", Default: true})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCancelled
		}
	}
	return values, nil
}

func (f *Filler) ask(ctx context.Context, field schema.Field) (submission.Value, bool, error) {
	message := field.Label
	if field.Required {
		message += " *"
	}
	help := field.HelpText
	if help == "" {
		help = field.Placeholder
	}

	switch field.Type {
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		return f.askSingle(ctx, field, message, help)
	case schema.FieldTypeCheckbox:
		return f.askMulti(ctx, field, message, help)
	case schema.FieldTypeFile:
		answer, err := f.driver.Input(ctx, InputConfig{
			Message:   message + " (file path)",
			Help:      help,
			Validator: fileValidator(field.Required),
		})
		if err != nil {
			return submission.Value{}, false, err
		}
		path := strings.TrimSpace(answer)
		if path == "" {
			return submission.Value{}, false, nil
		}
		return submission.File(submission.FileFromPath(path)), true, nil
	default:
		answer, err := f.driver.Input(ctx, InputConfig{
			Message:   message,
			Help:      help,
			Validator: scalarValidator(field),
		})
		if err != nil {
			return submission.Value{}, false, err
		}
		if strings.TrimSpace(answer) == "" {
			return submission.Value{}, false, nil
		}
		return submission.Text(answer), true, nil
	}
}

func (f *Filler) askSingle(ctx context.Context, field schema.Field, message, help string) (submission.Value, bool, error) {
	labels := optionLabels(field)
	offset := 0
	if !field.Required {
		labels = append([]string{skipOption}, labels...)
		offset = 1
	}
	idx, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: labels, Help: help})
	if err != nil {
		return submission.Value{}, false, err
	}
	idx -= offset
	if idx < 0 {
		return submission.Value{}, false, nil
	}
	if idx >= len(field.Options) {
		return submission.Value{}, false, fmt.Errorf("selection %d out of range", idx)
	}
	return submission.Text(field.Options[idx].Value), true, nil
}

func (f *Filler) askMulti(ctx context.Context, field schema.Field, message, help string) (submission.Value, bool, error) {
	cfg := SelectConfig{Message: message, Options: optionLabels(field), Help: help}
	if field.Required {
		cfg.Validator = func(chosen []int) error {
			if len(chosen) == 0 {
				return errors.New("select at least one option")
			}
			return nil
		}
	}
	indices, err := f.driver.MultiSelect(ctx, cfg)
	if err != nil {
		return submission.Value{}, false, err
	}
	if len(indices) == 0 {
		return submission.Value{}, false, nil
	}
	chosen := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(field.Options) {
			return submission.Value{}, false, fmt.Errorf("selection %d out of range", idx)
		}
		chosen = append(chosen, field.Options[idx].Value)
	}
	return submission.Choices(chosen...), true, nil
}

func optionLabels(field schema.Field) []string {
	labels := make([]string, len(field.Options))
	for i, opt := range field.Options {
		labels[i] = opt.Label
	}
	return labels
}

func scalarValidator(field schema.Field) func(string) error {
	return func(answer string) error {
		trimmed := strings.TrimSpace(answer)
		if trimmed == "" {
			if field.Required {
				return errors.New("a value is required")
			}
			return nil
		}
		switch field.Type {
		case schema.FieldTypeNumber:
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				return errors.New("enter a number")
			}
		case schema.FieldTypeDate:
			if _, err := time.Parse(DateLayout, trimmed); err != nil {
				return fmt.Errorf("enter a date as %s", DateLayout)
			}
		case schema.FieldTypeEmail:
			if _, err := mail.ParseAddress(trimmed); err != nil {
				return errors.New("enter an email address")
			}
		}
		return nil
	}
}

func fileValidator(required bool) func(string) error {
	return func(answer string) error {
		path := strings.TrimSpace(answer)
		if path == "" {
			if required {
				return errors.New("a file is required")
			}
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot read %s", path)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		return nil
	}
}
