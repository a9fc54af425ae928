// Package contract describes a form's submission endpoint as an OpenAPI 3
// document and checks structured payloads against it before they are sent.
package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdesk/internal/openapi"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

var ErrViolation = errors.New("contract: payload does not match the submission contract")

// ViolationError points at the answer that broke the contract. Field is empty
// when the problem is with the payload as a whole.
type ViolationError struct {
	Field  string
	Reason string
}

func (e *ViolationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("contract: %s", e.Reason)
	}
	return fmt.Sprintf("contract: field %q: %s", e.Field, e.Reason)
}

func (e *ViolationError) Is(target error) bool { return target == ErrViolation }

// Option configures contract generation.
type Option func(*openapi.Options)

// WithServerURL records the store base URL as the document server.
func WithServerURL(url string) Option {
	return func(o *openapi.Options) {
		o.ServerURL = url
	}
}

// WithVersion sets info.version.
func WithVersion(version string) Option {
	return func(o *openapi.Options) {
		o.Version = version
	}
}

// Contract is the generated document for one form.
type Contract struct {
	form       schema.Form
	doc        *openapi3.T
	structured *openapi3.Schema
}

// New builds the contract of form.
func New(ctx context.Context, form schema.Form, opts ...Option) (*Contract, error) {
	var options openapi.Options
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	doc, err := openapi.Build(ctx, form, options)
	if err != nil {
		return nil, fmt.Errorf("contract: build: %w", err)
	}
	structured, err := openapi.StructuredSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("contract: build: %w", err)
	}
	return &Contract{form: form.Clone(), doc: doc, structured: structured}, nil
}

// Document returns the underlying OpenAPI document.
func (c *Contract) Document() *openapi3.T { return c.doc }

// Path returns the submission path described by the contract.
func (c *Contract) Path() string { return openapi.SubmitPath(c.form.ID) }

func (c *Contract) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.doc)
}

// JSON returns the document indented for humans.
func (c *Contract) JSON() ([]byte, error) {
	raw, err := json.Marshal(c.doc)
	if err != nil {
		return nil, fmt.Errorf("contract: marshal: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("contract: marshal: %w", err)
	}
	return json.MarshalIndent(out, "", "  ")
}

// ValidateStructured checks an encoded JSON payload.
func (c *Contract) ValidateStructured(payload *submission.StructuredPayload) error {
	if payload == nil {
		return &ViolationError{Reason: "payload is nil"}
	}
	raw, err := payload.MarshalJSON()
	if err != nil {
		return fmt.Errorf("contract: marshal payload: %w", err)
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("contract: decode payload: %w", err)
	}
	return c.validate(body)
}

// ValidateResponses checks a decoded responses object as received by a
// store.
func (c *Contract) ValidateResponses(responses map[string]any) error {
	if responses == nil {
		responses = map[string]any{}
	}
	return c.validate(map[string]any{openapi.ResponsesProperty: responses})
}

func (c *Contract) validate(body any) error {
	err := c.structured.VisitJSON(body)
	if err == nil {
		return nil
	}
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return &ViolationError{Reason: err.Error()}
	}
	return &ViolationError{Field: fieldFromPointer(schemaErr.JSONPointer()), Reason: schemaErr.Reason}
}

func fieldFromPointer(pointer []string) string {
	if len(pointer) < 2 || pointer[0] != openapi.ResponsesProperty {
		return ""
	}
	return strings.TrimSpace(pointer[1])
}
