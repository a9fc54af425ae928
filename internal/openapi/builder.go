package openapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdesk/pkg/schema"
)

const (
	Version            = "3.0.3"
	SubmitOperationID  = "submitResponse"
	SecuritySchemeName = "bearerAuth"
	ResponsesProperty  = "responses"

	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
)

var ErrNoRequestBody = errors.New("openapi: operation has no request body")

// Options tune the generated document.
type Options struct {
	// ServerURL is added as the single server entry when set.
	ServerURL string
	// Version is the info.version of the document; defaults to "1".
	Version string
}

// SubmitPath returns the submission path for a form. Forms without an id get
// the templated path.
func SubmitPath(formID int64) string {
	if formID <= 0 {
		return "/{id}/submit/"
	}
	return fmt.Sprintf("/%d/submit/", formID)
}

// Build describes the submission endpoint of form as an OpenAPI 3 document
// and validates the result.
func Build(ctx context.Context, form schema.Form, opts Options) (*openapi3.T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "1"
	}

	title := strings.TrimSpace(form.Name)
	if title == "" {
		title = "Form submission"
	}

	doc := &openapi3.T{
		OpenAPI: Version,
		Info: &openapi3.Info{
			Title:       title,
			Description: form.Description,
			Version:     version,
		},
	}
	if opts.ServerURL != "" {
		doc.Servers = openapi3.Servers{{URL: strings.TrimRight(opts.ServerURL, "/")}}
	}

	components := openapi3.NewComponents()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		SecuritySchemeName: &openapi3.SecuritySchemeRef{
			Value: openapi3.NewSecurityScheme().WithType("http").WithScheme("bearer"),
		},
	}
	doc.Components = &components
	doc.Security = *openapi3.NewSecurityRequirements().With(
		openapi3.NewSecurityRequirement().Authenticate(SecuritySchemeName),
	)

	doc.Paths = openapi3.NewPaths(openapi3.WithPath(SubmitPath(form.ID), &openapi3.PathItem{
		Post: submitOperation(form),
	}))

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("openapi: validate document: %w", err)
	}
	return doc, nil
}

func submitOperation(form schema.Form) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = SubmitOperationID
	op.Summary = "Submit a response"
	if form.Slug != "" {
		op.Tags = []string{form.Slug}
	}
	if form.ID <= 0 {
		op.Parameters = openapi3.Parameters{{
			Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewIntegerSchema()),
		}}
	}

	structured := openapi3.NewObjectSchema().
		WithProperty(ResponsesProperty, ResponsesSchema(form, false))
	structured.Required = []string{ResponsesProperty}

	body := openapi3.NewRequestBody().WithRequired(true)
	body.Content = openapi3.Content{
		ContentTypeJSON:      openapi3.NewMediaType().WithSchema(structured),
		ContentTypeMultipart: openapi3.NewMediaType().WithSchema(ResponsesSchema(form, true)),
	}
	op.RequestBody = &openapi3.RequestBodyRef{Value: body}

	ack := openapi3.NewObjectSchema().
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("submission_id", openapi3.NewIntegerSchema()).
		WithProperty("data", openapi3.NewObjectSchema())
	rejected := openapi3.NewObjectSchema().
		WithAdditionalProperties(openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()))

	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(201, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Submission accepted").
			WithJSONSchema(ack)}),
		openapi3.WithStatus(400, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Submission rejected").
			WithJSONSchema(rejected)}),
		openapi3.WithStatus(401, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Missing or expired credentials")}),
		openapi3.WithStatus(404, &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription("Form not found")}),
	)
	return op
}

// ResponsesSchema returns the object schema of a form's answers. The
// multipart variant describes file fields as binary parts.
func ResponsesSchema(form schema.Form, multipart bool) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Properties = openapi3.Schemas{}
	var required []string
	for _, field := range form.Fields() {
		out.Properties[field.Name] = &openapi3.SchemaRef{Value: FieldSchema(field, multipart)}
		if field.Required {
			required = append(required, field.Name)
		}
	}
	out.Required = required
	return out
}

// FieldSchema maps one field to its value schema. Number, date and email
// answers are unconstrained strings; only option membership is checked.
func FieldSchema(field schema.Field, multipart bool) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Type {
	case schema.FieldTypeNumber:
		s = openapi3.NewStringSchema()
		if !multipart {
			s = openapi3.NewAnyOfSchema(openapi3.NewFloat64Schema(), s)
		}
	case schema.FieldTypeSelect, schema.FieldTypeRadio:
		s = openapi3.NewStringSchema().WithEnum(enumValues(field)...)
	case schema.FieldTypeCheckbox:
		s = openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema().WithEnum(enumValues(field)...))
		if field.Required {
			s = s.WithMinItems(1)
		}
	case schema.FieldTypeFile:
		s = openapi3.NewStringSchema()
		if multipart {
			s = s.WithFormat("binary")
		}
	default:
		s = openapi3.NewStringSchema()
	}

	if field.Required && field.Type != schema.FieldTypeCheckbox && s.AnyOf == nil {
		s = s.WithMinLength(1)
	}
	if !field.Required {
		s.Nullable = true
	}
	s.Title = field.Label
	if field.HelpText != "" {
		s.Description = field.HelpText
	}
	return s
}

func enumValues(field schema.Field) []any {
	values := make([]any, 0, len(field.Options)+1)
	for _, opt := range field.Options {
		values = append(values, opt.Value)
	}
	if !field.Required && field.Type != schema.FieldTypeCheckbox {
		values = append(values, "")
	}
	return values
}

// StructuredSchema returns the JSON request body schema of the submit
// operation in doc.
func StructuredSchema(doc *openapi3.T) (*openapi3.Schema, error) {
	if doc == nil || doc.Paths == nil {
		return nil, ErrNoRequestBody
	}
	for _, item := range doc.Paths.Map() {
		if item == nil || item.Post == nil || item.Post.OperationID != SubmitOperationID {
			continue
		}
		body := item.Post.RequestBody
		if body == nil || body.Value == nil {
			return nil, ErrNoRequestBody
		}
		media := body.Value.Content.Get(ContentTypeJSON)
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			return nil, ErrNoRequestBody
		}
		return media.Schema.Value, nil
	}
	return nil, ErrNoRequestBody
}
