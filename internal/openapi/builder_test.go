package openapi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/internal/openapi"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func sampleForm() schema.Form {
	return schema.Form{
		ID:   7,
		Name: "Intake",
		Slug: "intake",
		Sections: []schema.Section{{
			Title: "About",
			Order: 1,
			Fields: []schema.Field{
				{Name: "full_name", Label: "Full Name", Type: schema.FieldTypeText, Required: true},
				{Name: "age", Label: "Age", Type: schema.FieldTypeNumber},
				{Name: "team", Label: "Team", Type: schema.FieldTypeSelect, Options: []schema.Option{
					{Value: "eng", Label: "Engineering"},
				}},
				{Name: "skills", Label: "Skills", Type: schema.FieldTypeCheckbox, Required: true, Options: []schema.Option{
					{Value: "go", Label: "Go"}, {Value: "sql", Label: "SQL"},
				}},
				{Name: "resume", Label: "Resume", Type: schema.FieldTypeFile, HelpText: "PDF preferred"},
			},
		}},
	}
}

func TestSubmitPath(t *testing.T) {
	if got := openapi.SubmitPath(7); got != "/7/submit/" {
		t.Fatalf("SubmitPath(7) = %q", got)
	}
	if got := openapi.SubmitPath(0); got != "/{id}/submit/" {
		t.Fatalf("SubmitPath(0) = %q", got)
	}
}

func TestFieldSchema(t *testing.T) {
	form := sampleForm()
	field := func(name string) schema.Field {
		f, ok := form.Field(name)
		if !ok {
			t.Fatalf("missing field %s", name)
		}
		return f
	}

	name := openapi.FieldSchema(field("full_name"), false)
	if name.MinLength != 1 || name.Nullable || name.Title != "Full Name" {
		t.Fatalf("required text schema: %+v", name)
	}

	ageJSON := openapi.FieldSchema(field("age"), false)
	if len(ageJSON.AnyOf) != 2 || !ageJSON.Nullable {
		t.Fatalf("json number should accept numbers and numeric strings: %+v", ageJSON)
	}
	ageForm := openapi.FieldSchema(field("age"), true)
	if ageForm.AnyOf != nil || ageForm.Pattern != "" || !ageForm.Type.Is(openapi3.TypeString) {
		t.Fatalf("multipart number should be a plain string: %+v", ageForm)
	}

	team := openapi.FieldSchema(field("team"), false)
	if diff := cmp.Diff([]any{"eng", ""}, team.Enum); diff != "" {
		t.Fatalf("optional select enum mismatch (-want +got):\n%s", diff)
	}

	skills := openapi.FieldSchema(field("skills"), false)
	if skills.MinItems != 1 || skills.Items == nil {
		t.Fatalf("required checkbox schema: %+v", skills)
	}
	if diff := cmp.Diff([]any{"go", "sql"}, skills.Items.Value.Enum); diff != "" {
		t.Fatalf("checkbox enum mismatch (-want +got):\n%s", diff)
	}

	resume := openapi.FieldSchema(field("resume"), true)
	if resume.Format != "binary" || resume.Description != "PDF preferred" {
		t.Fatalf("multipart file schema: %+v", resume)
	}
	if got := openapi.FieldSchema(field("resume"), false).Format; got != "" {
		t.Fatalf("json file format = %q", got)
	}
}

func TestBuild(t *testing.T) {
	doc, err := openapi.Build(context.Background(), sampleForm(), openapi.Options{ServerURL: "http://127.0.0.1:8000/onboarding/"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if doc.Info.Title != "Intake" || doc.Info.Version != "1" {
		t.Fatalf("info = %+v", doc.Info)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://127.0.0.1:8000/onboarding" {
		t.Fatalf("servers = %+v", doc.Servers)
	}
	item := doc.Paths.Value("/7/submit/")
	if item == nil || item.Post == nil || item.Post.OperationID != openapi.SubmitOperationID {
		t.Fatalf("submit operation missing: %+v", item)
	}
	if len(item.Post.Parameters) != 0 {
		t.Fatalf("concrete path should not declare an id parameter")
	}
	if item.Post.RequestBody.Value.Content.Get(openapi.ContentTypeMultipart) == nil {
		t.Fatalf("multipart body missing")
	}

	body, err := openapi.StructuredSchema(doc)
	if err != nil {
		t.Fatalf("structured schema: %v", err)
	}
	if diff := cmp.Diff([]string{openapi.ResponsesProperty}, body.Required); diff != "" {
		t.Fatalf("body required mismatch (-want +got):\n%s", diff)
	}
	answers := body.Properties[openapi.ResponsesProperty].Value
	if diff := cmp.Diff([]string{"full_name", "skills"}, answers.Required); diff != "" {
		t.Fatalf("answers required mismatch (-want +got):\n%s", diff)
	}
}

func TestStructuredSchemaWithoutOperation(t *testing.T) {
	if _, err := openapi.StructuredSchema(nil); !errors.Is(err, openapi.ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
	empty := &openapi3.T{Paths: openapi3.NewPaths()}
	if _, err := openapi.StructuredSchema(empty); !errors.Is(err, openapi.ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
}
