package formfile_test

import (
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/builder"
	"github.com/goliatone/go-formdesk/pkg/formfile"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func wantIntake() schema.Form {
	return schema.Form{
		Name:        "Employee Intake",
		Slug:        "employee-intake",
		Description: "Collected on the first day.",
		Sections: []schema.Section{
			{Title: "Basics", Order: 1, Fields: []schema.Field{
				{Name: "full_name", Label: "Full Name", Type: schema.FieldTypeText, Required: true, Placeholder: "Jane Doe"},
				{Name: "start_date", Label: "Start Date", Type: schema.FieldTypeDate},
			}},
			{Title: "Preferences", Description: "Optional extras", Order: 2, Fields: []schema.Field{
				{Name: "shirt_size", Label: "Shirt Size", Type: schema.FieldTypeRadio, Options: []schema.Option{
					{Value: "S", Label: "S"}, {Value: "M", Label: "M"}, {Value: "L", Label: "L"},
				}},
				{Name: "team", Label: "Team", Type: schema.FieldTypeSelect, Required: true, Options: []schema.Option{
					{Value: "eng", Label: "Engineering"}, {Value: "ops", Label: "Operations"},
				}},
				{Name: "resume", Label: "Resume", Type: schema.FieldTypeFile, HelpText: "PDF preferred"},
			}},
		},
	}
}

func TestLoadYAMLAndJSONAgree(t *testing.T) {
	for _, name := range []string{"intake.yaml", "intake.json"} {
		t.Run(name, func(t *testing.T) {
			draft, err := formfile.Load(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff(wantIntake(), draft.Form()); diff != "" {
				t.Fatalf("form mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"unknown type":      {doc: "name: X\nsections:\n  - title: A\n    fields:\n      - label: Bio\n        type: textarea\n", want: schema.ErrUnknownFieldType},
		"choice no options": {doc: "name: X\nsections:\n  - title: A\n    fields:\n      - label: Pick\n        type: checkbox\n", want: schema.ErrMissingOptions},
		"duplicate option":  {doc: "name: X\nsections:\n  - title: A\n    fields:\n      - label: Pick\n        type: radio\n        options: [a, a]\n", want: builder.ErrDuplicateValue},
		"empty title":       {doc: "name: X\nsections:\n  - title: ''\n", want: schema.ErrEmptyTitle},
		"empty document":    {doc: "   \n", want: formfile.ErrEmptyDocument},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := formfile.Parse([]byte(tc.doc), name+".yaml")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMarshalRoundTrips(t *testing.T) {
	data, err := formfile.Marshal(wantIntake())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	draft, err := formfile.LoadFS(fstest.MapFS{"form.yaml": {Data: data}}, "form.yaml")
	if err != nil {
		t.Fatalf("reload: %v\n%s", err, data)
	}
	if diff := cmp.Diff(wantIntake(), draft.Form()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
