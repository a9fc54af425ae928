package builder_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/builder"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

func mustDraft(t *testing.T) func(builder.Draft, error) builder.Draft {
	return func(d builder.Draft, err error) builder.Draft {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return d
	}
}

func sectionOrders(d builder.Draft) []int {
	var out []int
	for _, s := range d.Form().Sections {
		out = append(out, s.Order)
	}
	return out
}

func TestNewDerivesSlugAndSanitizes(t *testing.T) {
	d := builder.New("Employee <b>Intake</b>", "", "Terms & <script>x</script>Conditions")
	form := d.Form()
	if form.Name != "Employee Intake" {
		t.Fatalf("name = %q", form.Name)
	}
	if form.Slug != "employee-intake" {
		t.Fatalf("slug = %q", form.Slug)
	}
	if form.Description != "Terms & Conditions" {
		t.Fatalf("description = %q", form.Description)
	}
	if d.Version() != 0 {
		t.Fatalf("version = %d", d.Version())
	}
}

func TestBuildIntakeForm(t *testing.T) {
	d := builder.New("Employee Intake", "", "")
	d = mustDraft(t)(builder.AddSection(d, "Basics", ""))
	d = mustDraft(t)(builder.AddFieldToSection(d, 0, schema.Field{Label: "Full Name", Type: schema.FieldTypeText, Required: true}))

	pending, err := builder.NewPendingField(d, 0, "Shirt Size", schema.FieldTypeRadio)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	for _, v := range []string{"S", "M", "L"} {
		if pending, err = builder.AddOption(pending, v); err != nil {
			t.Fatalf("add option %q: %v", v, err)
		}
	}
	d = mustDraft(t)(builder.CommitPending(d, pending))

	want := schema.Form{
		Name: "Employee Intake",
		Slug: "employee-intake",
		Sections: []schema.Section{{
			Title: "Basics",
			Order: 1,
			Fields: []schema.Field{
				{Name: "full_name", Label: "Full Name", Type: schema.FieldTypeText, Required: true},
				{Name: "shirt_size", Label: "Shirt Size", Type: schema.FieldTypeRadio, Options: []schema.Option{
					{Value: "S", Label: "S"}, {Value: "M", Label: "M"}, {Value: "L", Label: "L"},
				}},
			},
		}},
	}
	if diff := cmp.Diff(want, d.Form()); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
	if d.Version() != 3 {
		t.Fatalf("expected version 3, got %d", d.Version())
	}
	if _, err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestOperationsDoNotMutateInput(t *testing.T) {
	base := mustDraft(t)(builder.AddSection(builder.New("F", "", ""), "One", ""))
	before := base.Form()

	if _, err := builder.AddSection(base, "Two", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := builder.AddFieldToSection(base, 0, schema.Field{Label: "Email", Type: schema.FieldTypeEmail}); err != nil {
		t.Fatal(err)
	}
	if _, err := builder.RemoveSection(base, 0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, base.Form()); diff != "" {
		t.Fatalf("input draft changed (-before +after):\n%s", diff)
	}
}

func TestRemoveThenAddKeepsOrdersContiguous(t *testing.T) {
	d := builder.New("F", "", "")
	for _, title := range []string{"A", "B", "C"} {
		d = mustDraft(t)(builder.AddSection(d, title, ""))
	}
	d = mustDraft(t)(builder.RemoveSection(d, 1))
	d = mustDraft(t)(builder.AddSection(d, "D", ""))

	if diff := cmp.Diff([]int{1, 2, 3}, sectionOrders(d)); diff != "" {
		t.Fatalf("orders mismatch (-want +got):\n%s", diff)
	}
	var titles []string
	for _, s := range d.Form().Sections {
		titles = append(titles, s.Title)
	}
	if diff := cmp.Diff([]string{"A", "C", "D"}, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldErrors(t *testing.T) {
	d := mustDraft(t)(builder.AddSection(builder.New("F", "", ""), "Basics", ""))

	cases := []struct {
		name  string
		index int
		field schema.Field
		want  error
	}{
		{name: "empty label", field: schema.Field{Label: "<b></b>", Type: schema.FieldTypeText}, want: builder.ErrEmptyLabel},
		{name: "choice without options", field: schema.Field{Label: "Pick", Type: schema.FieldTypeCheckbox}, want: builder.ErrOptionsRequired},
		{name: "text with options", field: schema.Field{Label: "Name", Type: schema.FieldTypeText, Options: []schema.Option{{Value: "a", Label: "A"}}}, want: builder.ErrUnexpectedOptions},
		{name: "duplicate option", field: schema.Field{Label: "Pick", Type: schema.FieldTypeSelect, Options: []schema.Option{{Value: "a"}, {Value: "a"}}}, want: builder.ErrDuplicateOptionValue},
		{name: "bad section", index: 3, field: schema.Field{Label: "Name", Type: schema.FieldTypeText}, want: builder.ErrIndexOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.AddFieldToSection(d, tc.index, tc.field)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	d = mustDraft(t)(builder.AddFieldToSection(d, 0, schema.Field{Label: "Email", Type: schema.FieldTypeEmail}))
	if _, err := builder.AddFieldToSection(d, 0, schema.Field{Label: "email", Type: schema.FieldTypeText}); !errors.Is(err, builder.ErrDuplicateFieldName) {
		t.Fatalf("expected duplicate field name, got %v", err)
	}
}

func TestRemoveFieldPreservesOrder(t *testing.T) {
	d := mustDraft(t)(builder.AddSection(builder.New("F", "", ""), "Basics", ""))
	for _, label := range []string{"One", "Two", "Three"} {
		d = mustDraft(t)(builder.AddFieldToSection(d, 0, schema.Field{Label: label, Type: schema.FieldTypeText}))
	}
	d = mustDraft(t)(builder.RemoveFieldFromSection(d, 0, 1))

	var names []string
	for _, f := range d.Form().Sections[0].Fields {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff([]string{"one", "three"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if _, err := builder.RemoveFieldFromSection(d, 0, 5); !errors.Is(err, builder.ErrIndexOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestAddOptionErrors(t *testing.T) {
	d := mustDraft(t)(builder.AddSection(builder.New("F", "", ""), "Basics", ""))
	p, err := builder.NewPendingField(d, 0, "Color", schema.FieldTypeSelect)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := builder.AddOption(p, "  "); !errors.Is(err, builder.ErrEmptyValue) {
		t.Fatalf("expected empty value, got %v", err)
	}
	p, err = builder.AddLabeledOption(p, "red", "Red")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := builder.AddOption(p, "red"); !errors.Is(err, builder.ErrDuplicateValue) {
		t.Fatalf("expected duplicate value, got %v", err)
	}
	if got := p.Field().Options; len(got) != 1 || got[0].Label != "Red" {
		t.Fatalf("unexpected options %+v", got)
	}
}

func TestCommitPendingAfterRemoveIsStale(t *testing.T) {
	d := builder.New("F", "", "")
	d = mustDraft(t)(builder.AddSection(d, "A", ""))
	d = mustDraft(t)(builder.AddSection(d, "B", ""))

	onA, err := builder.NewPendingField(d, 0, "Name", schema.FieldTypeText)
	if err != nil {
		t.Fatal(err)
	}
	onB, err := builder.NewPendingField(d, 1, "Age", schema.FieldTypeNumber)
	if err != nil {
		t.Fatal(err)
	}

	removedA := mustDraft(t)(builder.RemoveSection(d, 0))
	if _, err := builder.CommitPending(removedA, onA); !errors.Is(err, builder.ErrStalePending) {
		t.Fatalf("expected stale pending for removed section, got %v", err)
	}
	if _, err := builder.CommitPending(removedA, onB); !errors.Is(err, builder.ErrStalePending) {
		t.Fatalf("expected stale pending for shifted section, got %v", err)
	}

	removedB := mustDraft(t)(builder.RemoveSection(d, 1))
	if _, err := builder.CommitPending(removedB, onA); err != nil {
		t.Fatalf("earlier section should still accept its pending field: %v", err)
	}
}

func TestEmptyFormValidatesWithWarning(t *testing.T) {
	warnings, err := builder.New("Empty", "", "").Validate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 || warnings[0] != schema.WarningEmptySections {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}
