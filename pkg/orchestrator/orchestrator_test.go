package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/builder"
	"github.com/goliatone/go-formdesk/pkg/formfile"
	"github.com/goliatone/go-formdesk/pkg/orchestrator"
	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
	"github.com/goliatone/go-formdesk/pkg/testsupport"
)

// memBackend plays the store: it keeps forms and turns structured payloads
// into records.
type memBackend struct {
	forms    map[int64]schema.Form
	records  []responses.Record
	payloads []submission.Payload
	clock    time.Time
}

func newMemBackend() *memBackend {
	return &memBackend{
		forms: map[int64]schema.Form{},
		clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memBackend) CreateForm(_ context.Context, form schema.Form) (schema.Form, error) {
	form.ID = int64(len(m.forms) + 1)
	m.forms[form.ID] = form
	return form, nil
}

func (m *memBackend) FetchForm(_ context.Context, id int64) (schema.Form, error) {
	form, ok := m.forms[id]
	if !ok {
		return schema.Form{}, errors.New("not found")
	}
	return form, nil
}

func (m *memBackend) SubmitResponse(_ context.Context, formID int64, payload submission.Payload) (submission.Ack, error) {
	m.payloads = append(m.payloads, payload)
	var data responses.Data
	if structured, ok := payload.(*submission.StructuredPayload); ok {
		for _, entry := range structured.Entries {
			if choices := entry.Value.Choices(); len(choices) > 0 {
				items := make([]any, len(choices))
				for i, c := range choices {
					items[i] = c
				}
				data.Set(entry.Name, items)
				continue
			}
			data.Set(entry.Name, entry.Value.Text())
		}
	}
	m.clock = m.clock.Add(time.Minute)
	record := responses.Record{ID: int64(len(m.records) + 1), Form: formID, Data: data, CreatedAt: m.clock}
	m.records = append([]responses.Record{record}, m.records...)
	return submission.Ack{SubmissionID: record.ID, Message: "ok"}, nil
}

func (m *memBackend) FetchSubmissions(context.Context) ([]responses.Record, error) {
	return append([]responses.Record(nil), m.records...), nil
}

func loadIntakeDraft(t *testing.T) builder.Draft {
	t.Helper()
	draft, err := formfile.Load(filepath.Join("..", "formfile", "testdata", "intake.yaml"))
	if err != nil {
		t.Fatalf("load draft: %v", err)
	}
	return draft
}

func TestOrchestrator_CreateSubmitQueryExport(t *testing.T) {
	ctx := testsupport.Context()
	backend := newMemBackend()
	orch := orchestrator.New(
		orchestrator.WithBackend(backend),
		orchestrator.WithPageSize(5),
	)

	form, warnings, err := orch.CreateForm(ctx, loadIntakeDraft(t))
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	if len(warnings) != 0 || form.ID != 1 {
		t.Fatalf("unexpected create result: id=%d warnings=%v", form.ID, warnings)
	}
	if diff := cmp.Diff(testsupport.LoadForm(t, filepath.Join("..", "formfile", "testdata", "intake.yaml")).Fields(), form.Fields()); diff != "" {
		t.Fatalf("stored fields mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"Ada", "Grace", "Adam"} {
		_, err := orch.Submit(ctx, form.ID, submission.Values{
			"full_name": submission.Text(name),
			"team":      submission.Text("eng"),
		})
		if err != nil {
			t.Fatalf("submit %s: %v", name, err)
		}
	}

	result, err := orch.Responses(ctx, responses.Query{FormID: form.ID, Text: "ADA"})
	if err != nil {
		t.Fatalf("responses: %v", err)
	}
	if result.Total != 2 || result.Page.Page != 1 || result.PageSize != 5 {
		t.Fatalf("unexpected page: %+v", result.Page)
	}

	var buf bytes.Buffer
	info, err := orch.Export(ctx, orchestrator.ExportRequest{FormID: form.ID, Text: "ada", Format: "csv"}, &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if info.Extension != "csv" {
		t.Fatalf("format = %+v", info)
	}
	want := strings.Join([]string{
		"full_name,team,file_upload,created_at",
		`Adam,eng,-,"5/1/2024, 9:03:00 AM"`,
		`Ada,eng,-,"5/1/2024, 9:01:00 AM"`,
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestOrchestrator_SubmitMissingRequired(t *testing.T) {
	ctx := testsupport.Context()
	backend := newMemBackend()
	orch := orchestrator.New(orchestrator.WithBackend(backend))

	form, _, err := orch.CreateForm(ctx, loadIntakeDraft(t))
	if err != nil {
		t.Fatalf("create form: %v", err)
	}
	_, err = orch.Submit(ctx, form.ID, submission.Values{"full_name": submission.Text("Ada")})
	if !errors.Is(err, submission.ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	if len(backend.payloads) != 0 {
		t.Fatalf("sender called %d times", len(backend.payloads))
	}
}

func TestOrchestrator_EmptyFormWarns(t *testing.T) {
	orch := orchestrator.New(orchestrator.WithBackend(newMemBackend()))
	draft, err := builder.FromForm(schema.Form{Name: "Empty", Slug: "empty"})
	if err != nil {
		t.Fatalf("from form: %v", err)
	}
	form, warnings, err := orch.CreateForm(testsupport.Context(), draft)
	if err != nil {
		t.Fatalf("empty form should be accepted: %v", err)
	}
	if form.ID == 0 || len(warnings) != 1 || warnings[0] != schema.WarningEmptySections {
		t.Fatalf("unexpected result: %+v %v", form, warnings)
	}
}

func TestOrchestrator_MissingCollaborators(t *testing.T) {
	ctx := testsupport.Context()
	orch := orchestrator.New()

	if _, err := orch.Form(ctx, 1); !errors.Is(err, orchestrator.ErrNoFormStore) {
		t.Fatalf("expected ErrNoFormStore, got %v", err)
	}
	if _, err := orch.SubmitForm(ctx, schema.Form{}, nil); !errors.Is(err, orchestrator.ErrNoSender) {
		t.Fatalf("expected ErrNoSender, got %v", err)
	}
	if _, err := orch.Responses(ctx, responses.Query{FormID: 1}); !errors.Is(err, orchestrator.ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestOrchestrator_ExportDefaultFormatAndContract(t *testing.T) {
	ctx := testsupport.Context()
	backend := newMemBackend()
	orch := orchestrator.New(orchestrator.WithBackend(backend), orchestrator.WithDefaultFormat("html"))

	form, _, err := orch.CreateForm(ctx, loadIntakeDraft(t))
	if err != nil {
		t.Fatalf("create form: %v", err)
	}

	var buf bytes.Buffer
	info, err := orch.Export(ctx, orchestrator.ExportRequest{FormID: form.ID}, &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if info.Name != "html" || !strings.Contains(buf.String(), "Form #1 Responses") {
		t.Fatalf("unexpected export %+v:\n%s", info, buf.String())
	}

	if _, err := orch.Export(ctx, orchestrator.ExportRequest{FormID: form.ID, Format: "docx"}, &buf); err == nil {
		t.Fatalf("expected unknown format error")
	}

	c, err := orch.Contract(ctx, form.ID)
	if err != nil {
		t.Fatalf("contract: %v", err)
	}
	if c.Path() != "/1/submit/" {
		t.Fatalf("contract path = %q", c.Path())
	}
}
