// Package formdesk is the top-level entry point: it re-exports the domain
// types callers need most and wires the HTTP client, encoder, query engine
// and exporters into one orchestrator.
package formdesk

import (
	"io/fs"

	"github.com/goliatone/go-formdesk/pkg/builder"
	"github.com/goliatone/go-formdesk/pkg/client"
	"github.com/goliatone/go-formdesk/pkg/export"
	"github.com/goliatone/go-formdesk/pkg/formfile"
	"github.com/goliatone/go-formdesk/pkg/orchestrator"
	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

type (
	// Form is a questionnaire definition.
	Form = schema.Form
	// Section groups fields under a title.
	Section = schema.Section
	// Field is one typed question.
	Field = schema.Field
	// Draft is an immutable builder snapshot.
	Draft = builder.Draft
	// Values holds answers keyed by field name.
	Values = submission.Values
	// Ack is the store's acknowledgement of a submission.
	Ack = submission.Ack
	// Record is one stored submission.
	Record = responses.Record
	// Query selects one page of a form's submissions.
	Query = responses.Query
	// Result is a page plus the full filtered set.
	Result = responses.Result
	// ExportRequest selects what to export and how.
	ExportRequest = orchestrator.ExportRequest
)

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewHTTP returns an orchestrator backed by the store API at baseURL. Later
// options can replace any role the client fills.
func NewHTTP(baseURL string, clientOpts []client.Option, options ...orchestrator.Option) *orchestrator.Orchestrator {
	c := client.New(baseURL, clientOpts...)
	opts := append([]orchestrator.Option{orchestrator.WithBackend(c)}, options...)
	return orchestrator.New(opts...)
}

// LoadDraft reads a YAML or JSON form definition file.
func LoadDraft(path string) (Draft, error) {
	return formfile.Load(path)
}

// LoadDraftFS reads a form definition from fsys.
func LoadDraftFS(fsys fs.FS, path string) (Draft, error) {
	return formfile.LoadFS(fsys, path)
}

// Formats lists the built-in export formats.
func Formats() []export.FormatInfo {
	return export.NewDefaultRegistry().Formats()
}
