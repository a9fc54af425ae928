package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-formdesk/pkg/builder"
	"github.com/goliatone/go-formdesk/pkg/contract"
	"github.com/goliatone/go-formdesk/pkg/export"
	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

const defaultFormat = "pdf"

var (
	ErrNoFormStore  = errors.New("orchestrator: form store is not configured")
	ErrNoSender     = errors.New("orchestrator: submission sender is not configured")
	ErrNoSource     = errors.New("orchestrator: submission source is not configured")
	ErrInvalidDraft = errors.New("orchestrator: draft does not validate")
)

// FormStore creates and loads forms.
type FormStore interface {
	CreateForm(ctx context.Context, form schema.Form) (schema.Form, error)
	FetchForm(ctx context.Context, id int64) (schema.Form, error)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithBackend registers backend for every role it can fill: form store,
// submission sender and submission source. *client.HTTPClient fills all
// three.
func WithBackend(backend any) Option {
	return func(o *Orchestrator) {
		if forms, ok := backend.(FormStore); ok {
			o.forms = forms
		}
		if sender, ok := backend.(submission.Sender); ok {
			o.sender = sender
		}
		if source, ok := backend.(responses.Source); ok {
			o.source = source
		}
	}
}

// WithFormStore overrides the form store.
func WithFormStore(forms FormStore) Option {
	return func(o *Orchestrator) {
		if forms != nil {
			o.forms = forms
		}
	}
}

// WithSender overrides where submissions are delivered.
func WithSender(sender submission.Sender) Option {
	return func(o *Orchestrator) {
		if sender != nil {
			o.sender = sender
		}
	}
}

// WithSource overrides where submissions are listed from.
func WithSource(source responses.Source) Option {
	return func(o *Orchestrator) {
		if source != nil {
			o.source = source
		}
	}
}

// WithExporters replaces the export format registry.
func WithExporters(registry *export.Registry) Option {
	return func(o *Orchestrator) {
		if registry != nil {
			o.exporters = registry
		}
	}
}

// WithEncoderOptions configures the submission encoder.
func WithEncoderOptions(opts ...submission.Option) Option {
	return func(o *Orchestrator) {
		o.encoderOpts = append(o.encoderOpts, opts...)
	}
}

// WithPageSize sets the page size used when a query leaves it unset.
func WithPageSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithLocation sets the time zone of exported timestamps.
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		o.table.Location = loc
	}
}

// WithPlaceholder sets the text used for empty export cells.
func WithPlaceholder(placeholder string) Option {
	return func(o *Orchestrator) {
		o.table.Placeholder = placeholder
	}
}

// WithDefaultFormat sets the export format used when a request names none.
func WithDefaultFormat(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.defaultFormat = name
		}
	}
}

// Orchestrator coordinates form creation, submission, querying and export.
type Orchestrator struct {
	forms         FormStore
	sender        submission.Sender
	source        responses.Source
	exporters     *export.Registry
	encoderOpts   []submission.Option
	submitter     *submission.Submitter
	pageSize      int
	table         export.TableOptions
	defaultFormat string
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		pageSize:      responses.DefaultPageSize,
		defaultFormat: defaultFormat,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.exporters == nil {
		o.exporters = export.NewDefaultRegistry()
	}
	o.submitter = submission.NewSubmitter(o.sender, o.encoderOpts...)
	return o
}

// Exporters exposes the export registry.
func (o *Orchestrator) Exporters() *export.Registry { return o.exporters }

// Encoder exposes the encoder used for submissions.
func (o *Orchestrator) Encoder() *submission.Encoder { return o.submitter.Encoder() }

// CreateForm validates the draft and stores its form. Validation warnings
// are returned alongside the stored form.
func (o *Orchestrator) CreateForm(ctx context.Context, draft builder.Draft) (schema.Form, []schema.Warning, error) {
	if o.forms == nil {
		return schema.Form{}, nil, ErrNoFormStore
	}
	warnings, err := draft.Validate()
	if err != nil {
		return schema.Form{}, warnings, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	created, err := o.forms.CreateForm(ctx, draft.Form())
	if err != nil {
		return schema.Form{}, warnings, fmt.Errorf("orchestrator: create form: %w", err)
	}
	return created, warnings, nil
}

// Form loads a form by id.
func (o *Orchestrator) Form(ctx context.Context, id int64) (schema.Form, error) {
	if o.forms == nil {
		return schema.Form{}, ErrNoFormStore
	}
	form, err := o.forms.FetchForm(ctx, id)
	if err != nil {
		return schema.Form{}, fmt.Errorf("orchestrator: fetch form %d: %w", id, err)
	}
	return form, nil
}

// Submit loads the form and runs validate, encode and send. Encoder and
// rejection errors come back unwrapped so callers can inspect them.
func (o *Orchestrator) Submit(ctx context.Context, formID int64, values submission.Values) (submission.Ack, error) {
	if o.sender == nil {
		return submission.Ack{}, ErrNoSender
	}
	form, err := o.Form(ctx, formID)
	if err != nil {
		return submission.Ack{}, err
	}
	return o.SubmitForm(ctx, form, values)
}

// SubmitForm submits values against a form the caller already holds.
func (o *Orchestrator) SubmitForm(ctx context.Context, form schema.Form, values submission.Values) (submission.Ack, error) {
	if o.sender == nil {
		return submission.Ack{}, ErrNoSender
	}
	return o.submitter.Submit(ctx, form.ID, form, values)
}

// Responses runs q against the current submission list. A zero page size
// uses the configured default and a zero page means the first.
func (o *Orchestrator) Responses(ctx context.Context, q responses.Query) (responses.Result, error) {
	if o.source == nil {
		return responses.Result{}, ErrNoSource
	}
	if q.PageSize == 0 {
		q.PageSize = o.pageSize
	}
	if q.Page == 0 {
		q.Page = 1
	}
	return responses.NewEngine(o.source).Fetch(ctx, q)
}

// ExportRequest selects the submissions and format of an export.
type ExportRequest struct {
	FormID int64
	Text   string
	Format string
}

// Export writes the full filtered set of a form's submissions, ignoring
// pagination, and returns the format that was used.
func (o *Orchestrator) Export(ctx context.Context, req ExportRequest, w io.Writer) (export.FormatInfo, error) {
	result, err := o.Responses(ctx, responses.Query{FormID: req.FormID, Text: req.Text})
	if err != nil {
		return export.FormatInfo{}, err
	}
	return o.ExportRecords(ctx, req.FormID, req.Format, result.Matches, w)
}

// ExportRecords serializes an already filtered record set.
func (o *Orchestrator) ExportRecords(ctx context.Context, formID int64, format string, records []responses.Record, w io.Writer) (export.FormatInfo, error) {
	if format == "" {
		format = o.defaultFormat
	}
	serializer, err := o.exporters.Get(format)
	if err != nil {
		return export.FormatInfo{}, fmt.Errorf("orchestrator: %w", err)
	}
	opts := o.table
	opts.FormID = formID
	table := export.BuildTable(records, opts)
	if err := serializer.Serialize(ctx, table, w); err != nil {
		return export.FormatInfo{}, fmt.Errorf("orchestrator: export %s: %w", serializer.Name(), err)
	}
	return export.Info(serializer), nil
}

// Contract loads the form and describes its submission endpoint.
func (o *Orchestrator) Contract(ctx context.Context, formID int64, opts ...contract.Option) (*contract.Contract, error) {
	form, err := o.Form(ctx, formID)
	if err != nil {
		return nil, err
	}
	return contract.New(ctx, form, opts...)
}
