package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/internal/store"
	"github.com/goliatone/go-formdesk/pkg/contract"
	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

const (
	nonFieldErrors = "non_field_errors"
	msgRequired    = "This field is required."
	msgNotFound    = "Not found."
	msgSubmitted   = "Form submitted successfully"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeErrors(w http.ResponseWriter, key, message string) {
	if key == "" {
		key = nonFieldErrors
	}
	writeJSON(w, http.StatusBadRequest, map[string][]string{key: {message}})
}

func tokenMatches(header, token string) bool {
	scheme, value, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(value)), []byte(token)) == 1
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var form schema.Form
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(&form); err != nil {
		writeErrors(w, "", fmt.Sprintf("Invalid JSON: %v", err))
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	if form.Name == "" {
		writeErrors(w, "name", msgRequired)
		return
	}
	form.Slug = strings.TrimSpace(form.Slug)
	if form.Slug == "" {
		form.Slug = schema.Slug(form.Name)
	}
	if form.Sections == nil {
		form.Sections = []schema.Section{}
	}
	for i := range form.Sections {
		form.Sections[i].Order = i + 1
		for j := range form.Sections[i].Fields {
			field := &form.Sections[i].Fields[j]
			if strings.TrimSpace(field.Name) == "" {
				field.Name = schema.FieldName(field.Label)
			}
		}
	}
	if _, err := schema.ValidateForm(form); err != nil {
		writeErrors(w, "sections", err.Error())
		return
	}

	created, err := s.backend.CreateForm(r.Context(), form)
	if errors.Is(err, store.ErrDuplicateSlug) {
		writeErrors(w, "slug", "form with this slug already exists.")
		return
	}
	if err != nil {
		s.internalError(w, "create form", err)
		return
	}
	s.metrics.formsCreated.Inc()
	s.logger.Info("form created", zap.Int64("form_id", created.ID), zap.String("slug", created.Slug))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.backend.Forms(r.Context())
	if err != nil {
		s.internalError(w, "list forms", err)
		return
	}
	out := make([]schema.Form, 0, len(forms))
	for i := len(forms) - 1; i >= 0; i-- {
		out = append(out, forms[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCountForms(w http.ResponseWriter, r *http.Request) {
	forms, err := s.backend.Forms(r.Context())
	if err != nil {
		s.internalError(w, "count forms", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(forms)})
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) lookupForm(w http.ResponseWriter, r *http.Request) (schema.Form, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return schema.Form{}, false
	}
	form, err := s.backend.FetchForm(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, msgNotFound)
		return schema.Form{}, false
	}
	if err != nil {
		s.internalError(w, "fetch form", err)
		return schema.Form{}, false
	}
	return form, true
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	records, err := s.backend.FetchSubmissions(r.Context())
	if err != nil {
		s.internalError(w, "list submissions", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCountSubmissions(w http.ResponseWriter, r *http.Request) {
	records, err := s.backend.FetchSubmissions(r.Context())
	if err != nil {
		s.internalError(w, "count submissions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(records)})
}

type submitAck struct {
	Message      string           `json:"message"`
	SubmissionID int64            `json:"submission_id"`
	Data         responses.Record `json:"data"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	form, ok := s.lookupForm(w, r)
	if !ok {
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		data    responses.Data
		uploads []upload
		err     error
	)
	switch mediaType {
	case "multipart/form-data":
		data, uploads, err = readMultipart(r, form)
	case "application/json", "":
		data, err = readStructured(r)
	default:
		writeDetail(w, http.StatusUnsupportedMediaType, fmt.Sprintf("Unsupported media type %q in request.", mediaType))
		return
	}
	if errors.Is(err, errMissingResponses) {
		s.reject(w, form.ID, "responses", msgRequired)
		return
	}
	if err != nil {
		s.reject(w, form.ID, "", err.Error())
		return
	}

	if err := s.encoder.Check(form, valuesFromData(data)); err != nil {
		var verr *submission.ValidationError
		if errors.As(err, &verr) && errors.Is(err, submission.ErrMissingRequiredField) {
			s.reject(w, form.ID, verr.Field, msgRequired)
			return
		}
		s.reject(w, form.ID, "", err.Error())
		return
	}

	c, err := contract.New(r.Context(), form)
	if err != nil {
		s.internalError(w, "build contract", err)
		return
	}
	plain, err := plainData(data)
	if err != nil {
		s.internalError(w, "decode submission", err)
		return
	}
	if err := c.ValidateResponses(plain); err != nil {
		var violation *contract.ViolationError
		if errors.As(err, &violation) {
			s.reject(w, form.ID, violation.Field, violation.Reason)
			return
		}
		s.reject(w, form.ID, "", err.Error())
		return
	}

	fileURL := ""
	for _, up := range uploads {
		stored, err := s.saveUpload(up)
		if err != nil {
			s.internalError(w, "store upload", err)
			return
		}
		data.Set(up.field, stored)
		fileURL = s.uploadURL(r, stored)
	}

	record, err := s.backend.AddSubmission(r.Context(), form.ID, data, fileURL)
	if err != nil {
		s.internalError(w, "store submission", err)
		return
	}
	s.metrics.submissions.WithLabelValues(resultAccepted).Inc()
	s.logger.Info("submission accepted",
		zap.Int64("form_id", form.ID),
		zap.Int64("submission_id", record.ID),
		zap.Bool("file", fileURL != ""),
	)
	writeJSON(w, http.StatusCreated, submitAck{
		Message:      msgSubmitted,
		SubmissionID: record.ID,
		Data:         record,
	})
}

func (s *Server) reject(w http.ResponseWriter, formID int64, field, message string) {
	s.metrics.submissions.WithLabelValues(resultRejected).Inc()
	s.logger.Info("submission rejected",
		zap.Int64("form_id", formID),
		zap.String("field", field),
		zap.String("reason", message),
	)
	writeErrors(w, field, message)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Failed to %s", op)})
}

var errMissingResponses = errors.New("server: responses object is required")

func readStructured(r *http.Request) (responses.Data, error) {
	var body struct {
		Responses *responses.Data `json:"responses"`
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(&body); err != nil {
		return responses.Data{}, fmt.Errorf("Invalid JSON: %v", err)
	}
	if body.Responses == nil {
		return responses.Data{}, errMissingResponses
	}
	return *body.Responses, nil
}

type upload struct {
	field  string
	header *multipart.FileHeader
}

// readMultipart collects answers in form order, then any undeclared keys
// sorted. File parts hold the client file name until the upload is stored
// under its final name, once the submission validates.
func readMultipart(r *http.Request, form schema.Form) (responses.Data, []upload, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return responses.Data{}, nil, fmt.Errorf("Failed to parse multipart form: %v", err)
	}
	mf := r.MultipartForm

	var (
		data    responses.Data
		uploads []upload
		seen    = make(map[string]struct{})
	)
	for _, field := range form.Fields() {
		seen[field.Name] = struct{}{}
		if field.Type == schema.FieldTypeFile {
			if headers := mf.File[field.Name]; len(headers) > 0 {
				data.Set(field.Name, headers[0].Filename)
				uploads = append(uploads, upload{field: field.Name, header: headers[0]})
			}
			continue
		}
		values, ok := mf.Value[field.Name]
		if !ok {
			continue
		}
		if field.Type == schema.FieldTypeCheckbox {
			choices := make([]any, len(values))
			for i, v := range values {
				choices[i] = v
			}
			data.Set(field.Name, choices)
			continue
		}
		if len(values) > 0 {
			data.Set(field.Name, values[0])
		}
	}

	var extra []string
	for key := range mf.Value {
		if _, ok := seen[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if values := mf.Value[key]; len(values) > 0 {
			data.Set(key, values[0])
		}
	}
	return data, uploads, nil
}

// valuesFromData converts stored answers into encoder values for the
// required-field check.
func valuesFromData(data responses.Data) submission.Values {
	values := make(submission.Values, data.Len())
	for _, key := range data.Keys() {
		raw, _ := data.Get(key)
		switch v := raw.(type) {
		case nil:
		case string:
			values[key] = submission.Text(v)
		case []any:
			choices := make([]string, 0, len(v))
			for _, item := range v {
				choices = append(choices, fmt.Sprint(item))
			}
			values[key] = submission.Choices(choices...)
		case json.Number:
			values[key] = submission.Text(v.String())
		default:
			values[key] = submission.Text(fmt.Sprint(v))
		}
	}
	return values
}

// plainData re-decodes data without json.Number so schema validation sees
// float64 numbers.
func plainData(data responses.Data) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
