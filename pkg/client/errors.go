package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formdesk/pkg/submission"
)

// ErrAuthExpired is returned on HTTP 401. Credentials have already been reset
// when it is returned; the request is not retried.
var ErrAuthExpired = errors.New("client: authentication expired")

// APIError is a non-success response other than 401.
type APIError struct {
	StatusCode int
	Fields     map[string][]string
	Form       []string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	var parts []string
	parts = append(parts, e.Form...)
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], "; ")))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("client: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("client: HTTP %d: %s", e.StatusCode, strings.Join(parts, ", "))
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	keys := make([]string, 0)
	raw := submission.DecodeErrorBody(body)
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if submission.IsFormLevelKey(key) {
			apiErr.Form = append(apiErr.Form, raw[key]...)
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}
		apiErr.Fields[key] = append(apiErr.Fields[key], raw[key]...)
	}
	return apiErr
}
