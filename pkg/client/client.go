package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

// DefaultBaseURL is the submission API root used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000/onboarding"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// FormCreator persists a new form and returns it with its assigned id.
type FormCreator interface {
	CreateForm(ctx context.Context, form schema.Form) (schema.Form, error)
}

// FormFetcher loads a form definition by id.
type FormFetcher interface {
	FetchForm(ctx context.Context, id int64) (schema.Form, error)
}

// ResponseSubmitter delivers an encoded submission.
type ResponseSubmitter interface {
	SubmitResponse(ctx context.Context, formID int64, payload submission.Payload) (submission.Ack, error)
}

// SubmissionFetcher lists every submission visible to the caller.
type SubmissionFetcher interface {
	FetchSubmissions(ctx context.Context) ([]responses.Record, error)
}

var (
	_ FormCreator       = (*HTTPClient)(nil)
	_ FormFetcher       = (*HTTPClient)(nil)
	_ ResponseSubmitter = (*HTTPClient)(nil)
	_ SubmissionFetcher = (*HTTPClient)(nil)
)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient swaps the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithCredentials sets the token source.
func WithCredentials(creds CredentialProvider) Option {
	return func(c *HTTPClient) {
		if creds != nil {
			c.credentials = creds
		}
	}
}

// WithLogger enables debug request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides request id generation.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *HTTPClient) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// HTTPClient talks to the submission store's REST API.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialProvider
	logger      *zap.Logger
	requestID   func() string
}

// New creates a client rooted at baseURL (DefaultBaseURL when blank).
func New(baseURL string, opts ...Option) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		credentials: StaticCredentials(""),
		logger:      zap.NewNop(),
		requestID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the API root.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) CreateForm(ctx context.Context, form schema.Form) (schema.Form, error) {
	var created schema.Form
	if err := c.doJSON(ctx, http.MethodPost, "/create/", form, &created); err != nil {
		return schema.Form{}, err
	}
	return created, nil
}

func (c *HTTPClient) FetchForm(ctx context.Context, id int64) (schema.Form, error) {
	var form schema.Form
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/%d/", id), nil, &form); err != nil {
		return schema.Form{}, err
	}
	return form, nil
}

func (c *HTTPClient) FetchSubmissions(ctx context.Context) ([]responses.Record, error) {
	var records []responses.Record
	if err := c.doJSON(ctx, http.MethodGet, "/submissions/", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type submitResponse struct {
	Message      string `json:"message"`
	SubmissionID int64  `json:"submission_id"`
	Data         struct {
		FileUpload string `json:"file_upload"`
	} `json:"data"`
}

// SubmitResponse posts the payload. A 400 answer becomes a
// *submission.RejectedError carrying the decoded error body.
func (c *HTTPClient) SubmitResponse(ctx context.Context, formID int64, payload submission.Payload) (submission.Ack, error) {
	if payload == nil {
		return submission.Ack{}, fmt.Errorf("client: payload is required")
	}
	var body bytes.Buffer
	if _, err := payload.WriteTo(&body); err != nil {
		return submission.Ack{}, fmt.Errorf("client: encode payload: %w", err)
	}

	status, respBody, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/%d/submit/", formID), payload.ContentType(), &body)
	if err != nil {
		return submission.Ack{}, err
	}
	if status == http.StatusBadRequest {
		return submission.Ack{}, &submission.RejectedError{
			StatusCode: status,
			Raw:        submission.DecodeErrorBody(respBody),
		}
	}
	if err := c.checkStatus(ctx, status, respBody); err != nil {
		return submission.Ack{}, err
	}

	var decoded submitResponse
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return submission.Ack{}, fmt.Errorf("client: decode submit response: %w", err)
		}
	}
	return submission.Ack{
		SubmissionID: decoded.SubmissionID,
		Message:      decoded.Message,
		FileUpload:   decoded.Data.FileUpload,
	}, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = submission.ContentTypeJSON
	}

	status, respBody, err := c.do(ctx, method, path, contentType, reader)
	if err != nil {
		return err
	}
	if err := c.checkStatus(ctx, status, respBody); err != nil {
		return err
	}
	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}

// do sends one request and returns the status and full body.
func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("client: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.credentials.Token(ctx)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := c.requestID()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return 0, nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("client: read response: %w", err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return resp.StatusCode, respBody, nil
}

func (c *HTTPClient) checkStatus(ctx context.Context, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status == http.StatusUnauthorized {
		if err := c.credentials.Reset(ctx); err != nil {
			return fmt.Errorf("%w (reset credentials: %v)", ErrAuthExpired, err)
		}
		return ErrAuthExpired
	}
	return newAPIError(status, body)
}
