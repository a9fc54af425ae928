// Package server exposes the reference store over the same REST layout the
// client speaks: form creation, form lookup, submission and listing, plus
// stored uploads and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
	"github.com/goliatone/go-formdesk/pkg/submission"
)

const (
	DefaultPrefix = "/onboarding/"
	UploadsPath   = "/uploads/"
	MetricsPath   = "/metrics"

	maxUploadMemory = 32 << 20
	maxJSONBody     = 4 << 20
)

// Backend is the persistence the server needs. *store.Store implements it.
type Backend interface {
	CreateForm(ctx context.Context, form schema.Form) (schema.Form, error)
	FetchForm(ctx context.Context, id int64) (schema.Form, error)
	Forms(ctx context.Context) ([]schema.Form, error)
	AddSubmission(ctx context.Context, formID int64, data responses.Data, fileUpload string) (responses.Record, error)
	FetchSubmissions(ctx context.Context) ([]responses.Record, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and event logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithToken requires "Authorization: Bearer <token>" on API routes.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = strings.TrimSpace(token)
	}
}

// WithUploadDir sets where uploaded files are stored.
func WithUploadDir(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.uploadDir = dir
		}
	}
}

// WithPublicURL fixes the origin used for absolute upload URLs. Without it
// the request's own scheme and host are used.
func WithPublicURL(url string) Option {
	return func(s *Server) {
		s.publicURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// WithPrefix mounts the API under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) {
		if prefix == "" {
			return
		}
		if !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.prefix = prefix
	}
}

// Server serves the REST API.
type Server struct {
	backend   Backend
	logger    *zap.Logger
	token     string
	uploadDir string
	publicURL string
	prefix    string
	encoder   *submission.Encoder
	metrics   *metrics
	handler   http.Handler
}

// New wires the routes over backend.
func New(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend:   backend,
		logger:    zap.NewNop(),
		uploadDir: "uploads",
		prefix:    DefaultPrefix,
		encoder:   submission.NewEncoder(),
		metrics:   newMetrics(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Prefix returns the mount point of the API routes.
func (s *Server) Prefix() string { return s.prefix }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	api := func(pattern, name string, fn http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.instrument(name, s.authorize(fn)))
	}

	p := s.prefix
	api("POST "+p+"create/{$}", "create", s.handleCreateForm)
	api("GET "+p+"user-forms/{$}", "user_forms", s.handleListForms)
	api("GET "+p+"count-forms/{$}", "count_forms", s.handleCountForms)
	api("GET "+p+"{id}/{$}", "form_detail", s.handleGetForm)
	api("POST "+p+"{id}/submit/{$}", "submit", s.handleSubmit)
	api("GET "+p+"submissions/{$}", "submissions", s.handleSubmissions)
	api("GET "+p+"count-submissions/{$}", "count_submissions", s.handleCountSubmissions)

	mux.Handle("GET "+UploadsPath, s.metrics.instrument("uploads", s.uploads()))
	mux.Handle("GET "+MetricsPath, s.metrics.handler())

	return s.logRequests(mux)
}

func (s *Server) authorize(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if header == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		if !tokenMatches(header, s.token) {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("store listening", zap.String("addr", ln.Addr().String()), zap.String("prefix", s.prefix))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}
}
