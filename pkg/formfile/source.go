package formfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-formdesk/pkg/builder"
)

// maxRemoteSize caps definitions fetched over HTTP.
const maxRemoteSize = 1 << 20

// SourceKind tells the fetcher how to read a Source.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindURL  SourceKind = "url"
)

var ErrRemoteDisabled = errors.New("formfile: http sources are disabled")

// Source names a definition document.
type Source struct {
	Kind     SourceKind
	Location string
}

// SourceFromFile points at a local file.
func SourceFromFile(path string) Source {
	return Source{Kind: SourceKindFile, Location: path}
}

// SourceFromURL points at an http or https URL.
func SourceFromURL(rawURL string) Source {
	return Source{Kind: SourceKindURL, Location: rawURL}
}

// ParseSource treats http:// and https:// locations as URLs and anything
// else as a file path.
func ParseSource(raw string) (Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return Source{}, errors.New("formfile: source location is required")
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return SourceFromURL(location), nil
	}
	return SourceFromFile(location), nil
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient sets the client used for URL sources.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *Fetcher) {
		if client != nil {
			f.http = client
		}
	}
}

// WithTimeout bounds each remote fetch.
func WithTimeout(timeout time.Duration) FetchOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithoutHTTP refuses URL sources.
func WithoutHTTP() FetchOption {
	return func(f *Fetcher) {
		f.allowHTTP = false
	}
}

// Fetcher reads definitions from files or URLs and parses them.
type Fetcher struct {
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

// NewFetcher returns a Fetcher with http.DefaultClient and a 30s timeout.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		http:      http.DefaultClient,
		allowHTTP: true,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Load reads src and replays it through the builder.
func (f *Fetcher) Load(ctx context.Context, src Source) (builder.Draft, error) {
	var (
		data []byte
		err  error
	)
	switch src.Kind {
	case SourceKindFile:
		data, err = readFile(ctx, src.Location)
	case SourceKindURL:
		if !f.allowHTTP {
			return builder.Draft{}, ErrRemoteDisabled
		}
		data, err = f.fetch(ctx, src.Location)
	default:
		err = fmt.Errorf("formfile: unsupported source kind %q", src.Kind)
	}
	if err != nil {
		return builder.Draft{}, err
	}
	return Parse(data, sourceName(src))
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("formfile: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("formfile: read %s: %w", path, err)
	}
	return data, nil
}

func (f *Fetcher) fetch(ctx context.Context, location string) ([]byte, error) {
	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("formfile: fetch %s: %w", location, err)
	}
	req.Header.Set("Accept", "application/yaml, application/json;q=0.9, */*;q=0.5")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("formfile: fetch %s: %w", location, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("formfile: fetch %s: unexpected status %s", location, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize+1))
	if err != nil {
		return nil, fmt.Errorf("formfile: fetch %s: %w", location, err)
	}
	if len(data) > maxRemoteSize {
		return nil, fmt.Errorf("formfile: fetch %s: document exceeds %d bytes", location, maxRemoteSize)
	}
	return data, nil
}

// sourceName labels errors and picks the decoder; for URLs the path carries
// the extension.
func sourceName(src Source) string {
	if src.Kind != SourceKindURL {
		return src.Location
	}
	if u, err := url.Parse(src.Location); err == nil && u.Path != "" {
		return u.Path
	}
	return src.Location
}
