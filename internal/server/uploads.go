package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// saveUpload copies an uploaded file into the upload directory and returns
// the stored name. Clashing names get a short random suffix.
func (s *Server) saveUpload(up upload) (string, error) {
	src, err := up.header.Open()
	if err != nil {
		return "", fmt.Errorf("server: open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("server: create upload dir: %w", err)
	}

	name := cleanFileName(up.header.Filename)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for attempt := 0; ; attempt++ {
		candidate := name
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:8], ext)
		}
		dst, err := os.OpenFile(filepath.Join(s.uploadDir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) && attempt < 5 {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("server: create upload: %w", err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			return "", fmt.Errorf("server: write upload: %w", err)
		}
		if err := dst.Close(); err != nil {
			return "", fmt.Errorf("server: write upload: %w", err)
		}
		s.logger.Debug("upload stored", zap.String("field", up.field), zap.String("file", candidate))
		return candidate, nil
	}
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}

func (s *Server) uploadURL(r *http.Request, stored string) string {
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
			scheme = forwarded
		}
		base = scheme + "://" + r.Host
	}
	return base + UploadsPath + url.PathEscape(stored)
}

// uploads serves stored files. Directory listings are not exposed.
func (s *Server) uploads() http.Handler {
	files := http.StripPrefix(UploadsPath, http.FileServer(http.Dir(s.uploadDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
