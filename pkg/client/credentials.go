package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// CredentialProvider supplies the bearer token for each request. Reset is
// called when the store answers 401 so stale credentials are dropped and the
// operator is sent back through login.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Reset(ctx context.Context) error
}

type staticCredentials struct {
	token string
}

// StaticCredentials always returns token. Reset is a no-op.
func StaticCredentials(token string) CredentialProvider {
	return staticCredentials{token: strings.TrimSpace(token)}
}

func (s staticCredentials) Token(context.Context) (string, error) { return s.token, nil }

func (staticCredentials) Reset(context.Context) error { return nil }

type fileCredentials struct {
	path string
}

// FileCredentials reads the token from a file on every request. Reset deletes
// the file.
func FileCredentials(path string) CredentialProvider {
	return fileCredentials{path: path}
}

func (f fileCredentials) Token(context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("client: read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f fileCredentials) Reset(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("client: remove token file: %w", err)
	}
	return nil
}

type envCredentials struct {
	name string
}

// EnvCredentials reads the token from an environment variable. Reset unsets
// the variable for the current process.
func EnvCredentials(name string) CredentialProvider {
	return envCredentials{name: name}
}

func (e envCredentials) Token(context.Context) (string, error) {
	return strings.TrimSpace(os.Getenv(e.name)), nil
}

func (e envCredentials) Reset(context.Context) error {
	return os.Unsetenv(e.name)
}
