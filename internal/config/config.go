// Package config loads formdesk.toml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"

	"github.com/goliatone/go-formdesk/pkg/client"
	"github.com/goliatone/go-formdesk/pkg/export"
	"github.com/goliatone/go-formdesk/pkg/responses"
)

const (
	EnvAPIURL = "FORMDESK_API_URL"
	EnvToken  = "FORMDESK_TOKEN"
	EnvConfig = "FORMDESK_CONFIG"

	FileName = "config.toml"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	API         APIConfig         `toml:"api"`
	Credentials CredentialsConfig `toml:"credentials"`
	Responses   ResponsesConfig   `toml:"responses"`
	Export      ExportConfig      `toml:"export"`
	Store       StoreConfig       `toml:"store"`
	Log         LogConfig         `toml:"log"`
}

type APIConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// CredentialsConfig locates the bearer token. Token is only ever filled from
// the environment and is not written back to disk.
type CredentialsConfig struct {
	TokenFile string `toml:"token_file"`
	Token     string `toml:"-"`
}

type ResponsesConfig struct {
	PageSize int `toml:"page_size"`
}

type ExportConfig struct {
	Timezone    string `toml:"timezone"`
	Placeholder string `toml:"placeholder"`
	OutputDir   string `toml:"output_dir"`
}

// StoreConfig drives the reference store started by `formdesk serve`.
type StoreConfig struct {
	DSN       string `toml:"dsn"`
	Listen    string `toml:"listen"`
	UploadDir string `toml:"upload_dir"`
	Token     string `toml:"token"`
	PublicURL string `toml:"public_url"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: client.DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Responses: ResponsesConfig{PageSize: responses.DefaultPageSize},
		Export: ExportConfig{
			Timezone:    "UTC",
			Placeholder: export.DefaultPlaceholder,
			OutputDir:   ".",
		},
		Store: StoreConfig{
			DSN:       "formdesk.db",
			Listen:    "127.0.0.1:8000",
			UploadDir: "uploads",
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath returns $FORMDESK_CONFIG, or config.toml under the user config
// directory.
func DefaultPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv(EnvConfig)); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "formdesk", FileName), nil
}

// Load reads path over the defaults and applies environment overrides. An
// empty path means DefaultPath, which may be missing; an explicit path must
// exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv(os.Getenv)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Parse decodes TOML text over the defaults without touching the environment.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides the API URL and token from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvToken)); v != "" {
		c.Credentials.Token = v
	}
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var problems []string
	if err := checkURL(c.API.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("api.base_url: %v", err))
	}
	if c.API.Timeout < 0 {
		problems = append(problems, "api.timeout: must not be negative")
	}
	if !validPageSize(c.Responses.PageSize) {
		problems = append(problems, fmt.Sprintf("responses.page_size: %d is not one of %v", c.Responses.PageSize, responses.PageSizes))
	}
	if _, err := c.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("export.timezone: %v", err))
	}
	if c.Store.PublicURL != "" {
		if err := checkURL(c.Store.PublicURL); err != nil {
			problems = append(problems, fmt.Sprintf("store.public_url: %v", err))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Location resolves export.timezone. Blank means UTC.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Export.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// CredentialProvider returns the provider described by the configuration: the
// environment token wins over the token file.
func (c Config) CredentialProvider() client.CredentialProvider {
	if c.Credentials.Token != "" {
		return client.EnvCredentials(EnvToken)
	}
	if c.Credentials.TokenFile != "" {
		return client.FileCredentials(c.Credentials.TokenFile)
	}
	return client.StaticCredentials("")
}

// Encode writes the configuration as TOML.
func (c Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	defer f.Close()
	return c.Encode(f)
}

func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

func validPageSize(size int) bool {
	for _, allowed := range responses.PageSizes {
		if size == allowed {
			return true
		}
	}
	return false
}
