package config_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/internal/config"
)

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := config.Parse(`
[api]
base_url = "https://forms.example.com/onboarding"
timeout = "5s"

[responses]
page_size = 20

[export]
timezone = "Europe/Madrid"

[log]
level = "debug"
json = true
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := config.Default()
	want.API.BaseURL = "https://forms.example.com/onboarding"
	want.API.Timeout = 5 * time.Second
	want.Responses.PageSize = 20
	want.Export.Timezone = "Europe/Madrid"
	want.Log = config.LogConfig{Level: "debug", JSON: true}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvToken, "")

	path := filepath.Join(t.TempDir(), "formdesk.toml")
	if err := os.WriteFile(path, []byte("[store]\nlisten = \":9000\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Listen != ":9000" || cfg.Store.UploadDir != "uploads" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formdesk.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase = \"x\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := config.Load(path)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !strings.Contains(err.Error(), "api.base") {
		t.Fatalf("error should name the key: %v", err)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}

	t.Setenv(config.EnvConfig, filepath.Join(t.TempDir(), "absent.toml"))
	t.Setenv(config.EnvAPIURL, "http://10.0.0.5:8000/onboarding")
	t.Setenv(config.EnvToken, "secret")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load default path: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:8000/onboarding" {
		t.Fatalf("env url not applied: %q", cfg.API.BaseURL)
	}
	token, err := cfg.CredentialProvider().Token(context.Background())
	if err != nil || token != "secret" {
		t.Fatalf("token = %q, %v", token, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{name: "base url scheme", mutate: func(c *config.Config) { c.API.BaseURL = "ftp://host" }, field: "api.base_url"},
		{name: "base url host", mutate: func(c *config.Config) { c.API.BaseURL = "http://" }, field: "api.base_url"},
		{name: "page size", mutate: func(c *config.Config) { c.Responses.PageSize = 7 }, field: "responses.page_size"},
		{name: "timezone", mutate: func(c *config.Config) { c.Export.Timezone = "Mars/Olympus" }, field: "export.timezone"},
		{name: "public url", mutate: func(c *config.Config) { c.Store.PublicURL = "localhost" }, field: "store.public_url"},
		{name: "log level", mutate: func(c *config.Config) { c.Log.Level = "loud" }, field: "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error %q should mention %s", err, tt.field)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Credentials.TokenFile = "/tmp/formdesk-token"
	cfg.Credentials.Token = "never-written"

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Contains(raw, []byte("never-written")) {
		t.Fatalf("environment token leaked to disk:\n%s", raw)
	}

	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvAPIURL, "")
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Credentials.Token = ""
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
