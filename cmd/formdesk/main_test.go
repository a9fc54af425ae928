package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-formdesk/internal/config"
	"github.com/goliatone/go-formdesk/internal/logging"
	"github.com/goliatone/go-formdesk/internal/server"
	"github.com/goliatone/go-formdesk/internal/store"
)

// resetCommands restores every flag and global so each Execute starts from
// a clean command tree.
func resetCommands() {
	var walk func(cmd *cobra.Command)
	reset := func(f *pflag.Flag) {
		if slice, ok := f.Value.(pflag.SliceValue); ok {
			_ = slice.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	walk = func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}
	walk(rootCmd)

	cfg = config.Config{}
	logger = logging.Nop()
	desk = nil
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func run(args ...string) cliResult {
	resetCommands()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func startStore(t *testing.T) (configFile, outDir string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(context.Background(), filepath.Join(dir, "formdesk.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	srv := server.New(st, server.WithToken("tok"), server.WithUploadDir(filepath.Join(dir, "uploads")))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	outDir = filepath.Join(dir, "exports")
	configFile = filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("[api]\nbase_url = %q\n\n[export]\noutput_dir = %q\n\n[log]\nlevel = \"error\"\n", ts.URL+"/onboarding", outDir)
	if err := os.WriteFile(configFile, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvToken, "tok")
	t.Setenv(config.EnvAPIURL, "")
	return configFile, outDir
}

func TestCLI_FormLifecycle(t *testing.T) {
	configFile, outDir := startStore(t)
	intake := filepath.Join("..", "..", "pkg", "formfile", "testdata", "intake.yaml")

	res := run("--config", configFile, "create", "-f", intake)
	if res.err != nil {
		t.Fatalf("create: %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "Created form 1 \"Employee Intake\"") {
		t.Fatalf("create output = %q", res.stdout)
	}

	res = run("--config", configFile, "show", "1")
	if res.err != nil {
		t.Fatalf("show: %v", res.err)
	}
	if !strings.Contains(res.stdout, "name: Employee Intake") {
		t.Fatalf("show output = %q", res.stdout)
	}

	res = run("--config", configFile, "submit", "1", "--set", "full_name=Ada Lovelace", "--set", "team=eng")
	if res.err != nil {
		t.Fatalf("submit: %v\n%s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "Form submitted successfully (submission 1)") {
		t.Fatalf("submit output = %q", res.stdout)
	}

	res = run("--config", configFile, "submit", "1", "--set", "full_name=Grace Hopper")
	if res.err == nil {
		t.Fatalf("expected missing team to fail")
	}
	if !strings.Contains(res.stderr, "team:") {
		t.Fatalf("stderr should name the field, got %q", res.stderr)
	}

	res = run("--config", configFile, "--json", "responses", "1", "-q", "lovelace")
	if res.err != nil {
		t.Fatalf("responses: %v", res.err)
	}
	var page pageJSON
	if err := json.Unmarshal([]byte(res.stdout), &page); err != nil {
		t.Fatalf("decode responses: %v\n%s", err, res.stdout)
	}
	if page.Total != 1 || page.PageSize != 5 || len(page.Items) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}

	res = run("--config", configFile, "export", "1", "--format", "csv")
	if res.err != nil {
		t.Fatalf("export: %v", res.err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "form_1_responses.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "full_name,team,file_upload,created_at\nAda Lovelace,eng,-,") {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}

func TestCLI_RejectsBadArguments(t *testing.T) {
	configFile, _ := startStore(t)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "form id", args: []string{"show", "abc"}, want: "invalid form id"},
		{name: "page size", args: []string{"responses", "1", "--page-size", "7"}, want: "--page-size"},
		{name: "format", args: []string{"export", "1", "--format", "docx"}, want: "docx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := run(append([]string{"--config", configFile}, tc.args...)...)
			if res.err == nil || !strings.Contains(res.err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, res.err)
			}
		})
	}
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvAPIURL, "")

	res := run("--config", path, "config", "init")
	if res.err != nil {
		t.Fatalf("init: %v", res.err)
	}
	if res = run("--config", path, "config", "init"); res.err == nil {
		t.Fatalf("second init should refuse to overwrite")
	}

	res = run("--config", path, "--api-url", "http://example.test/onboarding", "config", "show")
	if res.err != nil {
		t.Fatalf("show: %v", res.err)
	}
	if !strings.Contains(res.stdout, `base_url = "http://example.test/onboarding"`) {
		t.Fatalf("flag override missing from:\n%s", res.stdout)
	}
}
