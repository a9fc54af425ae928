package formfile_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/formfile"
)

func TestParseSource(t *testing.T) {
	cases := []struct {
		raw  string
		want formfile.Source
	}{
		{raw: "forms/intake.yaml", want: formfile.SourceFromFile("forms/intake.yaml")},
		{raw: " https://example.com/intake.json ", want: formfile.SourceFromURL("https://example.com/intake.json")},
		{raw: "HTTP://example.com/x.yaml", want: formfile.SourceFromURL("HTTP://example.com/x.yaml")},
	}
	for _, tc := range cases {
		got, err := formfile.ParseSource(tc.raw)
		if err != nil {
			t.Fatalf("ParseSource(%q): %v", tc.raw, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("ParseSource(%q) mismatch (-want +got):\n%s", tc.raw, diff)
		}
	}
	if _, err := formfile.ParseSource("  "); err == nil {
		t.Fatalf("expected error for blank source")
	}
}

func TestFetcherLoadsFileAndURL(t *testing.T) {
	yamlData, err := os.ReadFile(filepath.Join("testdata", "intake.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	jsonData, err := os.ReadFile(filepath.Join("testdata", "intake.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/forms/intake.yaml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(yamlData)
	})
	mux.HandleFunc("/forms/intake", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jsonData)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher := formfile.NewFetcher(formfile.WithHTTPClient(ts.Client()))
	ctx := context.Background()

	sources := []formfile.Source{
		formfile.SourceFromFile(filepath.Join("testdata", "intake.yaml")),
		formfile.SourceFromURL(ts.URL + "/forms/intake.yaml"),
		formfile.SourceFromURL(ts.URL + "/forms/intake"),
	}
	for _, src := range sources {
		draft, err := fetcher.Load(ctx, src)
		if err != nil {
			t.Fatalf("load %s: %v", src.Location, err)
		}
		if diff := cmp.Diff(wantIntake(), draft.Form()); diff != "" {
			t.Fatalf("load %s mismatch (-want +got):\n%s", src.Location, diff)
		}
	}
}

func TestFetcherErrors(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	ctx := context.Background()

	_, err := formfile.NewFetcher().Load(ctx, formfile.SourceFromURL(ts.URL+"/missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}

	_, err = formfile.NewFetcher(formfile.WithoutHTTP()).Load(ctx, formfile.SourceFromURL(ts.URL+"/x.yaml"))
	if !errors.Is(err, formfile.ErrRemoteDisabled) {
		t.Fatalf("expected ErrRemoteDisabled, got %v", err)
	}

	_, err = formfile.NewFetcher().Load(ctx, formfile.SourceFromFile(filepath.Join("testdata", "nope.yaml")))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
