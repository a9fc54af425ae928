package responses_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesk/pkg/responses"
)

func TestRecordDecodingKeepsDataKeyOrder(t *testing.T) {
	raw := `{"id": 4, "form": 7, "data": {"zeta": "z", "alpha": ["a", "b"], "age": 42, "empty": null},
		"file_upload": null, "created_at": "2024-05-01T10:15:00.123456Z"}`

	var record responses.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "age", "empty"}, record.Data.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
	if age, _ := record.Data.Get("age"); age != json.Number("42") {
		t.Fatalf("age decoded as %#v", age)
	}
	if record.FileUpload != "" {
		t.Fatalf("file upload = %q", record.FileUpload)
	}
	if !record.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 15, 0, 123456000, time.UTC)) {
		t.Fatalf("created at = %v", record.CreatedAt)
	}

	out, err := json.Marshal(record.Data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(`{"zeta":"z","alpha":["a","b"],"age":42,"empty":null}`, string(out)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDataKeepsOrderWithEscapesAndNesting(t *testing.T) {
	raw := `{"quote": "say \"hi\"", "nested": {"z": 1, "a": [true, null]}, "été": "summer"}`

	var d responses.Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"quote", "nested", "été"}, d.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}
	if quote, _ := d.Get("quote"); quote != `say "hi"` {
		t.Fatalf("quote = %#v", quote)
	}
	nested, _ := d.Get("nested")
	want := map[string]any{"z": json.Number("1"), "a": []any{true, nil}}
	if diff := cmp.Diff(want, nested); diff != "" {
		t.Fatalf("nested mismatch (-want +got):\n%s", diff)
	}

	d.Set("quote", "replaced")
	if diff := cmp.Diff([]string{"quote", "nested", "été"}, d.Keys()); diff != "" {
		t.Fatalf("Set moved an existing key (-want +got):\n%s", diff)
	}
}

func TestDataRejectsNonObject(t *testing.T) {
	var d responses.Data
	if err := json.Unmarshal([]byte(`["a"]`), &d); err == nil {
		t.Fatalf("expected error for array data")
	}
	if err := json.Unmarshal([]byte(`null`), &d); err != nil || d.Len() != 0 {
		t.Fatalf("null data: %v (len %d)", err, d.Len())
	}
}

type sourceFunc func(ctx context.Context) ([]responses.Record, error)

func (f sourceFunc) FetchSubmissions(ctx context.Context) ([]responses.Record, error) {
	return f(ctx)
}

func TestEngineFetchRefetchesEveryTime(t *testing.T) {
	calls := 0
	engine := responses.NewEngine(sourceFunc(func(context.Context) ([]responses.Record, error) {
		calls++
		return []responses.Record{{ID: int64(calls), Form: 1, Data: responses.NewData("k", "v")}}, nil
	}))

	for i := 1; i <= 2; i++ {
		result, err := engine.Fetch(context.Background(), responses.Query{FormID: 1, Page: 1, PageSize: 5})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(result.Items) != 1 || result.Items[0].ID != int64(i) {
			t.Fatalf("call %d returned %+v", i, result.Items)
		}
	}

	boom := errors.New("boom")
	failing := responses.NewEngine(sourceFunc(func(context.Context) ([]responses.Record, error) { return nil, boom }))
	if _, err := failing.Fetch(context.Background(), responses.Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}
