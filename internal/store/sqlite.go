// Package store is the SQLite reference submission store behind
// `formdesk serve`. It keeps forms as JSON documents and submissions as
// ordered JSON objects.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formdesk/pkg/responses"
	"github.com/goliatone/go-formdesk/pkg/schema"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicateSlug = errors.New("store: form with this slug already exists")
)

const ddl = `
CREATE TABLE IF NOT EXISTS forms (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	slug        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	schema      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS submissions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	form_id     INTEGER NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
	data        TEXT NOT NULL,
	file_upload TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_created_at ON submissions(created_at DESC, id DESC);
`

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store persists forms and submissions.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite database at dsn and applies the schema. The file is
// created when missing.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateForm stores form under a new id and returns it with the id set.
func (s *Store) CreateForm(ctx context.Context, form schema.Form) (schema.Form, error) {
	form = form.Clone()
	form.ID = 0
	if form.Sections == nil {
		form.Sections = []schema.Section{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.Form{}, fmt.Errorf("store: create form: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM forms WHERE slug = ?`, form.Slug).Scan(&count); err != nil {
		return schema.Form{}, fmt.Errorf("store: create form: %w", err)
	}
	if count > 0 {
		return schema.Form{}, ErrDuplicateSlug
	}

	raw, err := json.Marshal(form.Sections)
	if err != nil {
		return schema.Form{}, fmt.Errorf("store: encode sections: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO forms (name, slug, description, schema, created_at) VALUES (?, ?, ?, ?, ?)`,
		form.Name, form.Slug, form.Description, string(raw), formatTime(s.now()),
	)
	if err != nil {
		return schema.Form{}, fmt.Errorf("store: insert form: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return schema.Form{}, fmt.Errorf("store: insert form: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return schema.Form{}, fmt.Errorf("store: commit form: %w", err)
	}
	form.ID = id
	return form, nil
}

// FetchForm returns the form with id or ErrNotFound.
func (s *Store) FetchForm(ctx context.Context, id int64) (schema.Form, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, slug, description, schema FROM forms WHERE id = ?`, id)
	form, err := scanForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Form{}, fmt.Errorf("store: form %d: %w", id, ErrNotFound)
	}
	return form, err
}

// Forms lists every form by id.
func (s *Store) Forms(ctx context.Context) ([]schema.Form, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug, description, schema FROM forms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list forms: %w", err)
	}
	defer rows.Close()

	var out []schema.Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, form)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (schema.Form, error) {
	var (
		form schema.Form
		raw  string
	)
	if err := row.Scan(&form.ID, &form.Name, &form.Slug, &form.Description, &raw); err != nil {
		return schema.Form{}, err
	}
	if err := json.Unmarshal([]byte(raw), &form.Sections); err != nil {
		return schema.Form{}, fmt.Errorf("store: decode form %d: %w", form.ID, err)
	}
	return form, nil
}

// AddSubmission stores one answer set for formID.
func (s *Store) AddSubmission(ctx context.Context, formID int64, data responses.Data, fileUpload string) (responses.Record, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forms WHERE id = ?`, formID).Scan(&exists); err != nil {
		return responses.Record{}, fmt.Errorf("store: add submission: %w", err)
	}
	if exists == 0 {
		return responses.Record{}, fmt.Errorf("store: form %d: %w", formID, ErrNotFound)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return responses.Record{}, fmt.Errorf("store: encode submission: %w", err)
	}
	created := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (form_id, data, file_upload, created_at) VALUES (?, ?, ?, ?)`,
		formID, string(raw), fileUpload, formatTime(created),
	)
	if err != nil {
		return responses.Record{}, fmt.Errorf("store: insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return responses.Record{}, fmt.Errorf("store: insert submission: %w", err)
	}
	return responses.Record{
		ID:         id,
		Form:       formID,
		Data:       data,
		FileUpload: fileUpload,
		CreatedAt:  created,
	}, nil
}

// FetchSubmissions returns every submission, newest first.
func (s *Store) FetchSubmissions(ctx context.Context) ([]responses.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, form_id, data, file_upload, created_at FROM submissions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list submissions: %w", err)
	}
	defer rows.Close()

	out := []responses.Record{}
	for rows.Next() {
		var (
			record  responses.Record
			raw     string
			created string
		)
		if err := rows.Scan(&record.ID, &record.Form, &raw, &record.FileUpload, &created); err != nil {
			return nil, fmt.Errorf("store: scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &record.Data); err != nil {
			return nil, fmt.Errorf("store: decode submission %d: %w", record.ID, err)
		}
		if record.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("store: decode submission %d: %w", record.ID, err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Stored times sort lexically; fixed-width nanoseconds keep that true.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
