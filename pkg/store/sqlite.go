package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("record not found")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Batch workers share one writer.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// NewRunID returns a ULID. Safe for concurrent use.
func (s *SQLiteStore) NewRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id          TEXT PRIMARY KEY,
		run_id      TEXT,
		kind        TEXT NOT NULL,
		job         TEXT,
		success     INTEGER NOT NULL,
		message     TEXT NOT NULL,
		filename    TEXT,
		units       TEXT,
		fields      TEXT,
		warnings    INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_kind ON results(kind);
	CREATE INDEX IF NOT EXISTS idx_results_created ON results(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Put(ctx context.Context, r Record) (*Record, error) {
	r.ID = s.NewRunID()
	r.CreatedAt = time.Now().UTC()

	var fieldsJSON *string
	if len(r.Fields) > 0 {
		b, err := json.Marshal(r.Fields)
		if err != nil {
			return nil, fmt.Errorf("marshal fields: %w", err)
		}
		f := string(b)
		fieldsJSON = &f
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, run_id, kind, job, success, message, filename, units, fields, warnings, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullable(r.RunID), r.Kind, nullable(r.Job), r.Success, r.Message,
		nullable(r.Filename), nullable(r.Units), fieldsJSON, r.Warnings,
		r.Duration.Milliseconds(), r.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM results WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]Record, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if p.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, p.RunID)
	}
	if p.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, p.Kind)
	}
	if p.FailedOnly {
		where = append(where, "success = 0")
	}

	query := fmt.Sprintf(`SELECT %s FROM results WHERE %s ORDER BY created_at DESC, id DESC LIMIT ?`,
		columns, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, COUNT(*), SUM(success), SUM(warnings), MIN(created_at)
		 FROM results WHERE run_id IS NOT NULL
		 GROUP BY run_id ORDER BY MIN(created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var rs RunSummary
		var started string
		if err := rows.Scan(&rs.RunID, &rs.Total, &rs.Succeeded, &rs.Warnings, &started); err != nil {
			return nil, err
		}
		rs.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const columns = `id, run_id, kind, job, success, message, filename, units, fields, warnings, duration_ms, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (Record, error) {
	var r Record
	var runID, job, filename, units, fields sql.NullString
	var durationMS int64
	var created string
	if err := sc.Scan(&r.ID, &runID, &r.Kind, &job, &r.Success, &r.Message,
		&filename, &units, &fields, &r.Warnings, &durationMS, &created); err != nil {
		return Record{}, err
	}
	r.RunID = runID.String
	r.Job = job.String
	r.Filename = filename.String
	r.Units = units.String
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	if fields.Valid {
		if err := json.Unmarshal([]byte(fields.String), &r.Fields); err != nil {
			return Record{}, fmt.Errorf("decode fields of %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
