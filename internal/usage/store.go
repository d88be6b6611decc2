// Package usage persists per-model load and inference accounting in SQLite.
package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ncnnd/pkg/types"
)

// tsLayout has fixed width so stored timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("usage: store closed")

// Record is the accumulated usage of one model.
type Record struct {
	ModelID      string
	Loads        int64
	Inferences   int64
	TotalInferMS int64
	LastLoadedAt time.Time
	LastUsedAt   time.Time
}

// Store is a SQLite-backed usage store. A Store opened with an empty path
// records nothing and reports no rows.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open opens (creating if needed) the database at path. The parent
// directory is created when missing.
func Open(path string) (*Store, error) {
	if path == "" {
		return &Store{}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("usage: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("usage: open %s: %w", path, err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createUsage); err != nil {
		db.Close()
		return nil, fmt.Errorf("usage: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.db, nil
}

// RecordLoad counts one successful load of modelID.
func (s *Store) RecordLoad(ctx context.Context, modelID string, at time.Time) error {
	db, err := s.conn()
	if err != nil || db == nil {
		return err
	}
	ts := at.UTC().Format(tsLayout)
	if _, err := db.ExecContext(ctx, upsertLoad, modelID, ts, ts); err != nil {
		return fmt.Errorf("usage: record load %s: %w", modelID, err)
	}
	return nil
}

// RecordInference counts one completed inference of modelID taking dur.
func (s *Store) RecordInference(ctx context.Context, modelID string, dur time.Duration, at time.Time) error {
	db, err := s.conn()
	if err != nil || db == nil {
		return err
	}
	ts := at.UTC().Format(tsLayout)
	if _, err := db.ExecContext(ctx, upsertInference, modelID, dur.Milliseconds(), ts); err != nil {
		return fmt.Errorf("usage: record inference %s: %w", modelID, err)
	}
	return nil
}

// Get returns the usage of modelID. ok is false when nothing was recorded.
func (s *Store) Get(ctx context.Context, modelID string) (rec Record, ok bool, err error) {
	db, err := s.conn()
	if err != nil || db == nil {
		return Record{}, false, err
	}
	row := db.QueryRowContext(ctx, selectColumns+` WHERE model_id = ?`, modelID)
	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("usage: get %s: %w", modelID, err)
	}
	return rec, true, nil
}

// All returns every record, most recently used first.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	db, err := s.conn()
	if err != nil || db == nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectColumns+` ORDER BY last_used_at DESC, model_id`)
	if err != nil {
		return nil, fmt.Errorf("usage: list: %w", err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("usage: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Usage returns All as API records.
func (s *Store) Usage(ctx context.Context) ([]types.ModelUsage, error) {
	recs, err := s.All(ctx)
	if err != nil || recs == nil {
		return nil, err
	}
	out := make([]types.ModelUsage, len(recs))
	for i, r := range recs {
		out[i] = types.ModelUsage{
			ModelID:      r.ModelID,
			Loads:        r.Loads,
			Inferences:   r.Inferences,
			TotalInferMS: r.TotalInferMS,
			LastLoaded:   unixOrZero(r.LastLoadedAt),
			LastUsed:     unixOrZero(r.LastUsedAt),
		}
	}
	return out, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// Close closes the database. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec            Record
		loaded, usedAt sql.NullString
	)
	if err := sc.Scan(&rec.ModelID, &rec.Loads, &rec.Inferences, &rec.TotalInferMS, &loaded, &usedAt); err != nil {
		return Record{}, err
	}
	rec.LastLoadedAt = parseTime(loaded)
	rec.LastUsedAt = parseTime(usedAt)
	return rec, nil
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(tsLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
