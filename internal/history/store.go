package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

//go:embed schema.sql
var schemaSQL string

// currentSchemaVersion is stored in PRAGMA user_version.
const currentSchemaVersion = 1

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("history entry not found")

// Entry is one executed query.
type Entry struct {
	ID        string        `json:"id"         yaml:"id"`
	Server    string        `json:"server"     yaml:"server"`
	Graph     string        `json:"graph"      yaml:"graph"`
	Query     string        `json:"query"      yaml:"query"`
	Rows      int           `json:"rows"       yaml:"rows"`
	Pages     int           `json:"pages"      yaml:"pages"`
	Duration  time.Duration `json:"duration"   yaml:"duration"`
	Cached    bool          `json:"cached"     yaml:"cached"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// Failed reports whether the execution returned an error.
func (e Entry) Failed() bool { return e.Error != "" }

// Store is the history database.
type Store struct {
	db *sql.DB

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open creates or opens the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if pingErr := db.Ping(); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", pingErr)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, execErr)
		}
	}

	if _, execErr := db.Exec(schemaSQL); execErr != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", execErr)
	}
	if _, execErr := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); execErr != nil {
		db.Close()
		return nil, fmt.Errorf("setting schema version: %w", execErr)
	}

	return &Store{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) newID(t time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Record inserts e, assigning ID and CreatedAt when they are zero. It returns the
// stored entry.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = s.newID(e.CreatedAt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (id, server, graph, query, row_count, pages, duration_ms, cached, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Server, e.Graph, e.Query, e.Rows, e.Pages,
		e.Duration.Milliseconds(), e.Cached, e.Error, e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording query: %w", err)
	}
	return e, nil
}

const selectColumns = `SELECT id, server, graph, query, row_count, pages, duration_ms, cached, error, created_at FROM queries`

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := selectColumns + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return out, nil
}

// Get returns the entry with id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Clear deletes every entry and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queries`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}

// Prune keeps the newest keep entries and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM queries WHERE id NOT IN (
			SELECT id FROM queries ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e          Entry
		durationMS int64
		createdAt  string
	)
	if err := sc.Scan(&e.ID, &e.Server, &e.Graph, &e.Query, &e.Rows, &e.Pages,
		&durationMS, &e.Cached, &e.Error, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scanning history entry: %w", err)
	}
	e.Duration = time.Duration(durationMS) * time.Millisecond
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return e, nil
}
