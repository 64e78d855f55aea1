// Package sqlite stores snapshots in a single-row SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/pikodb/persistence"
)

// Compile-time checks to ensure Adapter satisfies the adapter interfaces.
var (
	_ persistence.Adapter = (*Adapter)(nil)
	_ io.Closer           = (*Adapter)(nil)
)

const schema = `
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data BLOB NOT NULL,
		saved_at INTEGER NOT NULL
	);
`

// Options configures an Adapter.
type Options struct {
	// Format selects codec and compression for new snapshots.
	Format persistence.Format
}

// Adapter persists snapshots into a SQLite database file.
type Adapter struct {
	db   *sql.DB
	path string
	opts Options
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(ctx context.Context, path string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := Options{Format: persistence.DefaultFormat}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &persistence.FileOperationError{Op: "open", Path: path, Err: err}
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	a := &Adapter{db: db, path: path, opts: opts}
	if err := a.init(ctx); err != nil {
		_ = db.Close()
		return nil, &persistence.FileOperationError{Op: "open", Path: path, Err: err}
	}

	return a, nil
}

func (a *Adapter) init(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	}
	for _, p := range pragmas {
		if _, err := a.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("pragma failed: %w", err)
		}
	}

	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// Path returns the database path.
func (a *Adapter) Path() string { return a.path }

// Save replaces the stored snapshot in one transaction.
func (a *Adapter) Save(ctx context.Context, state *persistence.State) error {
	data, err := a.opts.Format.Encode(state)
	if err != nil {
		return err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return &persistence.FileOperationError{Op: "begin", Path: a.path, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, data, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		data, time.Now().UnixMilli(),
	); err != nil {
		return &persistence.FileOperationError{Op: "write", Path: a.path, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &persistence.FileOperationError{Op: "commit", Path: a.path, Err: err}
	}
	return nil
}

// Load reads and decodes the stored snapshot.
func (a *Adapter) Load(ctx context.Context) (*persistence.State, error) {
	var data []byte
	err := a.db.QueryRowContext(ctx, "SELECT data FROM snapshot WHERE id = 1").Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &persistence.FileOperationError{Op: "read", Path: a.path, Err: errors.Join(persistence.ErrSnapshotNotFound, err)}
		}
		return nil, &persistence.FileOperationError{Op: "read", Path: a.path, Err: err}
	}

	return persistence.Decode(data)
}

// SavedAt returns the time of the last successful save.
func (a *Adapter) SavedAt(ctx context.Context) (time.Time, error) {
	var ms int64
	err := a.db.QueryRowContext(ctx, "SELECT saved_at FROM snapshot WHERE id = 1").Scan(&ms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, persistence.ErrSnapshotNotFound
		}
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// Close closes the database.
func (a *Adapter) Close() error {
	return a.db.Close()
}
