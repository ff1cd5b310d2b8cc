// Package sqlite implements the local-file garment snapshot store used by the CLI.
// It plays the role browser local storage had: one JSON snapshot per owner,
// rewritten after every mutation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS garment_snapshots (
	owner_id   TEXT PRIMARY KEY,
	payload    TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Compile-time check that Store implements garment.SnapshotStore.
var _ garment.SnapshotStore = (*Store)(nil)

// Store implements garment.SnapshotStore on a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create data dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// Single writer; also keeps one shared connection for ":memory:".
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Load implements garment.Store.
func (s *Store) Load(ctx context.Context, owner garment.OwnerID) ([]garment.Garment, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM garment_snapshots WHERE owner_id = ?`, string(owner),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []garment.Garment{}, nil
		}
		return nil, shared.WrapError("store", "Load", shared.ErrStoreUnavailable, "sqlite read failed", err)
	}
	return garment.DecodeSnapshot([]byte(payload))
}

// Save implements garment.Store.
func (s *Store) Save(ctx context.Context, owner garment.OwnerID, garments []garment.Garment) error {
	payload, err := garment.EncodeSnapshot(garments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO garment_snapshots (owner_id, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(owner_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(owner), string(payload))
	if err != nil {
		return shared.WrapError("store", "Save", shared.ErrStoreUnavailable, "sqlite write failed", err)
	}
	return nil
}

// Owners implements garment.OwnerLister.
func (s *Store) Owners(ctx context.Context) ([]garment.OwnerID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner_id FROM garment_snapshots ORDER BY owner_id`)
	if err != nil {
		return nil, shared.WrapError("store", "Owners", shared.ErrStoreUnavailable, "sqlite read failed", err)
	}
	defer rows.Close()

	var owners []garment.OwnerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan owner: %w", err)
		}
		owners = append(owners, garment.OwnerID(id))
	}
	return owners, rows.Err()
}

// PutRaw writes an arbitrary payload for owner. Used to repair or inspect data.
func (s *Store) PutRaw(ctx context.Context, owner garment.OwnerID, payload string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO garment_snapshots (owner_id, payload) VALUES (?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET payload = excluded.payload
	`, string(owner), payload)
	return err
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
