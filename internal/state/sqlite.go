package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps blobs in a local database file.
type SQLiteStore struct {
	path    string
	readDB  *sql.DB
	writeDB *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &SQLiteStore{path: dbPath, readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			handle     TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Name() string { return "sqlite:" + s.path }

func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (s *SQLiteStore) Load(ctx context.Context, handle string) ([]byte, error) {
	var data []byte
	err := s.readDB.QueryRowContext(ctx, "SELECT data FROM blobs WHERE handle = ?", handle).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", handle, err)
	}
	return data, nil
}

func (s *SQLiteStore) Save(ctx context.Context, handle string, data []byte) error {
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO blobs (handle, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(handle) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, handle, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving %s: %w", handle, err)
	}
	return nil
}

// Stats returns the number of stored blobs and the database file size.
func (s *SQLiteStore) Stats() (int, int64, error) {
	var count int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM blobs").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting blobs: %w", err)
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}
