package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite is a Store backed by a single SQLite file.
type SQLite struct {
	db   *sql.DB
	lock *flock.Flock
}

// OpenSQLite opens the store at path. When the stored schema version is not
// version, every record is dropped and the new version recorded, so
// records written by another layout are never decoded.
func OpenSQLite(path string, version int) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	// One connection keeps writes serialized and makes ":memory:" usable.
	db.SetMaxOpenConns(1)

	if err := initSchema(db, version); err != nil {
		db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("init %s: %w", path, err)
	}

	return &SQLite{db: db, lock: lock}, nil
}

func initSchema(db *sql.DB, version int) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL
		);
	`)
	if err != nil {
		return err
	}

	var current int
	err = db.QueryRow(`SELECT version FROM schema_version WHERE id = 1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh file, or one created before versioning: start clean.
	case err != nil:
		return err
	case current == version:
		return nil
	}

	return withTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM records`); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT INTO schema_version (id, version) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET version = excluded.version
		`, version)
		return err
	})
}

// withTx executes fn within a transaction, committing only on success.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Version returns the schema version recorded in the file.
func (s *SQLite) Version() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT version FROM schema_version WHERE id = 1`).Scan(&v)
	return v, err
}

func (s *SQLite) Store(key string, data []byte, overwrite bool) error {
	query := `INSERT INTO records (key, data) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data`
	if !overwrite {
		query = `INSERT OR IGNORE INTO records (key, data) VALUES (?, ?)`
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(query, key, data)
	return err
}

func (s *SQLite) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE key = ?`, key)
	return err
}

func (s *SQLite) Load(decode DecodeFunc) error {
	rows, err := s.db.Query(`SELECT key, data FROM records ORDER BY key`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return err
		}
		if err := decode(key, data); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
	}
	return rows.Err()
}

// Close closes the database and releases the lock file.
func (s *SQLite) Close() error {
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
