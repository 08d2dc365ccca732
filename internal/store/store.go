package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version. Bump it together with
// schema.sql and add an upgrade step to initSchema.
const schemaVersion = 1

// ErrSchemaTooNew is returned by Open for a history file written by a newer
// reqlgate.
var ErrSchemaTooNew = errors.New("history schema is newer than this build")

// connPragmas configure every connection: WAL so history can be read while
// a call is being recorded, and a busy timeout for concurrent CLI runs.
var connPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// Store is the SQLite execution history.
type Store struct {
	db *sql.DB
}

// Open opens the history file at path, creating it and its schema on first
// use.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// One connection: pragmas apply per connection and SQLite has one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func initDB(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return err
	}
	for _, pragma := range connPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return initSchema(db)
}

// initSchema creates missing tables and indexes and stamps the version.
// A file from a newer build is left untouched.
func initSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: version %d, supported %d", ErrSchemaTooNew, version, schemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
