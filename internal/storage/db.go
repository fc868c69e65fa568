// Package storage translates ledger operations into SQLite queries and back.
//
// A single *DB is constructed at startup and injected into the stores; the
// sql.DB pool inside it is the connection provider: every operation checks a
// connection out of the pool and returns it before the operation completes.
// No transaction ever spans two store operations.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection pool shared by the stores.
type DB struct {
	*sql.DB
	path string
}

// Open opens the SQLite database at path, creating parent directories as
// needed, and brings the schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: db, path: path}, nil
}

// Path returns the filesystem path the database was opened with.
func (db *DB) Path() string {
	return db.path
}
