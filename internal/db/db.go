// Package db provides database connection management and operations.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xo/dburl"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// DB wraps the sql.DB with topic engine configuration.
type DB struct {
	*sql.DB
}

// ResolveDSN turns a configured database location into a driver DSN.
// Accepted forms are ":memory:", a bare file path, or a URL understood by
// dburl with an SQLite scheme (sqlite:, sqlite3:, file:).
func ResolveDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("database DSN is empty")
	}
	if dsn == ":memory:" || !strings.Contains(dsn, ":") {
		return dsn, nil
	}

	u, err := dburl.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("could not parse database url: %w", err)
	}
	switch u.Driver {
	case "sqlite3", "sqlite", "moderncsqlite":
	default:
		return "", fmt.Errorf("unsupported database driver %q", u.Driver)
	}
	return u.DSN, nil
}

// Open opens an SQLite database. The database is opened with:
// - a single connection, so transactions are serialized
// - WAL mode for file databases
// - Foreign key constraints enabled
func Open(dsn string) (*DB, error) {
	resolved, err := ResolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	inMemory := resolved == ":memory:" || strings.Contains(resolved, "mode=memory")
	if !inMemory {
		path := resolved
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		path = strings.TrimPrefix(path, "file:")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open(DriverName, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{"PRAGMA foreign_keys=ON;", "PRAGMA busy_timeout=5000;"}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL;")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &DB{db}, nil
}

// OpenAndMigrate opens the database and applies the embedded schema.
func OpenAndMigrate(dsn string) (*DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := NewEmbeddedMigrator(db.DB).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}
