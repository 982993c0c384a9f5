// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
//
// sql.DB is a bounded connection pool, not a single connection: each
// request-scoped query acquires a connection from the pool and releases it
// when the rows are closed. There is no ambient shared handle to fight over.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// It implements repository.UserRepository, SessionRepository and
// ProfileRepository; the server owns its lifecycle (New creates, Close
// releases the file lock and flushes the WAL).
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/medora.db" → file-based, persistent
//   - ":memory:"       → in-memory, lost on close (used by tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One pooled connection, for two reasons: the PRAGMAs below are
	// per-connection (a second pooled connection would run without
	// foreign keys, silently skipping the delete cascades), and an
	// in-memory database exists per connection (a second one would be a
	// different, empty database). SQLite serializes writers regardless,
	// so this costs little; requests queue on the pool for the
	// connection and their context deadline bounds the wait.
	conn.SetMaxOpenConns(1)

	// Ping forces a real connection now, so a bad path or permissions
	// problem surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode: writes go to a separate log instead of locking the main
	// database file, which keeps commits cheap and recovery clean.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The sessions and profiles
	// tables rely on ON DELETE CASCADE, so they must be on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the store is reachable. Used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every startup.
//
// Email uniqueness lives here as a constraint, not in application code:
// the race between "check if the email exists" and "insert it" cannot be
// closed any other way.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token_id  TEXT NOT NULL,
			token     TEXT NOT NULL,
			issued_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id            INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			full_name          TEXT NOT NULL DEFAULT '',
			dob                TEXT NOT NULL DEFAULT '',
			gender             TEXT NOT NULL DEFAULT '',
			height             TEXT NOT NULL DEFAULT '',
			weight             TEXT NOT NULL DEFAULT '',
			blood_type         TEXT NOT NULL DEFAULT '',
			primary_goal       TEXT NOT NULL DEFAULT '',
			activity_level     TEXT NOT NULL DEFAULT '',
			medical_conditions TEXT NOT NULL DEFAULT '',
			emergency_name     TEXT NOT NULL DEFAULT '',
			emergency_phone    TEXT NOT NULL DEFAULT '',
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint
// failure. modernc.org/sqlite surfaces it as a generic error, so we match
// on the stable constraint message.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// isForeignKeyViolation reports whether err is a foreign-key failure —
// in this schema, a write referencing a user row that no longer exists.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
