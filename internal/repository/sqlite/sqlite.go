// Package sqlite implements repository.UserRepository on an embedded SQLite
// database (modernc.org/sqlite, pure Go, no cgo).
//
// Use ":memory:" as the path for a throwaway database in tests.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB owns the connection pool. Repositories are obtained from it
// (see Users) and share its lifecycle.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath, applies pragmas and creates the schema,
// including the unique index the user store relies on.
//
// For file databases the pragmas go in the DSN so that every pooled
// connection gets them, not just the first one.
func New(dbPath string) (*DB, error) {
	dsn := dbPath
	if dbPath != memoryPath {
		dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the user store backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// migrate is idempotent; it runs on every New.
//
// phone_number is NOT NULL DEFAULT '' on purpose: SQL treats NULLs as
// distinct in a unique index, and two phone-less accounts with the same email
// must still collide.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL,
			name          TEXT NOT NULL,
			display_name  TEXT NOT NULL DEFAULT '',
			photo_url     TEXT NOT NULL DEFAULT '',
			phone_number  TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_phone ON users(email, phone_number);
	`)
	if err != nil {
		return fmt.Errorf("creating users unique index: %w", err)
	}

	return nil
}
