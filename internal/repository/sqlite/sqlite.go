// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB owns the sql.DB connection pool and the schema. The repository
// interfaces are implemented by the UserStore and JokeStore views returned
// from Users and Jokes; both interfaces name a Create and a GetByID, so they
// cannot live on one receiver.
type DB struct {
	conn *sql.DB
}

// New opens a SQLite database at dbPath (":memory:" for tests) and runs the
// schema migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open only creates the pool; Ping forces a real connection so a bad
	// path or permission problem surfaces here rather than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows readers to proceed while a write is in flight, which
	// matters for a web server hitting the same file from many requests.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. jokes.jokester_id references
	// users.id, so turn enforcement on.
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

// Users returns the user repository view over the shared pool.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Jokes returns the joke repository view over the shared pool.
func (db *DB) Jokes() *JokeStore {
	return &JokeStore{conn: db.conn}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so it is safe to run on every startup.
//
// The UNIQUE constraint on users.username is load-bearing: it is the final
// authority on duplicate usernames. Application-level existence checks are
// only a UX nicety and can race.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS jokes (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			content     TEXT NOT NULL DEFAULT '',
			jokester_id TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_jokes_created_at ON jokes(created_at);
		CREATE INDEX IF NOT EXISTS idx_jokes_jokester_id ON jokes(jokester_id);
	`)
	if err != nil {
		return fmt.Errorf("creating jokes table: %w", err)
	}

	return nil
}
