// Package store provides SQLite persistence for users, tasks, and
// conversations. Every task and conversation query is scoped by the
// owning user id; callers pass the authenticated identity explicitly
// and the store never returns another owner's rows.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a scoped lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrValidation wraps input-shape failures (bad title length, etc.)
// so callers can distinguish them from storage faults.
var ErrValidation = errors.New("validation error")

// Title length bounds for tasks.
const (
	TitleMinLen = 1
	TitleMaxLen = 200
)

// Store persists all taskchat state in a single SQLite database.
// The *sql.DB is injected so production code can use the CGO driver
// while tests use a pure-Go in-memory database.
type Store struct {
	db *sql.DB
}

// New creates a store on db, running migrations on first use.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Open opens the SQLite database at path with WAL journaling and
// creates the schema. driverName is "sqlite3" (mattn) in production.
func Open(driverName, path string) (*Store, error) {
	db, err := sql.Open(driverName, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT,
		completed   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);

	-- One conversation per user. The UNIQUE constraint makes concurrent
	-- lookup-or-create race-safe: both racers INSERT OR IGNORE, then
	-- both read back the same surviving row.
	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role            TEXT NOT NULL,
		content         TEXT NOT NULL,
		tool_call_id    TEXT,
		tool_name       TEXT,
		tool_args       TEXT,
		created_at      TIMESTAMP NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// newID returns a fresh UUIDv7 string. V7 ids are time-ordered, which
// keeps primary-key inserts append-mostly.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}
