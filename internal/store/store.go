// Package store is the sqlite repository behind the bot. Every table is a
// small key-value mapping keyed by a snowflake; statement-level atomicity is
// all callers may assume (no cross-call transactions).
package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const busyRetries = 5

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
		channel_id INTEGER PRIMARY KEY,
		opener_id  INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS prompts (
		channel_id        INTEGER PRIMARY KEY,
		prompt_message_id INTEGER NOT NULL,
		created_at        INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS private_setup (
		channel_id INTEGER PRIMARY KEY,
		message_id INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS ignored_users (
		user_id  INTEGER PRIMARY KEY,
		added_by INTEGER NOT NULL,
		added_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS invite_logs (
		invite_code  TEXT PRIMARY KEY,
		user_id      INTEGER NOT NULL,
		moderator_id INTEGER NOT NULL,
		channel_id   INTEGER NOT NULL,
		created_at   INTEGER NOT NULL,
		expires_at   INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id         INTEGER PRIMARY KEY,
		event_channel_id INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS events (
		message_id       INTEGER PRIMARY KEY,
		guild_id         INTEGER NOT NULL,
		channel_id       INTEGER NOT NULL,
		created_by       INTEGER NOT NULL,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL,
		max_participants INTEGER,
		start_at         INTEGER NOT NULL,
		end_at           INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS event_responses (
		message_id INTEGER NOT NULL,
		user_id    INTEGER NOT NULL,
		status     TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (message_id, user_id)
	);`,
}

// Store owns the single database handle. Safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite misbehaves with concurrent writers on one file;
	// serialize through a single connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func now() int64 {
	return time.Now().Unix()
}

// exec retries on "database is locked", which sqlite surfaces under write
// contention even with a single process.
func (s *Store) exec(query string, args ...any) error {
	var lastErr error
	for i := 0; i < busyRetries; i++ {
		_, err := s.db.Exec(query, args...)
		if err == nil {
			return nil
		}
		lastErr = err
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return lastErr
}

// getInt64 runs a single-value query; ok is false when no row matched.
func (s *Store) getInt64(query string, args ...any) (int64, bool, error) {
	var v int64
	err := s.db.Get(&v, query, args...)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
