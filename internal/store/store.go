// Package store provides SQLite-backed persistence for reelwatch: a small
// key/value table for quota ledgers and the dedup registry, plus the
// popular-search metrics table used by the SQLite analytics recorder.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// KV is the persisted key/value contract used by the quota ledger and the
// dedup registry.
type KV interface {
	// Get returns the stored value for key. found is false when the key
	// has never been written.
	Get(key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error
}

// ErrClosed is returned by Get and Set after Close.
var ErrClosed = errors.New("store: closed")

// Store is a SQLite database holding the key/value table and search metrics.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the SQLite database at path and runs migrations.
// Use ":memory:" for an ephemeral database.
func New(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	// An in-memory database exists per connection; pin the pool to one.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrations: %w", err)
	}
	return s, nil
}

// DB exposes the underlying handle for recorders that share the database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// handle returns the open database, or ErrClosed.
func (s *Store) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Get implements KV.
func (s *Store) Get(key string) ([]byte, bool, error) {
	db, err := s.handle()
	if err != nil {
		return nil, false, err
	}
	var value []byte
	err = db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements KV.
func (s *Store) Set(key string, value []byte) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("store: set %q: %w", key, err)
	}
	return nil
}
