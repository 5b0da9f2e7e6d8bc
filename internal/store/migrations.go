package store

import (
	"fmt"
)

// migration is a single versioned schema change.
type migration struct {
	version int
	name    string
	up      func() error
}

// runMigrations applies every migration newer than the recorded version.
func (s *Store) runMigrations() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	migrations := []migration{
		{version: 1, name: "kv", up: s.migration001KV},
		{version: 2, name: "search_metrics", up: s.migration002SearchMetrics},
	}

	for _, m := range migrations {
		if current >= m.version {
			continue
		}
		if err := m.up(); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}
	return nil
}

func (s *Store) migration001KV() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

func (s *Store) migration002SearchMetrics() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS search_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			search_term TEXT NOT NULL UNIQUE,
			count INTEGER NOT NULL DEFAULT 1,
			movie_id INTEGER NOT NULL,
			poster_url TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create search_metrics table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_search_metrics_count
		ON search_metrics(count DESC)
	`); err != nil {
		return fmt.Errorf("failed to create search_metrics count index: %w", err)
	}
	return nil
}
