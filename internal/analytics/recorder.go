// Package analytics records which searches are popular and serves the
// trending list built from those counts.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/onllm-dev/reelwatch/internal/api"
)

// DefaultTrendingLimit is how many entries the trending list shows.
const DefaultTrendingLimit = 5

// TrendingEntry is one popular search with its representative movie.
type TrendingEntry struct {
	SearchTerm string
	Count      int
	MovieID    int64
	PosterURL  string
	UpdatedAt  time.Time
}

// Recorder is the analytics store contract.
type Recorder interface {
	// RecordQuery counts one occurrence of query, keeping movie as the
	// representative result the first time the query is seen.
	RecordQuery(ctx context.Context, query string, movie api.Movie) error

	// ListTrending returns the most-counted queries, highest first.
	ListTrending(ctx context.Context, limit int) ([]TrendingEntry, error)
}

// dialect captures the SQL differences between SQLite and PostgreSQL.
type dialect struct {
	name   string
	upsert string
	list   string
}

var sqliteDialect = dialect{
	name: "sqlite",
	upsert: `
		INSERT INTO search_metrics (search_term, count, movie_id, poster_url, updated_at)
		VALUES (?, 1, ?, ?, datetime('now'))
		ON CONFLICT(search_term) DO UPDATE SET
			count = search_metrics.count + 1,
			updated_at = datetime('now')
	`,
	list: `
		SELECT search_term, count, movie_id, poster_url, updated_at
		FROM search_metrics
		ORDER BY count DESC, updated_at DESC
		LIMIT ?
	`,
}

var postgresDialect = dialect{
	name: "postgres",
	upsert: `
		INSERT INTO search_metrics (search_term, count, movie_id, poster_url, updated_at)
		VALUES ($1, 1, $2, $3, NOW())
		ON CONFLICT (search_term) DO UPDATE SET
			count = search_metrics.count + 1,
			updated_at = NOW()
	`,
	list: `
		SELECT search_term, count, movie_id, poster_url, updated_at
		FROM search_metrics
		ORDER BY count DESC, updated_at DESC
		LIMIT $1
	`,
}

// SQLRecorder implements Recorder over database/sql.
type SQLRecorder struct {
	db      *sql.DB
	dialect dialect
	owned   bool
	logger  *slog.Logger
}

// NewSQLiteRecorder records into the search_metrics table of an already
// migrated reelwatch store database. The recorder does not own db.
func NewSQLiteRecorder(db *sql.DB, logger *slog.Logger) *SQLRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLRecorder{db: db, dialect: sqliteDialect, logger: logger}
}

// OpenPostgres connects to a PostgreSQL analytics database through the pgx
// driver and creates the search_metrics table if needed.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*SQLRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("analytics: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("analytics: ping postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_metrics (
			id SERIAL PRIMARY KEY,
			search_term TEXT UNIQUE NOT NULL,
			count INTEGER NOT NULL DEFAULT 1,
			movie_id BIGINT NOT NULL,
			poster_url TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("analytics: create search_metrics: %w", err)
	}

	return &SQLRecorder{db: db, dialect: postgresDialect, owned: true, logger: logger}, nil
}

// IsPostgresDSN reports whether dsn names a PostgreSQL database.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// RecordQuery implements Recorder.
func (r *SQLRecorder) RecordQuery(ctx context.Context, query string, movie api.Movie) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.upsert, query, movie.ID, movie.PosterURL()); err != nil {
		return fmt.Errorf("analytics: record %q: %w", query, err)
	}
	r.logger.Debug("Search recorded", "backend", r.dialect.name, "query", query, "movie_id", movie.ID)
	return nil
}

// ListTrending implements Recorder.
func (r *SQLRecorder) ListTrending(ctx context.Context, limit int) ([]TrendingEntry, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.list, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: list trending: %w", err)
	}
	defer rows.Close()

	var entries []TrendingEntry
	for rows.Next() {
		var e TrendingEntry
		var updated any
		if err := rows.Scan(&e.SearchTerm, &e.Count, &e.MovieID, &e.PosterURL, &updated); err != nil {
			return nil, fmt.Errorf("analytics: scan trending: %w", err)
		}
		e.UpdatedAt = parseTimestamp(updated)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: iterate trending: %w", err)
	}
	return entries, nil
}

// Close releases the connection pool when the recorder opened it.
func (r *SQLRecorder) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}

// parseTimestamp accepts SQLite's TEXT timestamps and PostgreSQL's native ones.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.DateTime, t); err == nil {
			return parsed
		}
	case []byte:
		if parsed, err := time.Parse(time.DateTime, string(t)); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
