// Package store persists pages, words, postings, and crawl sessions in an
// embedded SQLite database. A Store hands out connections from a bounded
// pool with blocking acquisition; every operation acquires one, executes,
// and releases it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"

	"github.com/aamir-001/web-crawler/pkg/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT UNIQUE NOT NULL,
	title TEXT,
	body TEXT,
	crawled_at INTEGER NOT NULL,
	word_count INTEGER NOT NULL DEFAULT 0,
	depth INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS words (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	term TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS postings (
	word_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
	page_id INTEGER NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	frequency INTEGER NOT NULL DEFAULT 1,
	positions TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (word_id, page_id)
);

CREATE TABLE IF NOT EXISTS crawl_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	seed TEXT NOT NULL,
	max_depth INTEGER NOT NULL,
	pages_crawled INTEGER NOT NULL DEFAULT 0,
	started_at INTEGER NOT NULL,
	ended_at INTEGER,
	status TEXT NOT NULL DEFAULT 'running'
);

CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
CREATE INDEX IF NOT EXISTS idx_words_term ON words(term);
CREATE INDEX IF NOT EXISTS idx_postings_word ON postings(word_id);
CREATE INDEX IF NOT EXISTS idx_postings_page ON postings(page_id);
`

// Store wraps the SQLite handle pool and schema.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at cfg.Path, applies the
// schema, and configures the connection pool. Callers block on handle
// acquisition when all cfg.PoolSize connections are busy.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.PoolSize)
	db.SetMaxIdleConns(cfg.PoolSize)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "store"),
	}
	s.logger.Info("database opened", "path", cfg.Path, "pool_size", cfg.PoolSize)
	return s, nil
}

// Close releases all pooled connections.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies a connection can be acquired.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InTx runs fn inside a transaction, committing on success and rolling back
// on error.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ClearAll deletes every row from every table.
func (s *Store) ClearAll(ctx context.Context) error {
	s.logger.Warn("clearing all data")
	return s.InTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"postings", "words", "pages", "crawl_sessions"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}
