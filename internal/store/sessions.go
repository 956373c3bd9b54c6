package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSession opens a new crawl session record with status running.
func (s *Store) CreateSession(ctx context.Context, seed string, maxDepth int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO crawl_sessions (seed, max_depth, started_at, status)
		VALUES (?, ?, ?, ?)`,
		seed, maxDepth, time.Now().Unix(), SessionRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("creating crawl session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading session id: %w", err)
	}
	return id, nil
}

// UpdateSession records crawl progress and, when endedAt is non-nil, the
// terminal state of a session.
func (s *Store) UpdateSession(ctx context.Context, id int64, pagesCrawled int, endedAt *time.Time, status string) error {
	var ended any
	if endedAt != nil {
		ended = endedAt.Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE crawl_sessions
		SET pages_crawled = ?, ended_at = ?, status = ?
		WHERE id = ?`,
		pagesCrawled, ended, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating crawl session %d: %w", id, err)
	}
	return nil
}

// GetSession fetches one session record.
func (s *Store) GetSession(ctx context.Context, id int64) (*CrawlSession, error) {
	var cs CrawlSession
	var started int64
	var ended sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seed, max_depth, pages_crawled, started_at, ended_at, status
		FROM crawl_sessions WHERE id = ?`, id,
	).Scan(&cs.ID, &cs.Seed, &cs.MaxDepth, &cs.PagesCrawled, &started, &ended, &cs.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("crawl session %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching crawl session %d: %w", id, err)
	}
	cs.StartedAt = time.Unix(started, 0)
	if ended.Valid {
		t := time.Unix(ended.Int64, 0)
		cs.EndedAt = &t
	}
	return &cs, nil
}
