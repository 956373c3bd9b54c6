package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/aamir-001/web-crawler/pkg/errors"
)

// InsertPage stores a new page and returns its assigned id. Inserting a URL
// that already exists returns ErrURLExists.
func (s *Store) InsertPage(ctx context.Context, p *Page) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (url, title, body, crawled_at, word_count, depth)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.URL, p.Title, p.Body, p.CrawledAt.Unix(), p.WordCount, p.Depth,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("inserting page %s: %w", p.URL, apperrors.ErrURLExists)
		}
		return 0, fmt.Errorf("inserting page %s: %w", p.URL, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted page id: %w", err)
	}
	p.ID = id
	return id, nil
}

// GetPageByID fetches one page, returning ErrPageNotFound on a miss.
func (s *Store) GetPageByID(ctx context.Context, id int64) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, body, crawled_at, word_count, depth
		FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// GetPageByURL fetches one page by canonical URL, returning ErrPageNotFound
// on a miss.
func (s *Store) GetPageByURL(ctx context.Context, url string) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, title, body, crawled_at, word_count, depth
		FROM pages WHERE url = ?`, url)
	return scanPage(row)
}

// ListPages returns every stored page ordered by id.
func (s *Store) ListPages(ctx context.Context) ([]*Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, body, crawled_at, word_count, depth
		FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		p, err := scanPageRows(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}
	return pages, nil
}

// CountPages returns the number of stored pages.
func (s *Store) CountPages(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}

// UpdatePageWordCount records the number of indexed tokens for a page.
func (s *Store) UpdatePageWordCount(ctx context.Context, id int64, n int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE pages SET word_count = ? WHERE id = ?", n, id)
	if err != nil {
		return fmt.Errorf("updating word count for page %d: %w", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("updating word count for page %d: %w", id, apperrors.ErrPageNotFound)
	}
	return nil
}

// DeletePage removes a page; its postings go with it via the foreign-key
// cascade.
func (s *Store) DeletePage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pages WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting page %d: %w", id, err)
	}
	return nil
}

func scanPage(row *sql.Row) (*Page, error) {
	var p Page
	var crawledAt int64
	err := row.Scan(&p.ID, &p.URL, &p.Title, &p.Body, &crawledAt, &p.WordCount, &p.Depth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	p.CrawledAt = time.Unix(crawledAt, 0)
	return &p, nil
}

func scanPageRows(rows *sql.Rows) (*Page, error) {
	var p Page
	var crawledAt int64
	if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.Body, &crawledAt, &p.WordCount, &p.Depth); err != nil {
		return nil, fmt.Errorf("scanning page: %w", err)
	}
	p.CrawledAt = time.Unix(crawledAt, 0)
	return &p, nil
}

// isUniqueViolation matches SQLite's unique-constraint error text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
