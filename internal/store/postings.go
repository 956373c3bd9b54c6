package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// UpsertWord returns the id for a term, inserting it on first occurrence.
func (s *Store) UpsertWord(ctx context.Context, term string) (int64, error) {
	var id int64
	err := s.InTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		id, txErr = upsertWordTx(ctx, tx, term)
		return txErr
	})
	return id, err
}

func upsertWordTx(ctx context.Context, tx *sql.Tx, term string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO words (term) VALUES (?)", term); err != nil {
		return 0, fmt.Errorf("inserting word %q: %w", term, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM words WHERE term = ?", term).Scan(&id); err != nil {
		return 0, fmt.Errorf("looking up word %q: %w", term, err)
	}
	return id, nil
}

// UpsertPosting writes the posting row for (term, page), replacing any
// existing one. The word row is created in the same transaction; frequency
// is derived from the position list.
func (s *Store) UpsertPosting(ctx context.Context, term string, pageID int64, positions []int) error {
	return s.InTx(ctx, func(tx *sql.Tx) error {
		return upsertPostingTx(ctx, tx, term, pageID, positions)
	})
}

func upsertPostingTx(ctx context.Context, tx *sql.Tx, term string, pageID int64, positions []int) error {
	wordID, err := upsertWordTx(ctx, tx, term)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO postings (word_id, page_id, frequency, positions)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (word_id, page_id)
		DO UPDATE SET frequency = excluded.frequency, positions = excluded.positions`,
		wordID, pageID, len(positions), encodePositions(positions),
	)
	if err != nil {
		return fmt.Errorf("upserting posting (%q, %d): %w", term, pageID, err)
	}
	return nil
}

// SavePagePostings writes every (term, positions) group for one page inside
// a single transaction.
func (s *Store) SavePagePostings(ctx context.Context, pageID int64, groups map[string][]int) error {
	return s.InTx(ctx, func(tx *sql.Tx) error {
		for term, positions := range groups {
			if err := upsertPostingTx(ctx, tx, term, pageID, positions); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeletePostingsForPage removes every posting referencing a page, ahead of a
// re-index.
func (s *Store) DeletePostingsForPage(ctx context.Context, pageID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM postings WHERE page_id = ?", pageID); err != nil {
		return fmt.Errorf("deleting postings for page %d: %w", pageID, err)
	}
	return nil
}

// PagesForTerm returns the ids of pages whose postings contain term, sorted
// ascending.
func (s *Store) PagesForTerm(ctx context.Context, term string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.page_id
		FROM postings p JOIN words w ON w.id = p.word_id
		WHERE w.term = ?
		ORDER BY p.page_id`, term)
	if err != nil {
		return nil, fmt.Errorf("querying pages for term %q: %w", term, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning page id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages for term %q: %w", term, err)
	}
	return ids, nil
}

// LoadPostings streams every stored posting to fn, decoding the position
// list. Rows whose position list cannot be decoded are logged and skipped so
// one corrupt row never poisons a rebuild.
func (s *Store) LoadPostings(ctx context.Context, fn func(term string, pageID int64, positions []int)) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.term, p.page_id, p.positions
		FROM postings p JOIN words w ON w.id = p.word_id`)
	if err != nil {
		return fmt.Errorf("loading postings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var term, csv string
		var pageID int64
		if err := rows.Scan(&term, &pageID, &csv); err != nil {
			return fmt.Errorf("scanning posting: %w", err)
		}
		positions, err := decodePositions(csv)
		if err != nil {
			s.logger.Warn("skipping corrupt posting",
				"term", term, "page_id", pageID, "error", err)
			continue
		}
		fn(term, pageID, positions)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating postings: %w", err)
	}
	return nil
}

// CountWords returns the number of distinct terms stored.
func (s *Store) CountWords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM words").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting words: %w", err)
	}
	return n, nil
}

// TotalPostings returns the number of posting rows stored.
func (s *Store) TotalPostings(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM postings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting postings: %w", err)
	}
	return n, nil
}

// encodePositions serializes an ascending position list as comma-separated
// ASCII integers.
func encodePositions(positions []int) string {
	if len(positions) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range positions {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}

func decodePositions(csv string) ([]int, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	positions := make([]int, 0, len(parts))
	prev := -1
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad position %q: %w", part, err)
		}
		if n < 0 || n < prev {
			return nil, errors.New("positions not ascending non-negative")
		}
		positions = append(positions, n)
		prev = n
	}
	return positions, nil
}
