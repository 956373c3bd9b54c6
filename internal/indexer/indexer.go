// Package indexer pipes stored pages through the analyzer and populates
// both sides of the index: the in-memory posting lists and their durable
// mirror in the store. All index mutation goes through here; writing one
// side directly would let the two representations drift.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aamir-001/web-crawler/internal/analyzer"
	"github.com/aamir-001/web-crawler/internal/index"
	"github.com/aamir-001/web-crawler/internal/store"
	"github.com/aamir-001/web-crawler/pkg/metrics"
)

// ProgressListener is invoked after each page is indexed.
type ProgressListener func(pageID int64, url string, wordCount int)

// Stats summarizes indexing work done by this Indexer instance.
type Stats struct {
	PagesIndexed     int
	WordsIndexed     int
	UniqueTerms      int
	TotalOccurrences int64
}

func (s Stats) String() string {
	return fmt.Sprintf("pages indexed: %d, words indexed: %d, unique terms: %d, total occurrences: %d",
		s.PagesIndexed, s.WordsIndexed, s.UniqueTerms, s.TotalOccurrences)
}

type Indexer struct {
	store    *store.Store
	analyzer *analyzer.Analyzer
	index    *index.InvertedIndex
	metrics  *metrics.Metrics
	logger   *slog.Logger

	pagesIndexed atomic.Int64
	wordsIndexed atomic.Int64
	listener     ProgressListener
}

func New(st *store.Store, an *analyzer.Analyzer, idx *index.InvertedIndex) *Indexer {
	return &Indexer{
		store:    st,
		analyzer: an,
		index:    idx,
		logger:   slog.Default().With("component", "indexer"),
	}
}

// SetListener registers the progress callback.
func (ix *Indexer) SetListener(l ProgressListener) {
	ix.listener = l
}

// SetMetrics attaches Prometheus collectors.
func (ix *Indexer) SetMetrics(m *metrics.Metrics) {
	ix.metrics = m
}

// Index returns the in-memory index this Indexer feeds.
func (ix *Indexer) Index() *index.InvertedIndex {
	return ix.index
}

// IndexPage analyzes one page and writes its postings to the memory index
// and, grouped per term in a single transaction, to the store. The page's
// word count is set to the number of tokens surviving stop-word filtering.
func (ix *Indexer) IndexPage(ctx context.Context, page *store.Page) error {
	text := page.Title + " " + page.Body
	tokens := ix.analyzer.Analyze(text)

	groups := make(map[string][]int)
	for _, tok := range tokens {
		ix.index.Add(tok.Term, page.ID, tok.Position)
		groups[tok.Term] = append(groups[tok.Term], tok.Position)
	}

	if err := ix.store.SavePagePostings(ctx, page.ID, groups); err != nil {
		return fmt.Errorf("saving postings for page %d: %w", page.ID, err)
	}
	if err := ix.store.UpdatePageWordCount(ctx, page.ID, len(tokens)); err != nil {
		return fmt.Errorf("updating word count for page %d: %w", page.ID, err)
	}

	ix.pagesIndexed.Add(1)
	ix.wordsIndexed.Add(int64(len(tokens)))
	if ix.metrics != nil {
		ix.metrics.PagesIndexedTotal.Inc()
		ix.metrics.IndexUniqueTerms.Set(float64(ix.index.UniqueTerms()))
	}
	ix.logger.Debug("page indexed",
		"page_id", page.ID, "url", page.URL, "words", len(tokens))
	if ix.listener != nil {
		ix.listener(page.ID, page.URL, len(tokens))
	}
	return nil
}

// IndexPageByID fetches a page from the store and indexes it.
func (ix *Indexer) IndexPageByID(ctx context.Context, pageID int64) error {
	page, err := ix.store.GetPageByID(ctx, pageID)
	if err != nil {
		return fmt.Errorf("loading page %d: %w", pageID, err)
	}
	return ix.IndexPage(ctx, page)
}

// ReindexPage deletes a page's stored postings, drops it from the memory
// index, and indexes it again. Running it twice leaves the store in the same
// state as running it once.
func (ix *Indexer) ReindexPage(ctx context.Context, pageID int64) error {
	if err := ix.store.DeletePostingsForPage(ctx, pageID); err != nil {
		return err
	}
	ix.index.RemovePage(pageID)
	return ix.IndexPageByID(ctx, pageID)
}

// IndexAllPages indexes every stored page and returns the number of
// successes. Per-page failures are logged and skipped.
func (ix *Indexer) IndexAllPages(ctx context.Context) (int, error) {
	pages, err := ix.store.ListPages(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pages to index: %w", err)
	}
	ix.logger.Info("indexing all pages", "count", len(pages))

	succeeded := 0
	for _, page := range pages {
		if ctx.Err() != nil {
			return succeeded, ctx.Err()
		}
		if err := ix.IndexPage(ctx, page); err != nil {
			ix.logger.Error("indexing page failed",
				"page_id", page.ID, "url", page.URL, "error", err)
			continue
		}
		succeeded++
	}
	ix.logger.Info("indexing complete", "succeeded", succeeded, "total", len(pages))
	return succeeded, nil
}

// LoadIndexFromStore rebuilds the in-memory index from the durable postings
// table. Corrupt rows are skipped by the store layer.
func (ix *Indexer) LoadIndexFromStore(ctx context.Context) error {
	ix.index.Clear()
	loaded := 0
	err := ix.store.LoadPostings(ctx, func(term string, pageID int64, positions []int) {
		ix.index.AddPosting(term, index.Posting{
			PageID:    pageID,
			Frequency: len(positions),
			Positions: positions,
		})
		loaded++
	})
	if err != nil {
		return fmt.Errorf("rebuilding index from store: %w", err)
	}
	if ix.metrics != nil {
		ix.metrics.IndexUniqueTerms.Set(float64(ix.index.UniqueTerms()))
	}
	ix.logger.Info("index loaded from store",
		"postings", loaded, "unique_terms", ix.index.UniqueTerms())
	return nil
}

// Stats returns cumulative indexing statistics.
func (ix *Indexer) Stats() Stats {
	return Stats{
		PagesIndexed:     int(ix.pagesIndexed.Load()),
		WordsIndexed:     int(ix.wordsIndexed.Load()),
		UniqueTerms:      ix.index.UniqueTerms(),
		TotalOccurrences: ix.index.TotalOccurrences(),
	}
}
