// Package search answers keyword queries over the index: conjunctive
// retrieval, TF-IDF ranking, and highlighted snippets.
package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/aamir-001/web-crawler/internal/analyzer"
	"github.com/aamir-001/web-crawler/internal/index"
	"github.com/aamir-001/web-crawler/internal/store"
	apperrors "github.com/aamir-001/web-crawler/pkg/errors"
	"github.com/aamir-001/web-crawler/pkg/metrics"
)

// Result is one ranked hit.
type Result struct {
	PageID  int64   `json:"page_id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Rank    int     `json:"rank"`
}

// Statistics describes the searchable corpus.
type Statistics struct {
	TotalPages       int   `json:"total_pages"`
	UniqueTerms      int   `json:"unique_terms"`
	TotalOccurrences int64 `json:"total_occurrences"`
}

// Engine executes queries against the in-memory index, fetching page rows
// from the store for scoring and snippets. Store failures surface as an
// empty result list with a logged cause.
type Engine struct {
	store      *store.Store
	index      *index.InvertedIndex
	analyzer   *analyzer.Analyzer
	snippets   *SnippetGenerator
	maxResults int
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(st *store.Store, idx *index.InvertedIndex, an *analyzer.Analyzer, maxResults, snippetLength int) *Engine {
	return &Engine{
		store:      st,
		index:      idx,
		analyzer:   an,
		snippets:   NewSnippetGenerator(snippetLength),
		maxResults: maxResults,
		logger:     slog.Default().With("component", "search"),
	}
}

// SetMetrics attaches Prometheus collectors.
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// Search returns up to the configured maximum of ranked results.
func (e *Engine) Search(ctx context.Context, query string) []Result {
	return e.SearchWithLimit(ctx, query, e.maxResults)
}

// SearchWithLimit returns up to limit ranked results for query. An empty or
// all-stop-word query returns nil without touching the store.
func (e *Engine) SearchWithLimit(ctx context.Context, query string, limit int) []Result {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		}
	}()
	if limit <= 0 {
		limit = e.maxResults
	}

	stemmed, original := e.analyzer.AnalyzeQuery(query)
	if len(stemmed) == 0 {
		e.countQuery("empty_query")
		return nil
	}

	candidates := e.index.PagesContainingAll(stemmed)
	if len(candidates) == 0 {
		e.countQuery("zero_result")
		e.logger.Debug("no pages match all terms", "query", query, "terms", stemmed)
		return nil
	}

	totalPages, err := e.store.CountPages(ctx)
	if err != nil {
		e.countQuery("error")
		e.logger.Error("counting pages failed", "error", err)
		return nil
	}
	n := float64(totalPages)
	if n < 1 {
		n = 1
	}

	results := make([]Result, 0, len(candidates))
	for _, pageID := range candidates {
		page, err := e.store.GetPageByID(ctx, pageID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrPageNotFound) {
				e.countQuery("error")
				e.logger.Error("fetching page failed", "page_id", pageID, "error", err)
				return nil
			}
			continue
		}
		results = append(results, Result{
			PageID:  pageID,
			URL:     page.URL,
			Title:   page.Title,
			Snippet: e.snippets.Generate(page.Body, original),
			Score:   e.score(page, stemmed, n),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PageID < results[j].PageID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	if len(results) > limit {
		results = results[:limit]
	}

	e.countQuery("hit")
	e.logger.Info("query executed",
		"query", query, "terms", stemmed, "results", len(results),
		"elapsed", time.Since(start).Round(time.Microsecond))
	return results
}

// SearchPaginated returns the 1-based page slice of the ranked result list.
func (e *Engine) SearchPaginated(ctx context.Context, query string, page, pageSize int) []Result {
	if page < 1 || pageSize < 1 {
		return nil
	}
	all := e.SearchWithLimit(ctx, query, page*pageSize)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// score sums tf·idf over the query terms: tf is the term's share of the
// page's indexed tokens, idf is ln(N/df).
func (e *Engine) score(page *store.Page, terms []string, totalPages float64) float64 {
	if page.WordCount == 0 {
		return 0
	}
	var total float64
	for _, term := range terms {
		freq := e.index.TermFrequency(term, page.ID)
		if freq == 0 {
			continue
		}
		df := e.index.DocumentFrequency(term)
		if df == 0 {
			continue
		}
		tf := float64(freq) / float64(page.WordCount)
		idf := math.Log(totalPages / float64(df))
		total += tf * idf
	}
	return total
}

// Stats reports corpus-level counters for the stats surface.
func (e *Engine) Stats(ctx context.Context) Statistics {
	stats := Statistics{
		UniqueTerms:      e.index.UniqueTerms(),
		TotalOccurrences: e.index.TotalOccurrences(),
	}
	if n, err := e.store.CountPages(ctx); err == nil {
		stats.TotalPages = n
	} else {
		e.logger.Error("counting pages failed", "error", err)
	}
	return stats
}

func (e *Engine) countQuery(resultType string) {
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}
