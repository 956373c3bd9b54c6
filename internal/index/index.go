// Package index holds the in-memory positional inverted index. It is a
// transient mirror of the postings table and must always be reconstructible
// from the store by going through the indexer.
package index

import (
	"sort"
	"strings"
	"sync"
)

// InvertedIndex maps term -> pageID -> posting. Writers and readers may run
// concurrently; readers always see copied posting values.
type InvertedIndex struct {
	mu       sync.RWMutex
	postings map[string]map[int64]*Posting
	total    int64
}

func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]map[int64]*Posting),
	}
}

// Add appends one occurrence of term on a page at the given token position,
// creating the posting if absent. Positions arrive in scan order within a
// page, so each posting's list stays non-decreasing.
func (idx *InvertedIndex) Add(term string, pageID int64, position int) {
	term = strings.ToLower(term)
	if term == "" {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	pages, ok := idx.postings[term]
	if !ok {
		pages = make(map[int64]*Posting)
		idx.postings[term] = pages
	}
	p, ok := pages[pageID]
	if !ok {
		p = &Posting{PageID: pageID, Positions: make([]int, 0, 4)}
		pages[pageID] = p
	}
	p.Frequency++
	p.Positions = append(p.Positions, position)
	idx.total++
}

// AddPosting installs a complete posting, replacing any existing entry for
// the (term, page) pair. Used when rebuilding the index from the store.
func (idx *InvertedIndex) AddPosting(term string, p Posting) {
	term = strings.ToLower(term)
	if term == "" || p.Frequency == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	pages, ok := idx.postings[term]
	if !ok {
		pages = make(map[int64]*Posting)
		idx.postings[term] = pages
	}
	if old, ok := pages[p.PageID]; ok {
		idx.total -= int64(old.Frequency)
	}
	stored := p
	stored.Positions = append([]int(nil), p.Positions...)
	pages[p.PageID] = &stored
	idx.total += int64(p.Frequency)
}

// Postings returns the posting list for a term, sorted by ascending page id.
// The returned slice and its position lists are copies; a miss yields an
// empty list.
func (idx *InvertedIndex) Postings(term string) PostingList {
	term = strings.ToLower(term)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pages, ok := idx.postings[term]
	if !ok {
		return PostingList{}
	}
	result := make(PostingList, 0, len(pages))
	for _, p := range pages {
		result = append(result, Posting{
			PageID:    p.PageID,
			Frequency: p.Frequency,
			Positions: append([]int(nil), p.Positions...),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PageID < result[j].PageID
	})
	return result
}

// TermFrequency returns how often term occurs on the given page.
func (idx *InvertedIndex) TermFrequency(term string, pageID int64) int {
	term = strings.ToLower(term)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if p, ok := idx.postings[term][pageID]; ok {
		return p.Frequency
	}
	return 0
}

// PagesContainingAll returns the ids of pages containing every term, sorted
// ascending. It short-circuits on the first term with no postings.
func (idx *InvertedIndex) PagesContainingAll(terms []string) []int64 {
	if len(terms) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var result map[int64]struct{}
	for _, term := range terms {
		pages, ok := idx.postings[strings.ToLower(term)]
		if !ok || len(pages) == 0 {
			return nil
		}
		if result == nil {
			result = make(map[int64]struct{}, len(pages))
			for id := range pages {
				result[id] = struct{}{}
			}
			continue
		}
		for id := range result {
			if _, ok := pages[id]; !ok {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			return nil
		}
	}
	return sortedIDs(result)
}

// PagesContainingAny returns the ids of pages containing at least one term,
// sorted ascending.
func (idx *InvertedIndex) PagesContainingAny(terms []string) []int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make(map[int64]struct{})
	for _, term := range terms {
		for id := range idx.postings[strings.ToLower(term)] {
			result[id] = struct{}{}
		}
	}
	return sortedIDs(result)
}

// DocumentFrequency returns the number of pages containing term.
func (idx *InvertedIndex) DocumentFrequency(term string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings[strings.ToLower(term)])
}

// UniqueTerms returns the number of distinct terms indexed.
func (idx *InvertedIndex) UniqueTerms() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.postings)
}

// TotalOccurrences returns the total number of term occurrences indexed.
func (idx *InvertedIndex) TotalOccurrences() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.total
}

// RemovePage deletes every posting that references pageID.
func (idx *InvertedIndex) RemovePage(pageID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for term, pages := range idx.postings {
		if p, ok := pages[pageID]; ok {
			idx.total -= int64(p.Frequency)
			delete(pages, pageID)
			if len(pages) == 0 {
				delete(idx.postings, term)
			}
		}
	}
}

// Clear drops everything.
func (idx *InvertedIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.postings = make(map[string]map[int64]*Posting)
	idx.total = 0
}

func sortedIDs(set map[int64]struct{}) []int64 {
	if len(set) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
