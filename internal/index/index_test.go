package index

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestAddAndPostings(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("java", 1, 0)
	idx.Add("java", 1, 5)
	idx.Add("java", 2, 3)
	idx.Add("go", 1, 1)

	postings := idx.Postings("java")
	if len(postings) != 2 {
		t.Fatalf("len(postings) = %d, want 2", len(postings))
	}
	if postings[0].PageID != 1 || postings[1].PageID != 2 {
		t.Errorf("postings not sorted by page id: %+v", postings)
	}
	if postings[0].Frequency != 2 || !reflect.DeepEqual(postings[0].Positions, []int{0, 5}) {
		t.Errorf("page 1 posting = %+v", postings[0])
	}
	if idx.TermFrequency("java", 1) != 2 {
		t.Errorf("TermFrequency = %d, want 2", idx.TermFrequency("java", 1))
	}
	if idx.TotalOccurrences() != 4 {
		t.Errorf("TotalOccurrences = %d, want 4", idx.TotalOccurrences())
	}
	if idx.UniqueTerms() != 2 {
		t.Errorf("UniqueTerms = %d, want 2", idx.UniqueTerms())
	}
}

func TestPostingsCaseInsensitiveAndMiss(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("Java", 1, 0)
	if len(idx.Postings("JAVA")) != 1 {
		t.Error("lookup should be case-insensitive")
	}
	if got := idx.Postings("missing"); len(got) != 0 {
		t.Errorf("miss should return an empty list, got %+v", got)
	}
}

func TestPostingsReturnsCopies(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("term", 1, 0)
	postings := idx.Postings("term")
	postings[0].Positions[0] = 99
	postings[0].Frequency = 99
	fresh := idx.Postings("term")
	if fresh[0].Positions[0] != 0 || fresh[0].Frequency != 1 {
		t.Error("callers can mutate internal state through Postings")
	}
}

func TestPagesContainingAll(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("java", 1, 0)
	idx.Add("java", 3, 0)
	idx.Add("program", 1, 1)
	idx.Add("program", 2, 1)
	idx.Add("program", 3, 1)

	if got := idx.PagesContainingAll([]string{"java", "program"}); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Errorf("PagesContainingAll = %v, want [1 3]", got)
	}
	if got := idx.PagesContainingAll([]string{"java", "missing"}); got != nil {
		t.Errorf("intersection with unknown term = %v, want nil", got)
	}
	if got := idx.PagesContainingAll(nil); got != nil {
		t.Errorf("empty term list = %v, want nil", got)
	}
}

func TestPagesContainingAny(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("java", 1, 0)
	idx.Add("python", 2, 0)
	got := idx.PagesContainingAny([]string{"java", "python", "missing"})
	if !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Errorf("PagesContainingAny = %v, want [1 2]", got)
	}
}

func TestDocumentFrequency(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("java", 1, 0)
	idx.Add("java", 2, 0)
	if df := idx.DocumentFrequency("java"); df != 2 {
		t.Errorf("DocumentFrequency = %d, want 2", df)
	}
	if df := idx.DocumentFrequency("missing"); df != 0 {
		t.Errorf("DocumentFrequency of unknown term = %d, want 0", df)
	}
}

func TestAddPostingReplaces(t *testing.T) {
	idx := NewInvertedIndex()
	idx.AddPosting("java", Posting{PageID: 1, Frequency: 2, Positions: []int{0, 4}})
	idx.AddPosting("java", Posting{PageID: 1, Frequency: 3, Positions: []int{1, 2, 3}})
	postings := idx.Postings("java")
	if len(postings) != 1 || postings[0].Frequency != 3 {
		t.Errorf("postings = %+v, want single entry with frequency 3", postings)
	}
	if idx.TotalOccurrences() != 3 {
		t.Errorf("TotalOccurrences = %d, want 3", idx.TotalOccurrences())
	}
}

func TestRemovePage(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("java", 1, 0)
	idx.Add("java", 2, 0)
	idx.Add("solo", 1, 1)
	idx.RemovePage(1)
	if df := idx.DocumentFrequency("java"); df != 1 {
		t.Errorf("DocumentFrequency after removal = %d, want 1", df)
	}
	if idx.DocumentFrequency("solo") != 0 {
		t.Error("term with no remaining pages should disappear")
	}
	if idx.TotalOccurrences() != 1 {
		t.Errorf("TotalOccurrences = %d, want 1", idx.TotalOccurrences())
	}
}

func TestClear(t *testing.T) {
	idx := NewInvertedIndex()
	idx.Add("java", 1, 0)
	idx.Clear()
	if idx.UniqueTerms() != 0 || idx.TotalOccurrences() != 0 {
		t.Error("Clear left data behind")
	}
}

func TestConcurrentAdds(t *testing.T) {
	idx := NewInvertedIndex()
	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				idx.Add(fmt.Sprintf("term%d", i%20), int64(w+1), i)
				// Interleave reads to catch torn state under the race
				// detector.
				_ = idx.Postings(fmt.Sprintf("term%d", i%20))
				_ = idx.DocumentFrequency("term0")
			}
		}(w)
	}
	wg.Wait()

	if got := idx.TotalOccurrences(); got != writers*perWriter {
		t.Errorf("TotalOccurrences = %d, want %d", got, writers*perWriter)
	}
	if got := idx.DocumentFrequency("term0"); got != writers {
		t.Errorf("DocumentFrequency(term0) = %d, want %d", got, writers)
	}
}
