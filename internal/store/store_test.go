package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aamir-001/web-crawler/pkg/config"
	apperrors "github.com/aamir-001/web-crawler/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.DatabaseConfig{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		PoolSize: 4,
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPage(url string) *Page {
	return &Page{
		URL:       url,
		Title:     "Title of " + url,
		Body:      "body text for " + url,
		CrawledAt: time.Now(),
		Depth:     1,
	}
}

func TestInsertAndGetPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertPage(ctx, testPage("https://example.com/a"))
	if err != nil {
		t.Fatalf("InsertPage: %v", err)
	}
	if id == 0 {
		t.Fatal("InsertPage returned id 0")
	}

	byID, err := s.GetPageByID(ctx, id)
	if err != nil {
		t.Fatalf("GetPageByID: %v", err)
	}
	if byID.URL != "https://example.com/a" || byID.Depth != 1 {
		t.Errorf("GetPageByID = %+v", byID)
	}

	byURL, err := s.GetPageByURL(ctx, "https://example.com/a")
	if err != nil {
		t.Fatalf("GetPageByURL: %v", err)
	}
	if byURL.ID != id {
		t.Errorf("GetPageByURL id = %d, want %d", byURL.ID, id)
	}
}

func TestInsertPageDuplicateURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertPage(ctx, testPage("https://example.com/dup")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := s.InsertPage(ctx, testPage("https://example.com/dup"))
	if !errors.Is(err, apperrors.ErrURLExists) {
		t.Errorf("duplicate insert error = %v, want ErrURLExists", err)
	}
}

func TestGetPageMisses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetPageByID(ctx, 404); !errors.Is(err, apperrors.ErrPageNotFound) {
		t.Errorf("GetPageByID miss = %v, want ErrPageNotFound", err)
	}
	if _, err := s.GetPageByURL(ctx, "https://nowhere/"); !errors.Is(err, apperrors.ErrPageNotFound) {
		t.Errorf("GetPageByURL miss = %v, want ErrPageNotFound", err)
	}
}

func TestListAndCountPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	urls := []string{"https://a/", "https://b/", "https://c/"}
	for _, u := range urls {
		if _, err := s.InsertPage(ctx, testPage(u)); err != nil {
			t.Fatal(err)
		}
	}

	pages, err := s.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}
	for i, p := range pages {
		if p.URL != urls[i] {
			t.Errorf("pages[%d].URL = %s, want %s", i, p.URL, urls[i])
		}
	}

	n, err := s.CountPages(ctx)
	if err != nil || n != 3 {
		t.Errorf("CountPages = %d, %v, want 3", n, err)
	}
}

func TestUpdatePageWordCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertPage(ctx, testPage("https://example.com/wc"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdatePageWordCount(ctx, id, 42); err != nil {
		t.Fatalf("UpdatePageWordCount: %v", err)
	}
	page, err := s.GetPageByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if page.WordCount != 42 {
		t.Errorf("WordCount = %d, want 42", page.WordCount)
	}

	if err := s.UpdatePageWordCount(ctx, 9999, 1); !errors.Is(err, apperrors.ErrPageNotFound) {
		t.Errorf("missing page error = %v, want ErrPageNotFound", err)
	}
}

func TestUpsertWordIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertWord(ctx, "java")
	if err != nil {
		t.Fatalf("UpsertWord: %v", err)
	}
	second, err := s.UpsertWord(ctx, "java")
	if err != nil {
		t.Fatalf("UpsertWord again: %v", err)
	}
	if first != second {
		t.Errorf("UpsertWord ids differ: %d vs %d", first, second)
	}
	if n, _ := s.CountWords(ctx); n != 1 {
		t.Errorf("CountWords = %d, want 1", n)
	}
}

func TestUpsertPostingReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertPage(ctx, testPage("https://example.com/p"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertPosting(ctx, "java", id, []int{0, 4}); err != nil {
		t.Fatalf("UpsertPosting: %v", err)
	}
	if err := s.UpsertPosting(ctx, "java", id, []int{1, 2, 3}); err != nil {
		t.Fatalf("UpsertPosting replace: %v", err)
	}

	var got []int
	err = s.LoadPostings(ctx, func(term string, pageID int64, positions []int) {
		if term == "java" && pageID == id {
			got = positions
		}
	})
	if err != nil {
		t.Fatalf("LoadPostings: %v", err)
	}
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("positions after replace = %v, want [1 2 3]", got)
	}
	if n, _ := s.TotalPostings(ctx); n != 1 {
		t.Errorf("TotalPostings = %d, want 1", n)
	}
}

func TestPagesForTerm(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.InsertPage(ctx, testPage("https://a/"))
	b, _ := s.InsertPage(ctx, testPage("https://b/"))
	if err := s.SavePagePostings(ctx, a, map[string][]int{"java": {0}, "go": {1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePagePostings(ctx, b, map[string][]int{"java": {2}}); err != nil {
		t.Fatal(err)
	}

	ids, err := s.PagesForTerm(ctx, "java")
	if err != nil {
		t.Fatalf("PagesForTerm: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{a, b}) {
		t.Errorf("PagesForTerm = %v, want [%d %d]", ids, a, b)
	}

	ids, err = s.PagesForTerm(ctx, "missing")
	if err != nil || len(ids) != 0 {
		t.Errorf("PagesForTerm(missing) = %v, %v", ids, err)
	}
}

func TestDeletePageCascadesPostings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.InsertPage(ctx, testPage("https://cascade/"))
	if err := s.SavePagePostings(ctx, id, map[string][]int{"java": {0}, "go": {1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePage(ctx, id); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if n, _ := s.TotalPostings(ctx); n != 0 {
		t.Errorf("TotalPostings after cascade = %d, want 0", n)
	}
}

func TestDeletePostingsForPage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.InsertPage(ctx, testPage("https://a/"))
	b, _ := s.InsertPage(ctx, testPage("https://b/"))
	s.SavePagePostings(ctx, a, map[string][]int{"java": {0}})
	s.SavePagePostings(ctx, b, map[string][]int{"java": {1}})

	if err := s.DeletePostingsForPage(ctx, a); err != nil {
		t.Fatalf("DeletePostingsForPage: %v", err)
	}
	ids, _ := s.PagesForTerm(ctx, "java")
	if !reflect.DeepEqual(ids, []int64{b}) {
		t.Errorf("PagesForTerm = %v, want [%d]", ids, b)
	}
}

func TestLoadPostingsSkipsCorruptRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.InsertPage(ctx, testPage("https://corrupt/"))
	if err := s.UpsertPosting(ctx, "good", id, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	wordID, err := s.UpsertWord(ctx, "bad")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO postings (word_id, page_id, frequency, positions) VALUES (?, ?, 1, 'x,y')",
		wordID, id); err != nil {
		t.Fatal(err)
	}

	var terms []string
	if err := s.LoadPostings(ctx, func(term string, pageID int64, positions []int) {
		terms = append(terms, term)
	}); err != nil {
		t.Fatalf("LoadPostings: %v", err)
	}
	if !reflect.DeepEqual(terms, []string{"good"}) {
		t.Errorf("loaded terms = %v, want [good]", terms)
	}
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, "https://example.com/", 3)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	session, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Seed != "https://example.com/" || session.MaxDepth != 3 ||
		session.Status != SessionRunning || session.EndedAt != nil {
		t.Errorf("fresh session = %+v", session)
	}

	ended := time.Now()
	if err := s.UpdateSession(ctx, id, 17, &ended, SessionCompleted); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	session, err = s.GetSession(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if session.PagesCrawled != 17 || session.Status != SessionCompleted || session.EndedAt == nil {
		t.Errorf("finished session = %+v", session)
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, _ := s.InsertPage(ctx, testPage("https://x/"))
	s.SavePagePostings(ctx, id, map[string][]int{"java": {0}})
	s.CreateSession(ctx, "https://x/", 1)

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if n, _ := s.CountPages(ctx); n != 0 {
		t.Errorf("CountPages = %d, want 0", n)
	}
	if n, _ := s.CountWords(ctx); n != 0 {
		t.Errorf("CountWords = %d, want 0", n)
	}
	if n, _ := s.TotalPostings(ctx); n != 0 {
		t.Errorf("TotalPostings = %d, want 0", n)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 20
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := s.InsertPage(ctx, testPage(pageURL(i)))
			errCh <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errCh; err != nil {
			t.Errorf("concurrent insert: %v", err)
		}
	}
	if count, _ := s.CountPages(ctx); count != n {
		t.Errorf("CountPages = %d, want %d", count, n)
	}
}

func pageURL(i int) string {
	return "https://example.com/page" + string(rune('a'+i))
}
