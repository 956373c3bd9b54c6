package analyzer

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestAnalyzeStemsAndPreservesPositions(t *testing.T) {
	a := NewDefault()
	got := a.Analyze("Java Programming Java is great")
	// "is" takes position 3 and is then filtered, leaving a gap.
	want := []Token{
		{Term: "java", Position: 0, Offset: 0},
		{Term: "program", Position: 1, Offset: 5},
		{Term: "java", Position: 2, Offset: 17},
		{Term: "great", Position: 4, Offset: 25},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze = %+v, want %+v", got, want)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := NewDefault()
	text := "The quick brown foxes were jumping over lazy dogs repeatedly"
	first := a.Analyze(text)
	for i := 0; i < 10; i++ {
		if got := a.Analyze(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: Analyze output changed", i)
		}
	}
}

func TestAnalyzeQuery(t *testing.T) {
	a := NewDefault()
	stemmed, original := a.AnalyzeQuery("Running the tests")
	if !reflect.DeepEqual(stemmed, []string{"run", "test"}) {
		t.Errorf("stemmed = %v, want [run test]", stemmed)
	}
	if !reflect.DeepEqual(original, []string{"running", "tests"}) {
		t.Errorf("original = %v, want [running tests]", original)
	}
}

func TestAnalyzeQueryEmpty(t *testing.T) {
	a := NewDefault()
	for _, q := range []string{"", "   ", "the and of", "a I"} {
		stemmed, original := a.AnalyzeQuery(q)
		if len(stemmed) != 0 || len(original) != 0 {
			t.Errorf("AnalyzeQuery(%q) = %v / %v, want empty", q, stemmed, original)
		}
	}
}

func TestStopWordFilterEmbedded(t *testing.T) {
	f := NewStopWordFilter()
	if f.Count() == 0 {
		t.Fatal("embedded stop-word set is empty")
	}
	for _, w := range []string{"the", "and", "is", "of"} {
		if !f.IsStopWord(w) {
			t.Errorf("%q should be a stop word", w)
		}
	}
	for _, w := range []string{"java", "search", "used"} {
		if f.IsStopWord(w) {
			t.Errorf("%q should not be a stop word", w)
		}
	}
}

func TestStopWordFilterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	content := "# custom list\nfoo\nBAR\n\n  baz  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := NewStopWordFilterFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Count() != 3 {
		t.Errorf("Count = %d, want 3", f.Count())
	}
	for _, w := range []string{"foo", "bar", "baz"} {
		if !f.IsStopWord(w) {
			t.Errorf("%q should be a stop word", w)
		}
	}
}

func TestStopWordFilterFileFallback(t *testing.T) {
	f, err := NewStopWordFilterFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if f == nil || !f.IsStopWord("the") {
		t.Error("fallback filter should carry the embedded set")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	f := NewStopWordFilter()
	tok := NewTokenizer(2, 50)
	tokens := f.Filter(tok.Tokenize("alpha the beta and gamma"))
	var terms []string
	var positions []int
	for _, token := range tokens {
		terms = append(terms, token.Term)
		positions = append(positions, token.Position)
	}
	if strings.Join(terms, " ") != "alpha beta gamma" {
		t.Errorf("terms = %v", terms)
	}
	if !reflect.DeepEqual(positions, []int{0, 2, 4}) {
		t.Errorf("positions = %v, want [0 2 4]", positions)
	}
}
