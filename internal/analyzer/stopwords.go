package analyzer

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords.txt
var embeddedStopWords string

// fallbackStopWords covers the most common English function words in case
// the configured stop-word file cannot be read.
var fallbackStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "or", "that",
	"the", "to", "was", "were", "will", "with",
}

// StopWordFilter drops tokens whose lowercased form is in the configured
// stop-word set. Token positions are preserved as assigned by the tokenizer.
type StopWordFilter struct {
	words map[string]struct{}
}

// NewStopWordFilter builds the filter from the embedded stop-word resource.
func NewStopWordFilter() *StopWordFilter {
	words := parseStopWords(strings.NewReader(embeddedStopWords))
	if len(words) == 0 {
		words = builtinStopWords()
	}
	return &StopWordFilter{words: words}
}

// NewStopWordFilterFromFile builds the filter from a one-word-per-line file.
// The returned error is advisory: on failure the caller gets the embedded
// default set along with the error.
func NewStopWordFilterFromFile(path string) (*StopWordFilter, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewStopWordFilter(), fmt.Errorf("opening stop-word file %s: %w", path, err)
	}
	defer f.Close()
	words := parseStopWords(f)
	if len(words) == 0 {
		return NewStopWordFilter(), fmt.Errorf("stop-word file %s contained no words", path)
	}
	return &StopWordFilter{words: words}, nil
}

// parseStopWords reads one word per line, skipping blanks and '#' comments.
func parseStopWords(r io.Reader) map[string]struct{} {
	words := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[line] = struct{}{}
	}
	return words
}

func builtinStopWords() map[string]struct{} {
	words := make(map[string]struct{}, len(fallbackStopWords))
	for _, w := range fallbackStopWords {
		words[w] = struct{}{}
	}
	return words
}

// IsStopWord reports whether w (lowercased by the tokenizer) is filtered.
func (f *StopWordFilter) IsStopWord(w string) bool {
	_, ok := f.words[w]
	return ok
}

// Filter returns the tokens that survive the stop-word gate, positions
// untouched.
func (f *StopWordFilter) Filter(tokens []Token) []Token {
	kept := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if f.IsStopWord(tok.Term) {
			continue
		}
		kept = append(kept, tok)
	}
	return kept
}

// Count returns the size of the stop-word set.
func (f *StopWordFilter) Count() int {
	return len(f.words)
}
