// Package analyzer turns raw page text into the normalized term stream the
// index is built from: tokenize with positions, drop stop words, stem.
package analyzer

import (
	"log/slog"

	"github.com/aamir-001/web-crawler/pkg/config"
)

// Analyzer is the three-stage text pipeline. Analyze is safe for concurrent
// use; each call stems with its own buffer.
type Analyzer struct {
	tokenizer *Tokenizer
	stopWords *StopWordFilter
}

// New builds an Analyzer from configuration. A configured stop-word file
// that fails to load degrades to the embedded default set with a warning.
func New(cfg config.IndexerConfig) *Analyzer {
	var filter *StopWordFilter
	if cfg.StopWordsFile != "" {
		var err error
		filter, err = NewStopWordFilterFromFile(cfg.StopWordsFile)
		if err != nil {
			slog.Warn("falling back to embedded stop words", "error", err)
		}
	} else {
		filter = NewStopWordFilter()
	}
	return &Analyzer{
		tokenizer: NewTokenizer(cfg.MinWordLength, cfg.MaxWordLength),
		stopWords: filter,
	}
}

// NewDefault builds an Analyzer with the standard bounds and the embedded
// stop-word set.
func NewDefault() *Analyzer {
	return New(config.IndexerConfig{MinWordLength: 2, MaxWordLength: 50})
}

// Analyze runs the full pipeline over text and returns stemmed tokens.
// Positions are the tokenizer's: stop-word removal leaves gaps.
func (a *Analyzer) Analyze(text string) []Token {
	tokens := a.stopWords.Filter(a.tokenizer.Tokenize(text))
	var st Stemmer
	for i := range tokens {
		tokens[i].Term = st.Stem(tokens[i].Term)
	}
	return tokens
}

// AnalyzeQuery runs the pipeline without position tracking and returns both
// the stemmed terms (for retrieval) and the pre-stem terms (for snippet
// highlighting).
func (a *Analyzer) AnalyzeQuery(query string) (stemmed, original []string) {
	tokens := a.stopWords.Filter(a.tokenizer.Tokenize(query))
	var st Stemmer
	for _, tok := range tokens {
		original = append(original, tok.Term)
		stemmed = append(stemmed, st.Stem(tok.Term))
	}
	return stemmed, original
}

// StopWordCount exposes the size of the active stop-word set.
func (a *Analyzer) StopWordCount() int {
	return a.stopWords.Count()
}
