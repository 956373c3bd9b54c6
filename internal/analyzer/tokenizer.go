package analyzer

import "strings"

// Token is a single normalized term with its sequential position and byte
// offset in the analyzed text. Positions are assigned per emitted token, so
// stop-word filtering downstream leaves gaps rather than renumbering.
type Token struct {
	Term     string
	Position int
	Offset   int
}

// Tokenizer splits lower-cased text into alphanumeric runs, dropping tokens
// outside the configured length bounds and tokens that are purely digits.
type Tokenizer struct {
	minLen int
	maxLen int
}

func NewTokenizer(minLen, maxLen int) *Tokenizer {
	return &Tokenizer{minLen: minLen, maxLen: maxLen}
}

// Tokenize returns the token stream for text. Position starts at 0 and
// increases by one per emitted token.
func (t *Tokenizer) Tokenize(text string) []Token {
	lower := strings.ToLower(text)
	tokens := make([]Token, 0, len(lower)/8)
	pos := 0
	i := 0
	for i < len(lower) {
		if !isWordByte(lower[i]) {
			i++
			continue
		}
		start := i
		digitsOnly := true
		for i < len(lower) && isWordByte(lower[i]) {
			if lower[i] < '0' || lower[i] > '9' {
				digitsOnly = false
			}
			i++
		}
		word := lower[start:i]
		if len(word) < t.minLen || len(word) > t.maxLen || digitsOnly {
			continue
		}
		tokens = append(tokens, Token{Term: word, Position: pos, Offset: start})
		pos++
	}
	return tokens
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
