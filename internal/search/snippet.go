package search

import (
	"regexp"
	"strings"
)

// SnippetGenerator extracts a contextual slice of the page body around the
// earliest query-term match and wraps every term occurrence in ** markers.
type SnippetGenerator struct {
	length  int
	context int
}

func NewSnippetGenerator(length int) *SnippetGenerator {
	return &SnippetGenerator{
		length:  length,
		context: length / 2,
	}
}

// Generate builds a highlighted snippet from body for the given pre-stem
// query terms.
func (g *SnippetGenerator) Generate(body string, terms []string) string {
	if body == "" {
		return ""
	}
	if len(terms) == 0 {
		return g.truncate(body)
	}

	// Earliest case-insensitive occurrence of any term.
	lower := strings.ToLower(body)
	best := -1
	matchLen := 0
	for _, term := range terms {
		pos := strings.Index(lower, strings.ToLower(term))
		if pos >= 0 && (best < 0 || pos < best) {
			best = pos
			matchLen = len(term)
		}
	}

	var snippet string
	if best >= 0 {
		start := best - g.context
		if start < 0 {
			start = 0
		}
		end := best + matchLen + g.context
		if end > len(body) {
			end = len(body)
		}
		var b strings.Builder
		if start > 0 {
			b.WriteString("...")
		}
		b.WriteString(strings.TrimSpace(body[start:end]))
		if end < len(body) {
			b.WriteString("...")
		}
		snippet = b.String()
	} else {
		snippet = g.truncate(body)
	}

	return highlight(snippet, terms)
}

// highlight wraps each case-insensitive term occurrence in ** markers,
// non-overlapping per term, keeping the matched surface form.
func highlight(text string, terms []string) string {
	for _, term := range terms {
		if term == "" {
			continue
		}
		re := regexp.MustCompile("(?i)(" + regexp.QuoteMeta(term) + ")")
		text = re.ReplaceAllString(text, "**$1**")
	}
	return text
}

// truncate cuts text at the snippet length, backing off to a whitespace
// boundary within 20 characters, and appends an ellipsis when shortened.
func (g *SnippetGenerator) truncate(text string) string {
	if len(text) <= g.length {
		return text
	}
	end := g.length
	for end > g.length-20 && end > 0 && !isSpace(text[end]) {
		end--
	}
	if end <= 0 {
		end = g.length
	}
	return strings.TrimSpace(text[:end]) + "..."
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
