package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Document is the parsed result of one page fetch: the document title, the
// human-readable body text, and the raw href values of every anchor.
type Document struct {
	Title string
	Body  string
	Links []string
}

// Fetcher retrieves and parses HTML pages with the configured user agent and
// per-request timeout.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch GETs pageURL and parses the response. Non-2xx statuses and
// explicitly non-HTML content types are errors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("fetching %s: unsupported content type %q", pageURL, ct)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return extract(root), nil
}

// extract walks the parse tree once, collecting the title, the visible body
// text, and every anchor href.
func extract(root *html.Node) *Document {
	doc := &Document{}
	var body strings.Builder

	var inBody bool
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if doc.Title == "" && n.FirstChild != nil {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						if href := strings.TrimSpace(attr.Val); href != "" {
							doc.Links = append(doc.Links, href)
						}
					}
				}
			case "body":
				inBody = true
				defer func() { inBody = false }()
			}
		}
		if n.Type == html.TextNode && inBody {
			if text := strings.TrimSpace(n.Data); text != "" {
				if body.Len() > 0 {
					body.WriteByte(' ')
				}
				body.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	doc.Body = strings.Join(strings.Fields(body.String()), " ")
	return doc
}
