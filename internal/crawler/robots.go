package crawler

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aamir-001/web-crawler/internal/urlx"
)

const robotsFetchTimeout = 5 * time.Second

// RobotsPolicy caches per-origin robots.txt rules for the lifetime of the
// process. Concurrent first lookups of one origin are collapsed into a
// single fetch.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string
	// product token before the "/" of the user agent, lowercased, used for
	// User-agent group matching
	product string
	respect bool
	logger  *slog.Logger

	mu    sync.RWMutex
	rules map[string]*robotRules
	group singleflight.Group
}

type robotRules struct {
	allowAll   bool
	disallowed []string
}

func (r *robotRules) allowed(path string) bool {
	if r.allowAll {
		return true
	}
	for _, prefix := range r.disallowed {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func NewRobotsPolicy(userAgent string, respect bool) *RobotsPolicy {
	return &RobotsPolicy{
		client:    &http.Client{Timeout: robotsFetchTimeout},
		userAgent: userAgent,
		product:   strings.ToLower(strings.SplitN(userAgent, "/", 2)[0]),
		respect:   respect,
		logger:    slog.Default().With("component", "robots"),
		rules:     make(map[string]*robotRules),
	}
}

// Allowed reports whether the URL's path is crawlable under its origin's
// robots.txt. With the respect switch off, or whenever the rules cannot be
// determined, it answers true.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawurl string) bool {
	if !p.respect {
		return true
	}
	origin, err := urlx.Origin(rawurl)
	if err != nil {
		return true
	}
	path := pathOf(rawurl)

	p.mu.RLock()
	rules, ok := p.rules[origin]
	p.mu.RUnlock()
	if ok {
		return rules.allowed(path)
	}

	v, _, _ := p.group.Do(origin, func() (any, error) {
		rules := p.fetch(ctx, origin)
		p.mu.Lock()
		p.rules[origin] = rules
		p.mu.Unlock()
		return rules, nil
	})
	return v.(*robotRules).allowed(path)
}

// ClearCache drops every cached origin.
func (p *RobotsPolicy) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules = make(map[string]*robotRules)
}

// fetch retrieves and parses an origin's robots.txt. Any failure or non-200
// response means allow-all for that origin.
func (p *RobotsPolicy) fetch(ctx context.Context, origin string) *robotRules {
	robotsURL := origin + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &robotRules{allowAll: true}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("robots.txt fetch failed", "url", robotsURL, "error", err)
		return &robotRules{allowAll: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug("no robots.txt", "url", robotsURL, "status", resp.StatusCode)
		return &robotRules{allowAll: true}
	}

	rules := parseRobots(resp.Body, p.product)
	p.logger.Debug("robots.txt cached",
		"origin", origin, "disallowed", len(rules.disallowed))
	return rules
}

// parseRobots collects the Disallow prefixes of every User-agent group that
// matches the product token. A group matches on "*" or a case-insensitive
// substring match. Unknown directives and comments are ignored.
func parseRobots(body io.Reader, product string) *robotRules {
	rules := &robotRules{}
	relevant := false

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		directive := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch directive {
		case "user-agent":
			relevant = value == "*" ||
				strings.Contains(strings.ToLower(value), product)
		case "disallow":
			if relevant && value != "" {
				rules.disallowed = append(rules.disallowed, value)
			}
		}
	}
	return rules
}

func pathOf(rawurl string) string {
	// The caller hands in canonical URLs, so a naive scan past the authority
	// part is enough.
	rest := rawurl
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		path := rest[i:]
		if j := strings.IndexByte(path, '?'); j >= 0 {
			path = path[:j]
		}
		return path
	}
	return "/"
}
