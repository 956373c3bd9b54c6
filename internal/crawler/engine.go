// Package crawler implements the concurrent crawl pipeline: a worker pool
// drains the URL frontier, fetches and parses pages under robots.txt
// discipline, persists them to the store, and feeds extracted links back
// into the frontier.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/aamir-001/web-crawler/internal/store"
	"github.com/aamir-001/web-crawler/internal/urlx"
	"github.com/aamir-001/web-crawler/pkg/config"
	apperrors "github.com/aamir-001/web-crawler/pkg/errors"
	"github.com/aamir-001/web-crawler/pkg/metrics"
)

// State is the engine's lifecycle state for one invocation.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Engine coordinates one crawl session at a time. Completion is detected
// with an outstanding-work counter: every offered URL holds a unit until its
// full process-and-enqueue phase is done, so transient frontier emptiness
// while a worker is still extracting links never ends the session early.
type Engine struct {
	store    *store.Store
	cfg      config.CrawlerConfig
	frontier *Frontier
	robots   *RobotsPolicy
	fetcher  *Fetcher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	runCtx    context.Context
	done      chan struct{}
	listener  Listener
	sessionID int64
	seed      string
	maxDepth  int

	crawled     atomic.Int64
	outstanding atomic.Int64
	stopping    atomic.Bool
	stats       stats
}

func New(st *store.Store, cfg config.CrawlerConfig) *Engine {
	return &Engine{
		store:    st,
		cfg:      cfg,
		frontier: NewFrontier(),
		robots:   NewRobotsPolicy(cfg.UserAgent, cfg.RespectRobots),
		fetcher:  NewFetcher(cfg.RequestTimeout, cfg.UserAgent),
		logger:   slog.Default().With("component", "crawler"),
		state:    StateIdle,
	}
}

// SetListener registers the progress listener. Must be called before Start.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// SetMetrics attaches Prometheus collectors. Must be called before Start.
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// Start validates the seed, opens a crawl session, and launches the worker
// pool. It returns immediately; use Wait to block until the session ends.
func (e *Engine) Start(ctx context.Context, seed string, maxDepth int) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return apperrors.ErrCrawlerRunning
	}

	canonical, err := urlx.Canonicalize(seed)
	if err != nil {
		e.state = StateError
		e.mu.Unlock()
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidSeed, err)
	}
	if !urlx.Admissible(canonical) {
		e.state = StateError
		e.mu.Unlock()
		return fmt.Errorf("%w: %s is not crawlable", apperrors.ErrInvalidSeed, seed)
	}

	sessionID, err := e.store.CreateSession(ctx, canonical, maxDepth)
	if err != nil {
		e.state = StateError
		e.mu.Unlock()
		return fmt.Errorf("opening crawl session: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.state = StateRunning
	e.sessionID = sessionID
	e.seed = canonical
	e.maxDepth = maxDepth
	e.cancel = cancel
	e.runCtx = runCtx
	e.done = done
	e.crawled.Store(0)
	e.outstanding.Store(0)
	e.stopping.Store(false)
	e.stats.reset()

	e.frontier.Clear()
	e.outstanding.Add(1)
	e.frontier.Offer(canonical, 0)

	listener := e.listener
	e.mu.Unlock()

	e.logger.Info("crawl started",
		"seed", canonical,
		"max_depth", maxDepth,
		"max_pages", e.cfg.MaxPages,
		"workers", e.cfg.ThreadPoolSize,
		"session_id", sessionID,
	)
	if listener != nil {
		listener.Started(canonical, maxDepth)
	}

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.ThreadPoolSize; i++ {
		wg.Add(1)
		go e.worker(runCtx, &wg)
	}
	go func() {
		wg.Wait()
		e.finish()
		close(done)
	}()
	return nil
}

// Run starts a session and blocks until it finishes.
func (e *Engine) Run(ctx context.Context, seed string, maxDepth int) error {
	if err := e.Start(ctx, seed, maxDepth); err != nil {
		return err
	}
	e.Wait()
	return nil
}

// Wait blocks until the current session reaches a terminal state.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop interrupts the running session. Workers observe the cancellation
// promptly; the remaining queue is dropped without processing.
func (e *Engine) Stop() {
	e.mu.Lock()
	running := e.state == StateRunning
	e.mu.Unlock()
	if running {
		e.requestStop()
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Running reports whether a session is in flight.
func (e *Engine) Running() bool {
	return e.State() == StateRunning
}

// PagesCrawled returns the number of pages persisted so far this session.
func (e *Engine) PagesCrawled() int {
	return int(e.crawled.Load())
}

// QueueSize returns the number of URLs waiting in the frontier.
func (e *Engine) QueueSize() int {
	return e.frontier.Size()
}

// SessionID returns the store id of the current (or last) session.
func (e *Engine) SessionID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// Stats returns a snapshot of this session's progress counters.
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.snapshot()
}

func (e *Engine) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	// Each worker paces itself: one request per politeness interval. The
	// initial token is drained so the very first wait already delays.
	var limiter *rate.Limiter
	if e.cfg.PolitenessDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(e.cfg.PolitenessDelay), 1)
		limiter.Allow()
	}

	for {
		if ctx.Err() != nil || e.stopping.Load() {
			return
		}
		item, ok := e.frontier.Take(ctx)
		if !ok {
			return
		}
		fetched := e.process(ctx, item)
		if e.outstanding.Add(-1) == 0 {
			e.frontier.Close()
		}
		if fetched && limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
	}
}

// process handles one frontier item. It reports whether an HTTP fetch was
// attempted, which drives the politeness delay.
func (e *Engine) process(ctx context.Context, item Item) bool {
	e.notify(func(l Listener) { l.PageStart(item.URL, item.Depth) })

	if !e.robots.Allowed(ctx, item.URL) {
		e.stats.skipped.Add(1)
		if e.metrics != nil {
			e.metrics.PagesSkippedTotal.WithLabelValues(SkipDisallowed).Inc()
		}
		e.logger.Debug("disallowed by robots.txt", "url", item.URL)
		e.notify(func(l Listener) { l.PageSkipped(item.URL, SkipDisallowed) })
		return false
	}
	if e.stopping.Load() {
		return false
	}

	start := time.Now()
	doc, err := e.fetcher.Fetch(ctx, item.URL)
	if e.metrics != nil {
		e.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		e.stats.failed.Add(1)
		if e.metrics != nil {
			e.metrics.CrawlErrorsTotal.Inc()
		}
		e.logger.Debug("fetch failed", "url", item.URL, "depth", item.Depth, "error", err)
		e.notify(func(l Listener) { l.PageError(item.URL, item.Depth, err) })
		return true
	}

	pageID, err := e.store.InsertPage(ctx, &store.Page{
		URL:       item.URL,
		Title:     doc.Title,
		Body:      doc.Body,
		CrawledAt: time.Now(),
		Depth:     item.Depth,
	})
	switch {
	case errors.Is(err, apperrors.ErrURLExists):
		// Another worker won the race, or the page survives from an earlier
		// session.
		e.stats.skipped.Add(1)
		if e.metrics != nil {
			e.metrics.PagesSkippedTotal.WithLabelValues(SkipDuplicate).Inc()
		}
		e.logger.Debug("page already stored", "url", item.URL)
	case err != nil:
		e.stats.failed.Add(1)
		e.logger.Error("persisting page failed", "url", item.URL, "error", err)
		e.notify(func(l Listener) { l.PageError(item.URL, item.Depth, err) })
	default:
		crawled := int(e.crawled.Add(1))
		e.stats.crawled.Add(1)
		if e.metrics != nil {
			e.metrics.PagesCrawledTotal.Inc()
		}
		e.logger.Info("page crawled",
			"url", item.URL, "depth", item.Depth, "page_id", pageID, "crawled", crawled)
		e.notify(func(l Listener) { l.PageSuccess(item.URL, item.Depth, pageID, crawled) })
		if crawled >= e.cfg.MaxPages {
			e.logger.Info("page limit reached", "max_pages", e.cfg.MaxPages)
			e.requestStop()
			return true
		}
	}

	if item.Depth < e.maxDepth {
		e.enqueueLinks(item, doc.Links)
	}
	if e.metrics != nil {
		e.metrics.FrontierSize.Set(float64(e.frontier.Size()))
	}
	return true
}

// enqueueLinks resolves, canonicalizes, and admits every href before
// offering it at depth+1. The outstanding count is taken before Offer and
// rolled back on rejection so the zero crossing can only happen after the
// enqueue phase.
func (e *Engine) enqueueLinks(item Item, links []string) {
	for _, href := range links {
		canonical, err := urlx.Resolve(item.URL, href)
		if err != nil {
			continue
		}
		if !urlx.Admissible(canonical) {
			continue
		}
		if e.cfg.SameOriginOnly && !urlx.SameOrigin(e.seed, canonical) {
			continue
		}
		e.outstanding.Add(1)
		if !e.frontier.Offer(canonical, item.Depth+1) {
			e.outstanding.Add(-1)
		}
	}
}

// requestStop flips the session into stopping mode exactly once: cancel the
// run context, release blocked workers, leave the queue for Clear.
func (e *Engine) requestStop() {
	if !e.stopping.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.frontier.Close()
}

// finish records the terminal session state after all workers have exited.
func (e *Engine) finish() {
	e.mu.Lock()
	aborted := e.stopping.Load() || (e.runCtx != nil && e.runCtx.Err() != nil)
	if aborted {
		e.state = StateStopped
	} else {
		e.state = StateCompleted
	}
	sessionID := e.sessionID
	cancel := e.cancel
	listener := e.listener
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.frontier.Close()

	total := int(e.crawled.Load())
	status := store.SessionCompleted
	if aborted {
		status = store.SessionStopped
	}
	now := time.Now()
	ctx, cancelUpdate := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelUpdate()
	if err := e.store.UpdateSession(ctx, sessionID, total, &now, status); err != nil {
		e.logger.Error("updating crawl session failed", "session_id", sessionID, "error", err)
	}

	snap := e.stats.snapshot()
	e.logger.Info("crawl finished",
		"status", status,
		"pages", total,
		"skipped", snap.PagesSkipped,
		"failed", snap.PagesFailed,
		"elapsed", snap.Elapsed.Round(time.Millisecond),
	)
	if listener != nil {
		if aborted {
			listener.Stopped(total)
		} else {
			listener.Completed(total)
		}
	}
}

func (e *Engine) notify(fn func(Listener)) {
	e.mu.Lock()
	listener := e.listener
	e.mu.Unlock()
	if listener != nil {
		fn(listener)
	}
}
