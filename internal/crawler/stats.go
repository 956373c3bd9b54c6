package crawler

import (
	"sync/atomic"
	"time"
)

// stats accumulates per-session counters from the worker goroutines.
type stats struct {
	crawled   atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	startedAt atomic.Int64 // unix nanos
}

func (s *stats) reset() {
	s.crawled.Store(0)
	s.skipped.Store(0)
	s.failed.Store(0)
	s.startedAt.Store(time.Now().UnixNano())
}

// StatsSnapshot is a point-in-time view of a crawl session's progress.
type StatsSnapshot struct {
	PagesCrawled int
	PagesSkipped int
	PagesFailed  int
	Elapsed      time.Duration
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		PagesCrawled: int(s.crawled.Load()),
		PagesSkipped: int(s.skipped.Load()),
		PagesFailed:  int(s.failed.Load()),
		Elapsed:      time.Since(time.Unix(0, s.startedAt.Load())),
	}
}
