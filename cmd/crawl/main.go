// Command crawl runs one crawl session from a seed URL into the store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aamir-001/web-crawler/internal/crawler"
	"github.com/aamir-001/web-crawler/internal/store"
	"github.com/aamir-001/web-crawler/pkg/config"
	"github.com/aamir-001/web-crawler/pkg/logger"
	"github.com/aamir-001/web-crawler/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	seed := flag.String("seed", "", "seed URL to crawl from (required)")
	depth := flag.Int("depth", -1, "maximum link depth (default from config)")
	maxPages := flag.Int("max-pages", 0, "override the page limit")
	reset := flag.Bool("reset", false, "clear all stored data before crawling")
	flag.Parse()

	if *seed == "" {
		fmt.Fprintln(os.Stderr, "usage: crawl -seed <url> [-depth n] [-max-pages n] [-reset]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *depth < 0 {
		*depth = cfg.Crawler.DefaultDepth
	}
	if *maxPages > 0 {
		cfg.Crawler.MaxPages = *maxPages
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *reset {
		if err := st.ClearAll(ctx); err != nil {
			slog.Error("failed to clear store", "error", err)
			os.Exit(1)
		}
	}

	engine := crawler.New(st, cfg.Crawler)
	engine.SetListener(progressPrinter{})
	if cfg.Metrics.Enabled {
		m := metrics.New()
		engine.SetMetrics(m)
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	if err := engine.Run(ctx, *seed, *depth); err != nil {
		slog.Error("crawl failed", "error", err)
		os.Exit(1)
	}

	stats := engine.Stats()
	fmt.Printf("\n%s: %d pages crawled, %d skipped, %d failed in %s\n",
		engine.State(), stats.PagesCrawled, stats.PagesSkipped, stats.PagesFailed,
		stats.Elapsed.Round(time.Millisecond))
}

// progressPrinter reports crawl progress on stdout.
type progressPrinter struct{}

func (progressPrinter) Started(seed string, maxDepth int) {
	fmt.Printf("crawling from %s (max depth %d)\n", seed, maxDepth)
}

func (progressPrinter) PageStart(url string, depth int) {}

func (progressPrinter) PageSuccess(url string, depth int, pageID int64, crawled int) {
	fmt.Printf("  [%d] %s\n", crawled, url)
}

func (progressPrinter) PageError(url string, depth int, err error) {
	fmt.Printf("  error: %s: %v\n", url, err)
}

func (progressPrinter) PageSkipped(url string, reason string) {
	fmt.Printf("  skipped (%s): %s\n", reason, url)
}

func (progressPrinter) Completed(totalPages int) {
	fmt.Printf("crawl completed: %d pages\n", totalPages)
}

func (progressPrinter) Stopped(totalPages int) {
	fmt.Printf("crawl stopped: %d pages\n", totalPages)
}
