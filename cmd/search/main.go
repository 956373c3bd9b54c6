// Command search runs one ranked query against the stored index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aamir-001/web-crawler/internal/analyzer"
	"github.com/aamir-001/web-crawler/internal/index"
	"github.com/aamir-001/web-crawler/internal/indexer"
	"github.com/aamir-001/web-crawler/internal/search"
	"github.com/aamir-001/web-crawler/internal/store"
	"github.com/aamir-001/web-crawler/pkg/config"
	"github.com/aamir-001/web-crawler/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	limit := flag.Int("limit", 0, "maximum results (default from config)")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "usage: search [-limit n] <query terms>")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	st, err := store.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()

	an := analyzer.New(cfg.Indexer)
	idx := index.NewInvertedIndex()
	if err := indexer.New(st, an, idx).LoadIndexFromStore(ctx); err != nil {
		slog.Error("failed to load index", "error", err)
		os.Exit(1)
	}

	engine := search.New(st, idx, an, cfg.Search.MaxResults, cfg.Search.SnippetLength)
	results := engine.SearchWithLimit(ctx, query, *limit)
	if len(results) == 0 {
		fmt.Println("no results")
		return
	}

	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%2d. %s (%.4f)\n    %s\n    %s\n", r.Rank, title, r.Score, r.URL, r.Snippet)
	}
}
