// Command index builds the inverted index from every stored page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aamir-001/web-crawler/internal/analyzer"
	"github.com/aamir-001/web-crawler/internal/index"
	"github.com/aamir-001/web-crawler/internal/indexer"
	"github.com/aamir-001/web-crawler/internal/store"
	"github.com/aamir-001/web-crawler/pkg/config"
	"github.com/aamir-001/web-crawler/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	pageID := flag.Int64("page", 0, "reindex a single page id instead of everything")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ix := indexer.New(st, analyzer.New(cfg.Indexer), index.NewInvertedIndex())
	ix.SetListener(func(id int64, url string, wordCount int) {
		fmt.Printf("  indexed [%d] %s (%d words)\n", id, url, wordCount)
	})

	if *pageID > 0 {
		if err := ix.ReindexPage(ctx, *pageID); err != nil {
			slog.Error("reindex failed", "page_id", *pageID, "error", err)
			os.Exit(1)
		}
	} else {
		if _, err := ix.IndexAllPages(ctx); err != nil {
			slog.Error("indexing failed", "error", err)
			os.Exit(1)
		}
	}

	fmt.Println(ix.Stats())
}
