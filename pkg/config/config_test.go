package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawler.ThreadPoolSize != 10 {
		t.Errorf("ThreadPoolSize = %d, want 10", cfg.Crawler.ThreadPoolSize)
	}
	if cfg.Crawler.MaxPages != 500 {
		t.Errorf("MaxPages = %d, want 500", cfg.Crawler.MaxPages)
	}
	if !cfg.Crawler.RespectRobots {
		t.Error("RespectRobots should default to true")
	}
	if cfg.Indexer.MinWordLength != 2 || cfg.Indexer.MaxWordLength != 50 {
		t.Errorf("word length bounds = [%d, %d], want [2, 50]",
			cfg.Indexer.MinWordLength, cfg.Indexer.MaxWordLength)
	}
	if cfg.Search.SnippetLength != 200 {
		t.Errorf("SnippetLength = %d, want 200", cfg.Search.SnippetLength)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
crawler:
  threadPoolSize: 4
  politenessDelay: 250ms
  respectRobots: false
database:
  path: /tmp/custom.db
search:
  maxResults: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Crawler.ThreadPoolSize != 4 {
		t.Errorf("ThreadPoolSize = %d, want 4", cfg.Crawler.ThreadPoolSize)
	}
	if cfg.Crawler.PolitenessDelay != 250*time.Millisecond {
		t.Errorf("PolitenessDelay = %s, want 250ms", cfg.Crawler.PolitenessDelay)
	}
	if cfg.Crawler.RespectRobots {
		t.Error("RespectRobots should be overridden to false")
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Search.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", cfg.Search.MaxResults)
	}
	// Untouched fields keep their defaults.
	if cfg.Crawler.MaxPages != 500 {
		t.Errorf("MaxPages = %d, want default 500", cfg.Crawler.MaxPages)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WS_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("WS_CRAWLER_MAX_PAGES", "7")
	t.Setenv("WS_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	if cfg.Crawler.MaxPages != 7 {
		t.Errorf("MaxPages = %d, want 7", cfg.Crawler.MaxPages)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("crawler:\n  threadPoolSize: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted threadPoolSize 0")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}
