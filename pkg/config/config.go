// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Crawler, Database, Indexer, Search, Server, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Database DatabaseConfig `yaml:"database"`
	Indexer  IndexerConfig  `yaml:"indexer"`
	Search   SearchConfig   `yaml:"search"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CrawlerConfig controls the crawl engine: worker count, page/depth limits,
// HTTP behavior, and robots.txt handling.
type CrawlerConfig struct {
	ThreadPoolSize  int           `yaml:"threadPoolSize"`
	MaxPages        int           `yaml:"maxPages"`
	DefaultDepth    int           `yaml:"defaultDepth"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	PolitenessDelay time.Duration `yaml:"politenessDelay"`
	UserAgent       string        `yaml:"userAgent"`
	RespectRobots   bool          `yaml:"respectRobots"`
	SameOriginOnly  bool          `yaml:"sameOriginOnly"`
}

// DatabaseConfig selects the SQLite database file and the size of the
// bounded connection pool.
type DatabaseConfig struct {
	Path     string `yaml:"path"`
	PoolSize int    `yaml:"poolSize"`
}

// IndexerConfig controls the text analysis pipeline.
type IndexerConfig struct {
	MinWordLength int    `yaml:"minWordLength"`
	MaxWordLength int    `yaml:"maxWordLength"`
	StopWordsFile string `yaml:"stopWordsFile"`
}

// SearchConfig controls result limits and snippet extraction.
type SearchConfig struct {
	MaxResults    int `yaml:"maxResults"`
	SnippetLength int `yaml:"snippetLength"`
}

// ServerConfig holds the local HTTP search service settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with defaults matching a local desktop
// installation.
func defaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			ThreadPoolSize:  10,
			MaxPages:        500,
			DefaultDepth:    2,
			RequestTimeout:  30 * time.Second,
			PolitenessDelay: time.Second,
			UserAgent:       "DesktopSearchBot/1.0",
			RespectRobots:   true,
			SameOriginOnly:  false,
		},
		Database: DatabaseConfig{
			Path:     "search_engine.db",
			PoolSize: 10,
		},
		Indexer: IndexerConfig{
			MinWordLength: 2,
			MaxWordLength: 50,
		},
		Search: SearchConfig{
			MaxResults:    50,
			SnippetLength: 200,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

func (c *Config) validate() error {
	if c.Crawler.ThreadPoolSize < 1 {
		return fmt.Errorf("crawler.threadPoolSize must be at least 1, got %d", c.Crawler.ThreadPoolSize)
	}
	if c.Database.PoolSize < 1 {
		return fmt.Errorf("database.poolSize must be at least 1, got %d", c.Database.PoolSize)
	}
	if c.Indexer.MinWordLength < 1 || c.Indexer.MaxWordLength < c.Indexer.MinWordLength {
		return fmt.Errorf("invalid indexer word length bounds [%d, %d]",
			c.Indexer.MinWordLength, c.Indexer.MaxWordLength)
	}
	if c.Search.SnippetLength < 1 {
		return fmt.Errorf("search.snippetLength must be positive, got %d", c.Search.SnippetLength)
	}
	return nil
}

// applyEnvOverrides reads WS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WS_DATABASE_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.PoolSize = n
		}
	}
	if v := os.Getenv("WS_CRAWLER_USER_AGENT"); v != "" {
		cfg.Crawler.UserAgent = v
	}
	if v := os.Getenv("WS_CRAWLER_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.MaxPages = n
		}
	}
	if v := os.Getenv("WS_CRAWLER_THREAD_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Crawler.ThreadPoolSize = n
		}
	}
	if v := os.Getenv("WS_CRAWLER_RESPECT_ROBOTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Crawler.RespectRobots = b
		}
	}
	if v := os.Getenv("WS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("WS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
