// Package config loads process settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/logging"
)

// Config holds every setting the matcher binaries read.
type Config struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MatchLogMode string `env:"MATCH_LOG_MODE" envDefault:"summary"`

	// Files
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	SnapshotPath string `env:"SNAPSHOT_PATH" envDefault:"data/embeddings.gob"`
	MatchesPath  string `env:"MATCHES_PATH" envDefault:"data/arbitrage_matches.json"`
	SaveInterval int    `env:"SAVE_INTERVAL" envDefault:"60"`

	// Loop and matcher
	UpdateInterval      time.Duration `env:"UPDATE_INTERVAL" envDefault:"30s"`
	TopN                int           `env:"TOP_N" envDefault:"10"`
	SimilarityThreshold float64       `env:"SIMILARITY_THRESHOLD" envDefault:"0.7"`
	ScanVenue           string        `env:"SCAN_VENUE" envDefault:"polymarket"`
	MatchWorkers        int           `env:"MATCH_WORKERS" envDefault:"1"`

	// Collectors
	KalshiBaseURL       string        `env:"KALSHI_BASE_URL"`
	KalshiSessions      int           `env:"KALSHI_SESSIONS" envDefault:"2"`
	KalshiPageLimit     int           `env:"KALSHI_PAGE_LIMIT" envDefault:"1000"`
	PolymarketBaseURL   string        `env:"POLYMARKET_BASE_URL"`
	PolymarketSessions  int           `env:"POLYMARKET_SESSIONS" envDefault:"2"`
	PolymarketPageLimit int           `env:"POLYMARKET_PAGE_LIMIT" envDefault:"500"`
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT" envDefault:"20s"`
	HTTPMaxAttempts     int           `env:"HTTP_MAX_ATTEMPTS" envDefault:"5"`
	RateLimitBackoff    time.Duration `env:"RATE_LIMIT_BACKOFF" envDefault:"500ms"`

	// Models
	NebiusAPIKey       string        `env:"NEBIUS_API_KEY"`
	NebiusBaseURL      string        `env:"NEBIUS_BASE_URL"`
	EmbedModel         string        `env:"NEBIUS_EMBED_MODEL"`
	CheapModel         string        `env:"CHEAP_MODEL" envDefault:"meta-llama/Meta-Llama-3.1-8B-Instruct"`
	ExpensiveModel     string        `env:"EXPENSIVE_MODEL" envDefault:"openai/gpt-oss-120b"`
	ValidatorMaxTokens int           `env:"VALIDATOR_MAX_TOKENS" envDefault:"150"`
	ValidatorTimeout   time.Duration `env:"VALIDATOR_TIMEOUT" envDefault:"45s"`

	// Redis caches; empty address disables them.
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	EmbedCacheTTL   time.Duration `env:"EMBED_CACHE_TTL" envDefault:"240h"`
	VerdictCacheTTL time.Duration `env:"VERDICT_CACHE_TTL" envDefault:"240h"`

	// Optional sinks
	SQLitePath        string `env:"SQLITE_PATH"`
	KafkaBrokers      string `env:"KAFKA_BROKERS"`
	MatchesKafkaTopic string `env:"MATCHES_KAFKA_TOPIC" envDefault:"arb.matches"`
	ChromaURL         string `env:"CHROMA_URL"`
	ChromaCollection  string `env:"CHROMA_COLLECTION" envDefault:"market_vectors"`
	MetricsAddr       string `env:"METRICS_ADDR"`
}

// Load reads .env (when present) and then the environment. Values already set
// in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warnf("[config] .env not loaded: %v", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges. It does not require credentials; RequireModels does.
func (c *Config) Validate() error {
	var errs []error
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %v", c.SimilarityThreshold))
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Errorf("TOP_N must be at least 1, got %d", c.TopN))
	}
	if c.UpdateInterval < time.Second {
		errs = append(errs, fmt.Errorf("UPDATE_INTERVAL must be at least 1s, got %s", c.UpdateInterval))
	}
	if _, err := collectors.ParseVenue(c.ScanVenue); err != nil {
		errs = append(errs, fmt.Errorf("SCAN_VENUE: %w", err))
	}
	if c.MatchWorkers < 1 {
		errs = append(errs, fmt.Errorf("MATCH_WORKERS must be at least 1, got %d", c.MatchWorkers))
	}
	if c.KalshiSessions < 1 || c.PolymarketSessions < 1 {
		errs = append(errs, fmt.Errorf("collector sessions must be at least 1"))
	}
	if c.HTTPMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("HTTP_MAX_ATTEMPTS must be at least 1, got %d", c.HTTPMaxAttempts))
	}
	if c.SaveInterval < 1 {
		errs = append(errs, fmt.Errorf("SAVE_INTERVAL must be at least 1, got %d", c.SaveInterval))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.MatchLogMode) {
	case "quiet", "summary", "verbose":
	default:
		errs = append(errs, fmt.Errorf("invalid MATCH_LOG_MODE: %s", c.MatchLogMode))
	}
	return errors.Join(errs...)
}

// RequireModels checks the settings needed to embed and classify.
func (c *Config) RequireModels() error {
	if strings.TrimSpace(c.NebiusAPIKey) == "" {
		return fmt.Errorf("NEBIUS_API_KEY not set")
	}
	return nil
}

// Venue returns the parsed scan venue. Call after Validate.
func (c *Config) Venue() collectors.Venue {
	v, _ := collectors.ParseVenue(c.ScanVenue)
	return v
}
