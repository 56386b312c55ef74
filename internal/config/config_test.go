package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.SimilarityThreshold != 0.7 || cfg.TopN != 10 || cfg.UpdateInterval != 30*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.HTTPMaxAttempts != 5 || cfg.RateLimitBackoff != 500*time.Millisecond {
		t.Fatalf("unexpected retry defaults %+v", cfg)
	}
	if cfg.MatchesKafkaTopic != "arb.matches" || cfg.ChromaCollection != "market_vectors" {
		t.Fatalf("unexpected sink defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("SIMILARITY_THRESHOLD", "0.82")
	t.Setenv("SCAN_VENUE", "kalshi")
	t.Setenv("UPDATE_INTERVAL", "2m")
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.SimilarityThreshold != 0.82 || cfg.UpdateInterval != 2*time.Minute || cfg.Venue() != "kalshi" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseRejectsBadNumbers(t *testing.T) {
	t.Setenv("TOP_N", "ten")
	if _, err := Parse(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "threshold above one", mutate: func(c *Config) { c.SimilarityThreshold = 1.2 }, want: "SIMILARITY_THRESHOLD"},
		{name: "top n", mutate: func(c *Config) { c.TopN = 0 }, want: "TOP_N"},
		{name: "interval", mutate: func(c *Config) { c.UpdateInterval = 10 * time.Millisecond }, want: "UPDATE_INTERVAL"},
		{name: "venue", mutate: func(c *Config) { c.ScanVenue = "betfair" }, want: "SCAN_VENUE"},
		{name: "log mode", mutate: func(c *Config) { c.MatchLogMode = "loud" }, want: "MATCH_LOG_MODE"},
		{name: "attempts", mutate: func(c *Config) { c.HTTPMaxAttempts = 0 }, want: "HTTP_MAX_ATTEMPTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse()
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestRequireModels(t *testing.T) {
	t.Setenv("NEBIUS_API_KEY", "")
	cfg, _ := Parse()
	if err := cfg.RequireModels(); err == nil {
		t.Fatal("expected missing key error")
	}
	cfg.NebiusAPIKey = "k"
	if err := cfg.RequireModels(); err != nil {
		t.Fatalf("RequireModels: %v", err)
	}
}
