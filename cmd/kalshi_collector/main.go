package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/config"
	"github.com/hetulpatel/arbmatch/internal/kalshi"
	"github.com/hetulpatel/arbmatch/internal/logging"
	sqlstore "github.com/hetulpatel/arbmatch/internal/storage/sqlite"
)

func main() {
	asJSON := flag.Bool("json", false, "print every market as JSON lines")
	show := flag.Int("show", 5, "number of sample markets to print")
	persist := flag.Bool("sqlite", false, "upsert fetched markets into SQLITE_PATH")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Init(cfg.LogLevel)

	collector := kalshi.NewClient(kalshi.Config{
		BaseURL:     cfg.KalshiBaseURL,
		Sessions:    cfg.KalshiSessions,
		PageLimit:   cfg.KalshiPageLimit,
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.HTTPMaxAttempts,
		Backoff:     cfg.RateLimitBackoff,
	})
	defer collector.Close()

	markets, err := collector.FetchOpenMarkets(ctx)
	if err != nil {
		log.Fatalf("[kalshi] fetch failed: %v", err)
	}
	log.Printf("[kalshi] fetched %d open markets", len(markets))

	if *persist {
		store, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		defer store.Close()
		if err := store.CreateTables(ctx); err != nil {
			log.Fatalf("create tables: %v", err)
		}
		if err := store.UpsertMarkets(ctx, markets); err != nil {
			log.Fatalf("upsert markets: %v", err)
		}
		log.Printf("[kalshi] stored %d markets in %s", len(markets), store.Path())
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, m := range markets {
			enc.Encode(m)
		}
		return
	}
	printSummary(markets, *show)
}

func printSummary(markets []collectors.MarketRecord, show int) {
	byCategory := map[string]int{}
	for _, m := range markets {
		cat := m.Category
		if cat == "" {
			cat = "(none)"
		}
		byCategory[cat]++
	}
	cats := make([]string, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Printf("%-20s %d\n", c, byCategory[c])
	}
	for i, m := range markets {
		if i >= show {
			break
		}
		fmt.Printf("\n%s\n  %s\n", m.ID, m.Descriptor)
	}
}
