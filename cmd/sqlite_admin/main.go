package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/hetulpatel/arbmatch/internal/config"
	"github.com/hetulpatel/arbmatch/internal/storage/sqlite"
)

func main() {
	action := flag.String("action", "create", "create | drop | clear | stats | matches")
	limit := flag.Int("limit", 20, "rows to print for -action matches")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	switch *action {
	case "create":
		if err := store.CreateTables(ctx); err != nil {
			log.Fatalf("create tables: %v", err)
		}
		log.Printf("SQLite tables created at %s", store.Path())
	case "drop":
		if err := store.DropTables(ctx); err != nil {
			log.Fatalf("drop tables: %v", err)
		}
		log.Printf("SQLite tables dropped at %s", store.Path())
	case "clear":
		if err := store.ClearTables(ctx); err != nil {
			log.Fatalf("clear tables: %v", err)
		}
		log.Printf("SQLite tables cleared at %s", store.Path())
	case "stats":
		stats, err := store.CatalogStats(ctx)
		if err != nil {
			log.Fatalf("catalog stats: %v", err)
		}
		for venue, n := range stats.Open {
			fmt.Printf("%-12s open=%d closed=%d\n", venue, n, stats.Closed[venue])
		}
	case "matches":
		recs, err := store.ListMatches(ctx, *limit)
		if err != nil {
			log.Fatalf("list matches: %v", err)
		}
		for _, r := range recs {
			fmt.Printf("%s  sim=%.4f tier=%-9s polymarket=%s kalshi=%s\n",
				r.ObservedAt.Format("2006-01-02 15:04:05"), r.Similarity, r.Tier, r.Polymarket.ID, r.Kalshi.ID)
		}
	default:
		log.Fatalf("unknown action %q", *action)
	}
}
