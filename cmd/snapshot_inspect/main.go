package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/config"
	"github.com/hetulpatel/arbmatch/internal/embedstore"
	"github.com/hetulpatel/arbmatch/internal/matches"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	snapshotPath := flag.String("snapshot", cfg.SnapshotPath, "embedding snapshot file")
	matchesPath := flag.String("matches", cfg.MatchesPath, "match log file")
	show := flag.Int("show", 5, "number of recent matches to print")
	flag.Parse()

	snap, err := embedstore.ReadSnapshot(*snapshotPath)
	if err != nil {
		log.Printf("snapshot: %v", err)
	} else {
		perVenue := map[collectors.Venue]int{}
		for _, m := range snap.Metadata {
			perVenue[m.Venue]++
		}
		dims := 0
		for _, v := range snap.Vectors {
			dims = len(v)
			break
		}
		fmt.Printf("snapshot %s\n", *snapshotPath)
		fmt.Printf("  saved at:        %s\n", snap.Timestamp.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("  total processed: %d\n", snap.TotalProcessed)
		fmt.Printf("  markets:         %d (kalshi %d, polymarket %d)\n",
			len(snap.Metadata), perVenue[collectors.VenueKalshi], perVenue[collectors.VenuePolymarket])
		fmt.Printf("  vectors:         %d x %d\n", len(snap.Vectors), dims)
	}

	recs, err := matches.ReadLog(*matchesPath)
	if err != nil {
		log.Fatalf("match log: %v", err)
	}
	perTier := map[matches.Tier]int{}
	for _, r := range recs {
		perTier[r.Tier]++
	}
	fmt.Printf("\nmatches %s\n", *matchesPath)
	fmt.Printf("  total: %d (cheap %d, expensive %d)\n", len(recs), perTier[matches.TierCheap], perTier[matches.TierExpensive])
	start := len(recs) - *show
	if start < 0 {
		start = 0
	}
	for _, r := range recs[start:] {
		fmt.Printf("\n  [%s] sim=%.4f\n    polymarket %s: %s\n    kalshi     %s: %s\n",
			r.Tier, r.Similarity, r.Polymarket.ID, r.Polymarket.Title, r.Kalshi.ID, r.Kalshi.Title)
	}
}
