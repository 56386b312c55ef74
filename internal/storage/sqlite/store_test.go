package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/matches"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "arb.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateTables(context.Background()); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	return s
}

func TestUpsertAndCloseMarkets(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	records := []collectors.MarketRecord{
		{ID: "K1", Title: "A.", Descriptor: "A. rules", Venue: collectors.VenueKalshi, Category: "Economics"},
		{ID: "K2", Title: "B.", Descriptor: "B. rules", Venue: collectors.VenueKalshi},
		{ID: "P1", Title: "C.", Descriptor: "C. body", Venue: collectors.VenuePolymarket},
	}
	if err := s.UpsertMarkets(ctx, records); err != nil {
		t.Fatalf("UpsertMarkets: %v", err)
	}
	if err := s.MarkClosed(ctx, collectors.VenueKalshi, []string{"K1", "missing"}); err != nil {
		t.Fatalf("MarkClosed: %v", err)
	}

	stats, err := s.CatalogStats(ctx)
	if err != nil {
		t.Fatalf("CatalogStats: %v", err)
	}
	if stats.Open[collectors.VenueKalshi] != 1 || stats.Closed[collectors.VenueKalshi] != 1 || stats.Open[collectors.VenuePolymarket] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	got, ok, err := s.LookupMarket(ctx, collectors.VenueKalshi, "K1")
	if err != nil || !ok {
		t.Fatalf("LookupMarket: ok=%t err=%v", ok, err)
	}
	if got.Descriptor != "A. rules" || got.Category != "Economics" {
		t.Fatalf("unexpected record %+v", got)
	}

	// Relisting reopens the market.
	if err := s.UpsertMarkets(ctx, records[:1]); err != nil {
		t.Fatalf("UpsertMarkets: %v", err)
	}
	stats, _ = s.CatalogStats(ctx)
	if stats.Closed[collectors.VenueKalshi] != 0 {
		t.Fatalf("expected K1 reopened, stats %+v", stats)
	}

	if _, ok, _ := s.LookupMarket(ctx, collectors.VenuePolymarket, "nope"); ok {
		t.Fatal("unknown market should not be found")
	}
}

func TestInsertMatchIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	poly := collectors.MarketRecord{ID: "P1", Title: "Poly?", Descriptor: "Poly? body", Venue: collectors.VenuePolymarket}
	kalshi := collectors.MarketRecord{ID: "K1", Title: "Kalshi.", Descriptor: "Kalshi. rules", Venue: collectors.VenueKalshi}
	rec, err := matches.NewRecord(poly, kalshi, 0.83, matches.TierCheap, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	if err := s.Publish(ctx, rec); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := s.InsertMatch(ctx, rec); err != nil {
		t.Fatalf("InsertMatch duplicate: %v", err)
	}

	list, err := s.ListMatches(ctx, 0)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 stored match, got %d", len(list))
	}
	if list[0].PairID != rec.PairID || list[0].Kalshi.ID != "K1" || list[0].Tier != matches.TierCheap {
		t.Fatalf("unexpected stored match %+v", list[0])
	}
}

func TestClearAndDropTables(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.UpsertMarkets(ctx, []collectors.MarketRecord{{ID: "K1", Venue: collectors.VenueKalshi}}); err != nil {
		t.Fatalf("UpsertMarkets: %v", err)
	}
	if err := s.ClearTables(ctx); err != nil {
		t.Fatalf("ClearTables: %v", err)
	}
	stats, _ := s.CatalogStats(ctx)
	if len(stats.Open) != 0 {
		t.Fatalf("expected empty catalog, got %+v", stats)
	}
	if err := s.DropTables(ctx); err != nil {
		t.Fatalf("DropTables: %v", err)
	}
	if _, err := s.ListMatches(ctx, 1); err == nil {
		t.Fatal("expected error after drop")
	}
}
