package matches

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
)

var (
	poly   = collectors.MarketRecord{ID: "P1", Title: "Will X be elected president?", Descriptor: "Will X be elected president? body", Venue: collectors.VenuePolymarket}
	kalshi = collectors.MarketRecord{ID: "K1", Title: "Will X win the election.", Descriptor: "Will X win the election. rules", Venue: collectors.VenueKalshi}
)

func TestNewRecordIsDirectionIndependent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := NewRecord(poly, kalshi, 0.81, TierCheap, at)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	b, err := NewRecord(kalshi, poly, 0.81, TierCheap, at)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Fatalf("records differ by direction:\n%s\n%s", ja, jb)
	}
	if a.Kalshi.ID != "K1" || a.Polymarket.Description != poly.Descriptor {
		t.Fatalf("sides not keyed by platform: %+v", a)
	}
}

func TestNewRecordRejectsSameVenue(t *testing.T) {
	if _, err := NewRecord(poly, poly, 0.9, TierCheap, time.Now()); err == nil {
		t.Fatal("expected error for same-venue pair")
	}
}

func TestVerdictCacheKey(t *testing.T) {
	if VerdictCacheKey(TierCheap, poly, kalshi) != VerdictCacheKey(TierCheap, kalshi, poly) {
		t.Fatal("key should not depend on argument order")
	}
	if VerdictCacheKey(TierCheap, poly, kalshi) == VerdictCacheKey(TierExpensive, poly, kalshi) {
		t.Fatal("tiers must not share keys")
	}
	edited := kalshi
	edited.Descriptor = "different text"
	if VerdictCacheKey(TierCheap, poly, kalshi) == VerdictCacheKey(TierCheap, poly, edited) {
		t.Fatal("descriptor change should change the key")
	}
}

func TestLogWritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "arbitrage_matches.json")
	l := NewLog(path)
	rec, _ := NewRecord(poly, kalshi, 0.8, TierExpensive, time.Now())
	if err := l.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := ReadLog(path)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(got) != 1 || got[0].PairID != rec.PairID || got[0].Tier != TierExpensive {
		t.Fatalf("unexpected log contents %+v", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file should not remain")
	}
}

func TestEmptyLogSavesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	if err := NewLog(path).Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestAppendKeepsRecordOnWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	os.WriteFile(blocker, []byte("x"), 0o644)
	l := NewLog(filepath.Join(blocker, "m.json"))
	rec, _ := NewRecord(poly, kalshi, 0.8, TierCheap, time.Now())
	if err := l.Append(rec); err == nil {
		t.Fatal("expected write failure")
	}
	if l.Len() != 1 {
		t.Fatal("record must stay in memory")
	}
}
