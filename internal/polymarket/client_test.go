package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
)

func TestFetchOpenMarketsPaginatesByOffset(t *testing.T) {
	var mu sync.Mutex
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("closed") != "false" || q.Get("include_tag") != "true" {
			t.Errorf("unexpected query %v", q)
		}
		mu.Lock()
		offsets = append(offsets, q.Get("offset"))
		mu.Unlock()

		offset, _ := strconv.Atoi(q.Get("offset"))
		var page []map[string]any
		n := 2
		if offset > 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			page = append(page, map[string]any{
				"id":          fmt.Sprintf("%d", 500+offset+i),
				"question":    "Will X be elected president",
				"description": "Resolves Yes if X is sworn in.",
				"tags":        []map[string]any{{"id": "999", "label": "Misc"}, {"id": "2", "label": "Politics"}},
			})
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, PageLimit: 2})
	got, err := c.FetchOpenMarkets(context.Background())
	if err != nil {
		t.Fatalf("FetchOpenMarkets: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 markets, got %d", len(got))
	}
	if len(offsets) != 2 || offsets[0] != "0" || offsets[1] != "2" {
		t.Fatalf("offsets = %v", offsets)
	}
	want := collectors.MarketRecord{
		ID:         "500",
		Title:      "Will X be elected president.",
		Descriptor: "Will X be elected president. Resolves Yes if X is sworn in.",
		Venue:      collectors.VenuePolymarket,
		Category:   "General Affairs",
	}
	if got[0] != want {
		t.Fatalf("got %+v, want %+v", got[0], want)
	}
}

func TestFetchOpenMarketsSetsStartDateWatermark(t *testing.T) {
	var mu sync.Mutex
	var mins []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		mins = append(mins, r.URL.Query().Get("start_date_min"))
		mu.Unlock()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewClient(Config{BaseURL: srv.URL, Now: func() time.Time { return start }})
	for i := 0; i < 2; i++ {
		if _, err := c.FetchOpenMarkets(context.Background()); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if mins[0] != "" || mins[1] != "2026-01-02T03:04:05Z" {
		t.Fatalf("start_date_min values = %v", mins)
	}
}

func TestFetchOpenMarketsNonArrayIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"oops"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if got, err := c.FetchOpenMarkets(context.Background()); err == nil || got != nil {
		t.Fatalf("expected failure with no data, got %v / %v", got, err)
	}
}

func TestFetchClosedIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("closed") != "true" || q.Get("end_date_min") == "" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`[{"id":17},{"id":"18"}]`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ids, err := c.FetchClosedIDs(context.Background())
	if err != nil {
		t.Fatalf("FetchClosedIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "17" || ids[1] != "18" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestCategoryForTags(t *testing.T) {
	if got := categoryForTags(nil); got != "" {
		t.Fatalf("expected empty category, got %q", got)
	}
	if got := categoryForTags([]tag{{ID: "120"}, {ID: "1"}}); got != "Economics" {
		t.Fatalf("first mapped tag should win, got %q", got)
	}
}

func TestNextCursor(t *testing.T) {
	if nextCursor(0, 500, 500) != "500" {
		t.Fatal("full page should advance")
	}
	if nextCursor(500, 500, 12) != "" {
		t.Fatal("short page should end the walk")
	}
}
