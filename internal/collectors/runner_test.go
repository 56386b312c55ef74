package collectors

import (
	"context"
	"errors"
	"testing"
)

type stubCollector struct {
	venue     Venue
	markets   []MarketRecord
	closed    []string
	openErr   error
	closedErr error
}

func (s *stubCollector) Venue() Venue { return s.venue }

func (s *stubCollector) FetchOpenMarkets(ctx context.Context) ([]MarketRecord, error) {
	return s.markets, s.openErr
}

func (s *stubCollector) FetchClosedIDs(ctx context.Context) ([]string, error) {
	return s.closed, s.closedErr
}

func (s *stubCollector) Close() {}

func TestGatherIsolatesFailures(t *testing.T) {
	k := &stubCollector{venue: VenueKalshi, openErr: errors.New("down"), closed: []string{"K9"}}
	p := &stubCollector{venue: VenuePolymarket, markets: []MarketRecord{{ID: "P1", Venue: VenuePolymarket}}, closedErr: errors.New("down")}

	batches := Gather(context.Background(), []Collector{k, p}, true, true)
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if batches[0].OpenErr == nil || len(batches[0].Markets) != 0 {
		t.Fatalf("kalshi open path should be empty with error: %+v", batches[0])
	}
	if got := ClosedIDs(batches); len(got) != 1 || got[0] != "K9" {
		t.Fatalf("closed ids = %v", got)
	}
	if got := Markets(batches); len(got) != 1 || got[0].ID != "P1" {
		t.Fatalf("markets = %v", got)
	}
}

func TestGatherOpenOnly(t *testing.T) {
	k := &stubCollector{venue: VenueKalshi, closed: []string{"K1"}}
	batches := Gather(context.Background(), []Collector{k}, true, false)
	if len(batches[0].Closed) != 0 {
		t.Fatal("closed path should not run")
	}
}
