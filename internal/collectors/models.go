package collectors

import (
	"context"
	"fmt"
)

// Venue identifies the platform a market belongs to.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// Opposite returns the other venue of the pair.
func (v Venue) Opposite() (Venue, error) {
	switch v {
	case VenuePolymarket:
		return VenueKalshi, nil
	case VenueKalshi:
		return VenuePolymarket, nil
	default:
		return "", fmt.Errorf("unknown venue %q", v)
	}
}

// ParseVenue validates a venue name.
func ParseVenue(raw string) (Venue, error) {
	v := Venue(raw)
	if _, err := v.Opposite(); err != nil {
		return "", err
	}
	return v, nil
}

// MarketRecord is the canonical tuple produced by a collector. Records are
// immutable once created; a changed descriptor shows up as a new id.
type MarketRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Descriptor string `json:"descriptor"`
	Venue      Venue  `json:"venue"`
	Category   string `json:"category,omitempty"`
}

// Collector is implemented by venue-specific collectors (Polymarket, Kalshi, ...).
// Each collector owns its watermarks: a call that succeeds advances the
// watermark for its path, a call that fails leaves it untouched.
type Collector interface {
	Venue() Venue
	// FetchOpenMarkets returns the open markets created since the last
	// successful call. The first call returns everything currently open.
	FetchOpenMarkets(ctx context.Context) ([]MarketRecord, error)
	// FetchClosedIDs returns ids of markets that closed or settled since the
	// last successful call.
	FetchClosedIDs(ctx context.Context) ([]string, error)
	Close()
}
