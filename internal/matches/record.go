package matches

import (
	"fmt"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
)

// Tier names the classifier that confirmed a match.
type Tier string

const (
	TierCheap     Tier = "cheap"
	TierExpensive Tier = "expensive"
)

// Side is one platform's half of a match.
type Side struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MatchRecord is a confirmed same-event pair. It is keyed by platform, so the
// serialized form does not depend on which side was the query.
type MatchRecord struct {
	PairID     string    `json:"pair_id"`
	Polymarket Side      `json:"polymarket"`
	Kalshi     Side      `json:"kalshi"`
	Similarity float64   `json:"similarity"`
	Tier       Tier      `json:"verification_tier"`
	ObservedAt time.Time `json:"observed_at"`
}

// NewRecord builds a record from the query market and the confirmed candidate.
func NewRecord(query, candidate collectors.MarketRecord, similarity float64, tier Tier, at time.Time) (MatchRecord, error) {
	if query.Venue == candidate.Venue {
		return MatchRecord{}, fmt.Errorf("matches: both sides on %s", query.Venue)
	}
	rec := MatchRecord{
		PairID:     PairID(query, candidate),
		Similarity: similarity,
		Tier:       tier,
		ObservedAt: at.UTC(),
	}
	for _, m := range []collectors.MarketRecord{query, candidate} {
		side := Side{ID: m.ID, Title: m.Title, Description: m.Descriptor}
		switch m.Venue {
		case collectors.VenuePolymarket:
			rec.Polymarket = side
		case collectors.VenueKalshi:
			rec.Kalshi = side
		default:
			return MatchRecord{}, fmt.Errorf("matches: unknown venue %q", m.Venue)
		}
	}
	return rec, nil
}

// IDs returns the market ids of both sides.
func (r MatchRecord) IDs() (polymarketID, kalshiID string) {
	return r.Polymarket.ID, r.Kalshi.ID
}
