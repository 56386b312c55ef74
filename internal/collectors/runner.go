package collectors

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hetulpatel/arbmatch/internal/logging"
)

// Batch is what one collector produced in a cycle. A failed call leaves its
// slice empty and its error set; callers treat that as "no data this cycle".
type Batch struct {
	Venue     Venue
	Markets   []MarketRecord
	Closed    []string
	OpenErr   error
	ClosedErr error
}

// Gather runs the requested paths of every collector concurrently and waits
// for all of them. Failures are logged and recorded per batch; they never
// cancel the sibling calls.
func Gather(ctx context.Context, cs []Collector, open, closed bool) []Batch {
	out := make([]Batch, len(cs))
	var g errgroup.Group
	for i, c := range cs {
		out[i].Venue = c.Venue()
		if open {
			g.Go(func() error {
				markets, err := c.FetchOpenMarkets(ctx)
				if err != nil {
					logging.Errorf("[%s] fetch open markets failed: %v", c.Venue(), err)
					out[i].OpenErr = err
					return nil
				}
				out[i].Markets = markets
				return nil
			})
		}
		if closed {
			g.Go(func() error {
				ids, err := c.FetchClosedIDs(ctx)
				if err != nil {
					logging.Errorf("[%s] fetch closed markets failed: %v", c.Venue(), err)
					out[i].ClosedErr = err
					return nil
				}
				out[i].Closed = ids
				return nil
			})
		}
	}
	g.Wait()
	return out
}

// Markets flattens the open markets of every batch, in collector order.
func Markets(batches []Batch) []MarketRecord {
	var out []MarketRecord
	for _, b := range batches {
		out = append(out, b.Markets...)
	}
	return out
}

// ClosedIDs flattens the closed ids of every batch, in collector order.
func ClosedIDs(batches []Batch) []string {
	var out []string
	for _, b := range batches {
		out = append(out, b.Closed...)
	}
	return out
}
