package matches

import (
	"fmt"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/hashutil"
)

// PairID is an order-independent hash of both venue:id keys.
func PairID(a, b collectors.MarketRecord) string {
	return hashutil.HashUnordered(
		fmt.Sprintf("%s:%s", a.Venue, a.ID),
		fmt.Sprintf("%s:%s", b.Venue, b.ID),
	)
}

// VerdictCacheKey keys a classifier decision by tier, pair and descriptor text,
// so an edited descriptor never reuses a stale verdict.
func VerdictCacheKey(tier Tier, a, b collectors.MarketRecord) string {
	left := fmt.Sprintf("%s:%s:%s", a.Venue, a.ID, hashutil.HashStrings(a.Descriptor))
	right := fmt.Sprintf("%s:%s:%s", b.Venue, b.ID, hashutil.HashStrings(b.Descriptor))
	return fmt.Sprintf("%s:%s", tier, hashutil.HashUnordered(left, right))
}
