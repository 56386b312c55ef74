package collectors

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned when every attempt of a request hit HTTP 429.
var ErrRateLimited = errors.New("rate limit retry budget exhausted")

// UpstreamError reports a failed pagination walk: a non-200 status, a
// transport failure, or a page that could not be decoded.
type UpstreamError struct {
	Venue  Venue
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s API status %d: %s", e.Venue, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s API: %v", e.Venue, e.Err)
	default:
		return fmt.Sprintf("%s API: unknown failure", e.Venue)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
