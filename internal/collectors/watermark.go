package collectors

import (
	"sync"
	"time"
)

// Watermark is the "already fetched up to" timestamp of one collector path.
type Watermark struct {
	mu sync.Mutex
	at time.Time
}

// Get returns the current watermark; zero means nothing was fetched yet.
func (w *Watermark) Get() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.at
}

// Set records a new watermark.
func (w *Watermark) Set(t time.Time) {
	w.mu.Lock()
	w.at = t
	w.mu.Unlock()
}
