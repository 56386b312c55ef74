package collectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

const (
	defaultSessions    = 2
	defaultMaxAttempts = 5
	defaultTimeout     = 20 * time.Second
)

// PoolConfig controls a SessionPool.
type PoolConfig struct {
	Venue       Venue
	Sessions    int
	Timeout     time.Duration
	MaxAttempts int
	// Backoff is multiplied by the attempt number before retrying a 429.
	Backoff time.Duration
}

// SessionPool spreads requests round-robin over a fixed set of HTTP clients,
// each with its own keep-alive connections. A 429 response is retried on the
// next session in the rotation.
type SessionPool struct {
	venue       Venue
	sessions    []*http.Client
	maxAttempts int
	backoff     time.Duration

	mu   sync.Mutex
	next int
}

// NewSessionPool builds a pool with sane defaults.
func NewSessionPool(cfg PoolConfig) *SessionPool {
	n := cfg.Sessions
	if n <= 0 {
		n = defaultSessions
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	sessions := make([]*http.Client, n)
	for i := range sessions {
		sessions[i] = &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}
	return &SessionPool{
		venue:       cfg.Venue,
		sessions:    sessions,
		maxAttempts: attempts,
		backoff:     cfg.Backoff,
	}
}

// Size returns the number of sessions in the rotation.
func (p *SessionPool) Size() int {
	return len(p.sessions)
}

func (p *SessionPool) pick() (int, *http.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.next
	p.next = (p.next + 1) % len(p.sessions)
	return idx, p.sessions[idx]
}

// GetJSON issues a GET and decodes a 200 body into dst. Rate-limited attempts
// rotate to the next session; every other failure is returned immediately.
func (p *SessionPool) GetJSON(ctx context.Context, rawURL string, dst any) error {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		idx, client := p.pick()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &UpstreamError{Venue: p.venue, Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			metrics.CollectorRequests.WithLabelValues(string(p.venue), "transport_error").Inc()
			return &UpstreamError{Venue: p.venue, Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			metrics.CollectorRequests.WithLabelValues(string(p.venue), "rate_limited").Inc()
			logging.Debugf("[%s] 429 on session %d (attempt %d/%d)", p.venue, idx, attempt, p.maxAttempts)
			if attempt < p.maxAttempts {
				if err := p.wait(ctx, attempt); err != nil {
					return err
				}
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			metrics.CollectorRequests.WithLabelValues(string(p.venue), "http_error").Inc()
			return &UpstreamError{Venue: p.venue, Status: resp.StatusCode, Body: string(body)}
		}

		err = json.NewDecoder(resp.Body).Decode(dst)
		resp.Body.Close()
		if err != nil {
			metrics.CollectorRequests.WithLabelValues(string(p.venue), "malformed").Inc()
			return &UpstreamError{Venue: p.venue, Err: fmt.Errorf("decode page: %w", err)}
		}
		metrics.CollectorRequests.WithLabelValues(string(p.venue), "ok").Inc()
		return nil
	}
	return fmt.Errorf("%s: %d attempts: %w", p.venue, p.maxAttempts, ErrRateLimited)
}

func (p *SessionPool) wait(ctx context.Context, attempt int) error {
	if p.backoff <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(attempt) * p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close drops idle keep-alive connections of every session.
func (p *SessionPool) Close() {
	for _, s := range p.sessions {
		s.CloseIdleConnections()
	}
}
