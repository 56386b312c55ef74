package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

const (
	defaultBaseURL   = "https://api.elections.kalshi.com/trade-api/v2"
	defaultPageLimit = 1000
)

// Client walks the Kalshi /markets listing.
type Client struct {
	baseURL   string
	pageLimit int
	pool      *collectors.SessionPool
	now       func() time.Time

	created collectors.Watermark
	settled collectors.Watermark
}

// Config provides optional overrides.
type Config struct {
	BaseURL     string
	Sessions    int
	PageLimit   int
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	Now         func() time.Time
}

// NewClient builds a configured Kalshi collector. The settled-market
// watermark starts at construction time, so the first cleanup call only
// reports markets that settled after the process came up.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	limit := cfg.PageLimit
	if limit <= 0 || limit > defaultPageLimit {
		limit = defaultPageLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	c := &Client{
		baseURL:   base,
		pageLimit: limit,
		now:       now,
		pool: collectors.NewSessionPool(collectors.PoolConfig{
			Venue:       collectors.VenueKalshi,
			Sessions:    cfg.Sessions,
			Timeout:     cfg.Timeout,
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
		}),
	}
	c.settled.Set(now())
	return c
}

func (c *Client) Venue() collectors.Venue {
	return collectors.VenueKalshi
}

// FetchOpenMarkets returns every open market created since the previous
// successful call.
func (c *Client) FetchOpenMarkets(ctx context.Context) ([]collectors.MarketRecord, error) {
	started := c.now()
	since := c.created.Get()

	var out []collectors.MarketRecord
	err := c.walk(ctx, func(q url.Values) {
		q.Set("status", "open")
		q.Set("mve_filter", "exclude")
		if !since.IsZero() {
			q.Set("min_created_ts", strconv.FormatInt(since.Unix(), 10))
		}
	}, func(page []market) {
		for i := range page {
			out = append(out, normalizeMarket(&page[i]))
		}
	})
	if err != nil {
		metrics.CollectorWalks.WithLabelValues("kalshi", "open", "failed").Inc()
		return nil, fmt.Errorf("kalshi open markets: %w", err)
	}

	c.created.Set(started)
	metrics.CollectorWalks.WithLabelValues("kalshi", "open", "ok").Inc()
	metrics.CollectorMarkets.WithLabelValues("kalshi", "open").Add(float64(len(out)))
	logging.Infof("[kalshi] fetched %d open markets", len(out))
	return out, nil
}

// FetchClosedIDs returns tickers of markets settled since the previous
// successful call.
func (c *Client) FetchClosedIDs(ctx context.Context) ([]string, error) {
	started := c.now()
	since := c.settled.Get()

	var out []string
	err := c.walk(ctx, func(q url.Values) {
		q.Set("min_settled_ts", strconv.FormatInt(since.Unix(), 10))
	}, func(page []market) {
		for _, m := range page {
			out = append(out, m.Ticker)
		}
	})
	if err != nil {
		metrics.CollectorWalks.WithLabelValues("kalshi", "closed", "failed").Inc()
		return nil, fmt.Errorf("kalshi settled markets: %w", err)
	}

	c.settled.Set(started)
	metrics.CollectorWalks.WithLabelValues("kalshi", "closed", "ok").Inc()
	metrics.CollectorMarkets.WithLabelValues("kalshi", "closed").Add(float64(len(out)))
	if len(out) > 0 {
		logging.Infof("[kalshi] %d markets settled", len(out))
	}
	return out, nil
}

// Close releases the pooled connections.
func (c *Client) Close() {
	c.pool.Close()
}

// walk follows cursors until the server stops returning one. Any failure
// aborts the whole walk.
func (c *Client) walk(ctx context.Context, params func(url.Values), handle func([]market)) error {
	seen := make(map[string]struct{})
	cursor := ""
	for page := 1; ; page++ {
		u, err := url.Parse(c.baseURL + "/markets")
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set("limit", strconv.Itoa(c.pageLimit))
		params(q)
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		u.RawQuery = q.Encode()

		var resp marketsPage
		if err := c.pool.GetJSON(ctx, u.String(), &resp); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		if resp.Markets == nil {
			return &collectors.UpstreamError{Venue: collectors.VenueKalshi, Err: fmt.Errorf("page %d: response has no markets field", page)}
		}
		markets := *resp.Markets
		logging.Debugf("[kalshi] page %d: %d markets (cursor: %q)", page, len(markets), cursor)
		if len(markets) == 0 {
			return nil
		}
		handle(markets)

		if resp.Cursor == "" {
			return nil
		}
		if _, dup := seen[resp.Cursor]; dup {
			return &collectors.UpstreamError{Venue: collectors.VenueKalshi, Err: fmt.Errorf("page %d: cursor %q repeated", page, resp.Cursor)}
		}
		seen[resp.Cursor] = struct{}{}
		cursor = resp.Cursor
	}
}

func normalizeMarket(m *market) collectors.MarketRecord {
	return collectors.MarketRecord{
		ID:         m.Ticker,
		Title:      collectors.NormalizeTitle(m.Title),
		Descriptor: collectors.BuildDescriptor(m.Title, m.RulesPrimary, m.RulesSecondary),
		Venue:      collectors.VenueKalshi,
		Category:   normalizeCategory(m.Category),
	}
}

func normalizeCategory(raw string) string {
	switch raw {
	case "World", "Politics", "Elections":
		return "General Affairs"
	case "Crypto", "Financials", "Economics":
		return "Economics"
	default:
		return raw
	}
}

type marketsPage struct {
	Markets *[]market `json:"markets"`
	Cursor  string    `json:"cursor"`
}

type market struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	Category       string `json:"category"`
	RulesPrimary   string `json:"rules_primary"`
	RulesSecondary string `json:"rules_secondary"`
}
