package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
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
	defaultBaseURL   = "https://gamma-api.polymarket.com"
	defaultPageLimit = 500
)

// tagCategories maps gamma tag ids onto the shared category names.
var tagCategories = map[string]string{
	"1":      "Sports",
	"2":      "General Affairs",
	"144":    "General Affairs",
	"159":    "General Affairs",
	"100265": "General Affairs",
	"101970": "General Affairs",
	"100343": "Mentions",
	"21":     "Economics",
	"120":    "Economics",
	"100328": "Economics",
	"1013":   "Earnings",
	"596":    "Culture",
	"74":     "Tech",
	"1401":   "Tech",
	"84":     "Weather",
	"414":    "Health",
}

// Client walks the gamma /markets listing. Gamma paginates by offset; the
// offset is carried between pages as the walk cursor.
type Client struct {
	baseURL   string
	pageLimit int
	pool      *collectors.SessionPool
	now       func() time.Time

	created collectors.Watermark
	closed  collectors.Watermark
}

// Config controls optional overrides for the client.
type Config struct {
	BaseURL     string
	Sessions    int
	PageLimit   int
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	Now         func() time.Time
}

// NewClient builds a Polymarket collector with sane defaults.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	limit := cfg.PageLimit
	if limit <= 0 {
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
			Venue:       collectors.VenuePolymarket,
			Sessions:    cfg.Sessions,
			Timeout:     cfg.Timeout,
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     cfg.Backoff,
		}),
	}
	c.closed.Set(now())
	return c
}

func (c *Client) Venue() collectors.Venue {
	return collectors.VenuePolymarket
}

// FetchOpenMarkets returns open markets that started since the previous
// successful call.
func (c *Client) FetchOpenMarkets(ctx context.Context) ([]collectors.MarketRecord, error) {
	started := c.now()
	since := c.created.Get()

	var out []collectors.MarketRecord
	err := c.walk(ctx, func(q url.Values) {
		q.Set("closed", "false")
		q.Set("include_tag", "true")
		if !since.IsZero() {
			q.Set("start_date_min", since.UTC().Format(time.RFC3339))
		}
	}, func(page []market) {
		for i := range page {
			if page[i].ID == "" {
				continue
			}
			out = append(out, normalizeMarket(&page[i]))
		}
	})
	if err != nil {
		metrics.CollectorWalks.WithLabelValues("polymarket", "open", "failed").Inc()
		return nil, fmt.Errorf("polymarket open markets: %w", err)
	}

	c.created.Set(started)
	metrics.CollectorWalks.WithLabelValues("polymarket", "open", "ok").Inc()
	metrics.CollectorMarkets.WithLabelValues("polymarket", "open").Add(float64(len(out)))
	logging.Infof("[polymarket] fetched %d open markets", len(out))
	return out, nil
}

// FetchClosedIDs returns ids of markets that closed since the previous
// successful call.
func (c *Client) FetchClosedIDs(ctx context.Context) ([]string, error) {
	started := c.now()
	since := c.closed.Get()

	var out []string
	err := c.walk(ctx, func(q url.Values) {
		q.Set("closed", "true")
		q.Set("end_date_min", since.UTC().Format(time.RFC3339))
	}, func(page []market) {
		for _, m := range page {
			if m.ID != "" {
				out = append(out, string(m.ID))
			}
		}
	})
	if err != nil {
		metrics.CollectorWalks.WithLabelValues("polymarket", "closed", "failed").Inc()
		return nil, fmt.Errorf("polymarket closed markets: %w", err)
	}

	c.closed.Set(started)
	metrics.CollectorWalks.WithLabelValues("polymarket", "closed", "ok").Inc()
	metrics.CollectorMarkets.WithLabelValues("polymarket", "closed").Add(float64(len(out)))
	if len(out) > 0 {
		logging.Infof("[polymarket] %d markets closed", len(out))
	}
	return out, nil
}

// Close releases the pooled connections.
func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) walk(ctx context.Context, params func(url.Values), handle func([]market)) error {
	cursor := "0"
	for page := 1; cursor != ""; page++ {
		offset, err := strconv.Atoi(cursor)
		if err != nil {
			return fmt.Errorf("bad offset cursor %q: %w", cursor, err)
		}
		u, err := url.Parse(c.baseURL + "/markets")
		if err != nil {
			return err
		}
		q := u.Query()
		q.Set("limit", strconv.Itoa(c.pageLimit))
		q.Set("offset", strconv.Itoa(offset))
		params(q)
		u.RawQuery = q.Encode()

		var markets []market
		if err := c.pool.GetJSON(ctx, u.String(), &markets); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		logging.Debugf("[polymarket] page %d: %d markets (offset %d)", page, len(markets), offset)
		handle(markets)

		cursor = nextCursor(offset, c.pageLimit, len(markets))
	}
	return nil
}

// nextCursor returns the next offset while pages come back full.
func nextCursor(offset, limit, got int) string {
	if got < limit {
		return ""
	}
	return strconv.Itoa(offset + limit)
}

func normalizeMarket(m *market) collectors.MarketRecord {
	return collectors.MarketRecord{
		ID:         string(m.ID),
		Title:      collectors.NormalizeTitle(m.Question),
		Descriptor: collectors.BuildDescriptor(m.Question, m.Description),
		Venue:      collectors.VenuePolymarket,
		Category:   categoryForTags(m.Tags),
	}
}

func categoryForTags(tags []tag) string {
	for _, t := range tags {
		if cat, ok := tagCategories[string(t.ID)]; ok {
			return cat
		}
	}
	return ""
}

type market struct {
	ID          flexString `json:"id"`
	Question    string     `json:"question"`
	Description string     `json:"description"`
	Closed      bool       `json:"closed"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	Tags        []tag      `json:"tags"`
}

type tag struct {
	ID    flexString `json:"id"`
	Label string     `json:"label"`
}

// flexString accepts ids encoded either as JSON strings or numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
