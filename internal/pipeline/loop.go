// Package pipeline drives collectors, the embedding store and the matcher:
// one bootstrap pass, then a fixed-interval incremental cycle until the
// context is cancelled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/embedstore"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/matches"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

const publishTimeout = 10 * time.Second

// Store is the embedding store as the loop uses it.
type Store interface {
	AddMarkets(ctx context.Context, records []collectors.MarketRecord)
	DeleteMarkets(ctx context.Context, ids []string)
	Snapshot() embedstore.Snapshot
	Stats() embedstore.Stats
	Save() error
}

// Matcher runs the two matching passes.
type Matcher interface {
	InitialPass(ctx context.Context, snap embedstore.Snapshot) iter.Seq[matches.MatchRecord]
	IncrementalPass(ctx context.Context, snap embedstore.Snapshot) iter.Seq[matches.MatchRecord]
	ProcessedCount() int
	MatchedCount() int
}

// MatchLog is the durable match log; the matcher appends, the loop saves on exit.
type MatchLog interface {
	Save() error
	Len() int
}

// Sink receives each match as it is produced.
type Sink interface {
	Publish(ctx context.Context, rec matches.MatchRecord) error
	Close() error
}

// NamedSink labels a sink for logs and metrics.
type NamedSink struct {
	Name string
	Sink Sink
}

// Catalog mirrors market listings and closures, e.g. into sqlite.
type Catalog interface {
	UpsertMarkets(ctx context.Context, records []collectors.MarketRecord) error
	MarkClosed(ctx context.Context, venue collectors.Venue, ids []string) error
}

type Config struct {
	Collectors []collectors.Collector
	Store      Store
	Matcher    Matcher
	Log        MatchLog
	Sinks      []NamedSink
	Catalog    Catalog
	Interval   time.Duration
	Now        func() time.Time
}

// Stats is the loop state exposed on the status endpoint.
type Stats struct {
	Phase             string           `json:"phase"`
	Cycles            int              `json:"cycles"`
	LastCycleAt       time.Time        `json:"last_cycle_at"`
	LastCycleDuration string           `json:"last_cycle_duration"`
	Store             embedstore.Stats `json:"store"`
	Processed         int              `json:"processed"`
	MatchedMarkets    int              `json:"matched_markets"`
	Matches           int              `json:"matches"`
}

type Loop struct {
	collectors []collectors.Collector
	store      Store
	matcher    Matcher
	log        MatchLog
	sinks      []NamedSink
	catalog    Catalog
	interval   time.Duration
	now        func() time.Time

	cycles int
	stats  atomic.Pointer[Stats]
}

func New(cfg Config) (*Loop, error) {
	if len(cfg.Collectors) == 0 {
		return nil, fmt.Errorf("pipeline: at least one collector is required")
	}
	if cfg.Store == nil || cfg.Matcher == nil || cfg.Log == nil {
		return nil, fmt.Errorf("pipeline: store, matcher and match log are required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("pipeline: interval must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	l := &Loop{
		collectors: cfg.Collectors,
		store:      cfg.Store,
		matcher:    cfg.Matcher,
		log:        cfg.Log,
		sinks:      cfg.Sinks,
		catalog:    cfg.Catalog,
		interval:   cfg.Interval,
		now:        now,
	}
	l.stats.Store(&Stats{Phase: "starting"})
	return l, nil
}

// Stats returns the figures recorded at the end of the last cycle. Safe to
// call from any goroutine.
func (l *Loop) Stats() Stats {
	return *l.stats.Load()
}

// Run bootstraps, then cycles every interval until ctx is cancelled, then
// shuts down. The returned error only reports shutdown failures.
func (l *Loop) Run(ctx context.Context) error {
	l.bootstrap(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Infof("[loop] stop requested")
			return l.shutdown()
		case <-ticker.C:
			l.cycle(ctx)
		}
	}
}

func (l *Loop) bootstrap(ctx context.Context) {
	start := l.now()
	batches := collectors.Gather(ctx, l.collectors, true, false)
	records := collectors.Markets(batches)
	logging.Infof("[loop] bootstrap: %d open markets", len(records))

	l.recordListings(ctx, batches)
	l.store.AddMarkets(ctx, records)

	found := l.drain(ctx, l.matcher.InitialPass(ctx, l.store.Snapshot()))
	l.finish("bootstrap", start, found)
}

func (l *Loop) cycle(ctx context.Context) {
	start := l.now()
	batches := collectors.Gather(ctx, l.collectors, true, true)

	closed := collectors.ClosedIDs(batches)
	l.store.DeleteMarkets(ctx, closed)
	l.recordClosures(ctx, batches)

	records := collectors.Markets(batches)
	l.recordListings(ctx, batches)
	l.store.AddMarkets(ctx, records)

	found := l.drain(ctx, l.matcher.IncrementalPass(ctx, l.store.Snapshot()))
	if len(records) > 0 || len(closed) > 0 || found > 0 {
		logging.Infof("[loop] cycle: +%d markets, -%d closed, %d matches", len(records), len(closed), found)
	}
	l.finish("cycle", start, found)
}

// drain publishes every match as the pass yields it.
func (l *Loop) drain(ctx context.Context, seq iter.Seq[matches.MatchRecord]) int {
	n := 0
	for rec := range seq {
		n++
		l.publish(ctx, rec)
	}
	return n
}

func (l *Loop) publish(ctx context.Context, rec matches.MatchRecord) {
	// The match is already committed; deliver it even if a stop is pending.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, s := range l.sinks {
		if err := s.Sink.Publish(pubCtx, rec); err != nil {
			metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			logging.Errorf("[loop] publish %s to %s: %v", rec.PairID, s.Name, err)
		}
	}
}

func (l *Loop) recordListings(ctx context.Context, batches []collectors.Batch) {
	if l.catalog == nil {
		return
	}
	for _, b := range batches {
		if err := l.catalog.UpsertMarkets(ctx, b.Markets); err != nil {
			logging.Errorf("[loop] catalog upsert %s: %v", b.Venue, err)
		}
	}
}

func (l *Loop) recordClosures(ctx context.Context, batches []collectors.Batch) {
	if l.catalog == nil {
		return
	}
	for _, b := range batches {
		if err := l.catalog.MarkClosed(ctx, b.Venue, b.Closed); err != nil {
			logging.Errorf("[loop] catalog close %s: %v", b.Venue, err)
		}
	}
}

func (l *Loop) finish(phase string, start time.Time, found int) {
	took := l.now().Sub(start)
	metrics.CycleDuration.WithLabelValues(phase).Observe(took.Seconds())
	l.cycles++
	logging.Debugf("[loop] %s done in %s (%d matches)", phase, took, found)
	l.stats.Store(&Stats{
		Phase:             phase,
		Cycles:            l.cycles,
		LastCycleAt:       start.UTC(),
		LastCycleDuration: took.String(),
		Store:             l.store.Stats(),
		Processed:         l.matcher.ProcessedCount(),
		MatchedMarkets:    l.matcher.MatchedCount(),
		Matches:           l.log.Len(),
	})
}

// shutdown releases collectors, then saves the store, then the match log, then
// closes sinks. Every step runs even when an earlier one fails.
func (l *Loop) shutdown() error {
	var errs []error
	for _, c := range l.collectors {
		c.Close()
	}
	if err := l.store.Save(); err != nil {
		logging.Errorf("[loop] final store save: %v", err)
		errs = append(errs, fmt.Errorf("save store: %w", err))
	}
	if err := l.log.Save(); err != nil {
		logging.Errorf("[loop] final match log save: %v", err)
		errs = append(errs, fmt.Errorf("save match log: %w", err))
	}
	for _, s := range l.sinks {
		if err := s.Sink.Close(); err != nil {
			logging.Errorf("[loop] close %s: %v", s.Name, err)
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name, err))
		}
	}
	logging.Infof("[loop] shut down after %d cycles", l.cycles)
	return errors.Join(errs...)
}
