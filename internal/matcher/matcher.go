// Package matcher pairs markets across venues: nearest-neighbour retrieval over
// embedding vectors, a similarity gate, then an ordered cascade of same-event
// verifiers.
package matcher

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/embedstore"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/matches"
	"github.com/hetulpatel/arbmatch/internal/metrics"
	"github.com/hetulpatel/arbmatch/internal/validator"
)

const (
	defaultTopN      = 10
	defaultThreshold = 0.7
)

// Verifier decides whether two markets describe the same event.
// *validator.Service satisfies it.
type Verifier interface {
	Tier() matches.Tier
	Classify(ctx context.Context, a, b collectors.MarketRecord) validator.Verdict
}

type Config struct {
	TopN      int
	Threshold float64
	// ScanVenue is the venue iterated by the initial pass.
	ScanVenue collectors.Venue
	// Verifiers are tried in order; the first confirming tier wins.
	Verifiers []Verifier
	Log       *matches.Log
	// Workers > 1 evaluates markets concurrently. Results are still committed
	// in input order.
	Workers int
	Logger  *Logger
	Now     func() time.Time
}

// Matcher owns the processed set and the match log. Passes must not overlap.
type Matcher struct {
	topN      int
	threshold float64
	scanVenue collectors.Venue
	verifiers []Verifier
	log       *matches.Log
	workers   int
	logger    *Logger
	now       func() time.Time

	processed map[string]struct{}
	matched   map[string]struct{}
}

type confirmed struct {
	candidate  collectors.MarketRecord
	similarity float64
	tier       matches.Tier
}

// evaluation is the outcome of one market's cascade.
type evaluation struct {
	id    string
	query collectors.MarketRecord
	// noVector leaves the id unprocessed for a later pass.
	noVector bool
	// cancelled means the cascade was cut short; the id stays unprocessed.
	cancelled  bool
	considered []string
	match      *confirmed
}

func New(cfg Config) (*Matcher, error) {
	if len(cfg.Verifiers) == 0 {
		return nil, fmt.Errorf("matcher: at least one verifier is required")
	}
	if cfg.Log == nil {
		return nil, fmt.Errorf("matcher: match log is required")
	}
	if _, err := cfg.ScanVenue.Opposite(); err != nil {
		return nil, fmt.Errorf("matcher: scan venue: %w", err)
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	threshold := cfg.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = defaultThreshold
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := &Matcher{
		topN:      topN,
		threshold: threshold,
		scanVenue: cfg.ScanVenue,
		verifiers: cfg.Verifiers,
		log:       cfg.Log,
		workers:   workers,
		logger:    cfg.Logger,
		now:       now,
		processed: make(map[string]struct{}),
		matched:   make(map[string]struct{}),
	}
	for _, rec := range cfg.Log.Records() {
		p, k := rec.IDs()
		m.matched[p] = struct{}{}
		m.matched[k] = struct{}{}
	}
	return m, nil
}

// InitialPass marks every embedded market as processed, then scans the
// markets of the scan venue. Markets still awaiting a vector are left for
// IncrementalPass. Replaying it over the same snapshot yields nothing.
func (m *Matcher) InitialPass(ctx context.Context, snap embedstore.Snapshot) iter.Seq[matches.MatchRecord] {
	return func(yield func(matches.MatchRecord) bool) {
		var queue []string
		for _, id := range snap.Order {
			if m.IsProcessed(id) {
				continue
			}
			if _, ok := snap.Vectors[id]; !ok {
				continue
			}
			m.processed[id] = struct{}{}
			if snap.Metadata[id].Venue == m.scanVenue {
				queue = append(queue, id)
			}
		}
		metrics.ProcessedMarkets.Set(float64(len(m.processed)))
		logging.Infof("[matcher] initial pass: %d %s markets to scan", len(queue), m.scanVenue)
		m.run(ctx, snap, queue, "initial", yield)
	}
}

// IncrementalPass evaluates every embedded market not yet processed, from
// either venue, in snapshot order.
func (m *Matcher) IncrementalPass(ctx context.Context, snap embedstore.Snapshot) iter.Seq[matches.MatchRecord] {
	return func(yield func(matches.MatchRecord) bool) {
		var queue []string
		waiting := 0
		for _, id := range snap.Order {
			if m.IsProcessed(id) {
				continue
			}
			if _, ok := snap.Vectors[id]; !ok {
				waiting++
				continue
			}
			queue = append(queue, id)
		}
		if len(queue) > 0 || waiting > 0 {
			logging.Infof("[matcher] incremental pass: %d new markets, %d awaiting vectors", len(queue), waiting)
		}
		m.run(ctx, snap, queue, "incremental", yield)
	}
}

func (m *Matcher) run(ctx context.Context, snap embedstore.Snapshot, queue []string, pass string, yield func(matches.MatchRecord) bool) {
	if len(queue) == 0 {
		return
	}
	evaluated, found := 0, 0
	defer func() { m.logger.LogPass(pass, evaluated, found) }()

	emit := func(ev evaluation) bool {
		if !ev.cancelled && !ev.noVector {
			evaluated++
		}
		rec, ok := m.commit(ev)
		if !ok {
			return true
		}
		found++
		return yield(rec)
	}

	if m.workers > 1 {
		m.runPool(ctx, snap, queue, emit)
		return
	}
	for _, id := range queue {
		if ctx.Err() != nil {
			return
		}
		if !emit(m.evaluate(ctx, snap, id, m.isMatched)) {
			return
		}
	}
}

func (m *Matcher) evaluate(ctx context.Context, snap embedstore.Snapshot, id string, excluded func(string) bool) evaluation {
	ev := evaluation{id: id}
	query, ok := snap.Metadata[id]
	vec, hasVec := snap.Vectors[id]
	if !ok || !hasVec {
		ev.noVector = true
		return ev
	}
	ev.query = query
	if excluded(id) {
		return ev
	}

	cands := candidates(snap, query, vec, m.topN, excluded)
	for _, c := range cands {
		ev.considered = append(ev.considered, c.record.ID)
	}
	if len(cands) == 0 || cands[0].similarity < m.threshold {
		return ev
	}

	for _, v := range m.verifiers {
		for _, c := range cands {
			if c.similarity < m.threshold {
				break
			}
			if ctx.Err() != nil {
				ev.cancelled = true
				return ev
			}
			verdict := v.Classify(ctx, query, c.record)
			if verdict.Same() {
				ev.match = &confirmed{candidate: c.record, similarity: c.similarity, tier: v.Tier()}
				return ev
			}
			if ctx.Err() != nil {
				ev.cancelled = true
				return ev
			}
		}
	}
	return ev
}

func (m *Matcher) commit(ev evaluation) (matches.MatchRecord, bool) {
	if ev.noVector || ev.cancelled {
		return matches.MatchRecord{}, false
	}
	m.processed[ev.id] = struct{}{}
	defer func() { metrics.ProcessedMarkets.Set(float64(len(m.processed))) }()
	if ev.match == nil {
		return matches.MatchRecord{}, false
	}

	rec, err := matches.NewRecord(ev.query, ev.match.candidate, ev.match.similarity, ev.match.tier, m.now())
	if err != nil {
		logging.Errorf("[matcher] build record %s: %v", ev.id, err)
		return matches.MatchRecord{}, false
	}
	m.matched[ev.id] = struct{}{}
	m.matched[ev.match.candidate.ID] = struct{}{}
	m.processed[ev.match.candidate.ID] = struct{}{}

	if err := m.log.Append(rec); err != nil {
		logging.Errorf("[matcher] match log write failed (kept in memory): %v", err)
	}
	metrics.Matches.WithLabelValues(string(rec.Tier)).Inc()
	m.logger.LogMatch(rec, m.threshold)
	return rec, true
}

func (m *Matcher) isMatched(id string) bool {
	_, ok := m.matched[id]
	return ok
}

func (m *Matcher) IsProcessed(id string) bool {
	_, ok := m.processed[id]
	return ok
}

// ProcessedCount returns the size of the processed set.
func (m *Matcher) ProcessedCount() int {
	return len(m.processed)
}

// MatchedCount returns the number of markets that are part of a match.
func (m *Matcher) MatchedCount() int {
	return len(m.matched)
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}
