// Package embedstore owns market metadata and embedding vectors keyed by
// market id. All mutation happens through AddMarkets and DeleteMarkets on a
// single goroutine; readers work from Snapshot copies.
package embedstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

const defaultSaveInterval = 60

// Embedder turns descriptors into vectors, one per input and in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Mirror receives a copy of every embedded vector and every purge.
type Mirror interface {
	Upsert(ctx context.Context, records []collectors.MarketRecord, vectors [][]float32) error
	Delete(ctx context.Context, ids []string) error
}

// Config controls how the store is constructed.
type Config struct {
	Embedder Embedder
	// Path of the snapshot file. Empty disables saving.
	Path string
	// SaveInterval is the number of newly embedded records between autosaves.
	SaveInterval int
	Mirror       Mirror
	Now          func() time.Time
}

// Store holds id -> metadata and id -> vector.
type Store struct {
	embedder     Embedder
	mirror       Mirror
	path         string
	saveInterval int
	now          func() time.Time

	metadata map[string]collectors.MarketRecord
	vectors  map[string][]float32
	order    []string
	seen     map[string]struct{}
	awaiting []string
	pending  map[string]deletionState

	totalProcessed int
	lastSaveCount  int
}

// Snapshot is a point-in-time copy of the store contents. Order lists the ids
// of Metadata in insertion order.
type Snapshot struct {
	Metadata map[string]collectors.MarketRecord
	Vectors  map[string][]float32
	Order    []string
}

// Stats summarizes the store for logs and the status endpoint.
type Stats struct {
	Markets           int `json:"markets"`
	Vectors           int `json:"vectors"`
	AwaitingEmbedding int `json:"awaiting_embedding"`
	PendingDeletions  int `json:"pending_deletions"`
	TotalProcessed    int `json:"total_processed"`
	SinceSave         int `json:"since_save"`
}

func New(cfg Config) (*Store, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("embedstore: embedder is required")
	}
	interval := cfg.SaveInterval
	if interval <= 0 {
		interval = defaultSaveInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		embedder:     cfg.Embedder,
		mirror:       cfg.Mirror,
		path:         cfg.Path,
		saveInterval: interval,
		now:          now,
		metadata:     make(map[string]collectors.MarketRecord),
		vectors:      make(map[string][]float32),
		seen:         make(map[string]struct{}),
		pending:      make(map[string]deletionState),
	}, nil
}

// AddMarkets records every not-yet-seen market and embeds the new descriptors,
// together with any left over from a failed batch, in one call. When the
// embedder fails the metadata is kept and the ids are retried next time.
func (s *Store) AddMarkets(ctx context.Context, records []collectors.MarketRecord) {
	var fresh int
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		if _, ok := s.seen[r.ID]; ok {
			continue
		}
		s.seen[r.ID] = struct{}{}
		s.metadata[r.ID] = r
		s.order = append(s.order, r.ID)
		s.awaiting = append(s.awaiting, r.ID)
		fresh++
	}
	defer s.updateGauges()

	if len(s.awaiting) == 0 {
		return
	}
	batch := s.awaiting
	texts := make([]string, len(batch))
	for i, id := range batch {
		texts[i] = s.metadata[id].Descriptor
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vecs) != len(batch) {
		err = fmt.Errorf("embedder returned %d vectors for %d descriptors", len(vecs), len(batch))
	}
	if err != nil {
		metrics.EmbedBatches.WithLabelValues("failed").Inc()
		logging.Errorf("[embed-store] batch of %d failed, retrying next cycle: %v", len(batch), err)
		return
	}
	metrics.EmbedBatches.WithLabelValues("ok").Inc()

	embedded := make([]collectors.MarketRecord, len(batch))
	for i, id := range batch {
		s.vectors[id] = vecs[i]
		embedded[i] = s.metadata[id]
	}
	s.awaiting = nil
	s.totalProcessed += len(batch)
	logging.Infof("[embed-store] embedded %d markets (%d new), %d total", len(batch), fresh, len(s.vectors))

	if s.mirror != nil {
		if err := s.mirror.Upsert(ctx, embedded, vecs); err != nil {
			logging.Errorf("[embed-store] mirror upsert failed: %v", err)
		}
	}

	if s.totalProcessed-s.lastSaveCount >= s.saveInterval {
		if err := s.Save(); err != nil {
			logging.Errorf("[embed-store] autosave failed: %v", err)
			return
		}
		s.lastSaveCount = s.totalProcessed
	}
}

// DeleteMarkets starts a pending deletion for each id and applies both
// removals. An id absent from a map counts as already removed from it. Purged
// ids leave the seen set, so a later re-listing is treated as new.
func (s *Store) DeleteMarkets(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		s.requestDeletion(id)
	}

	var purgedIDs []string
	for _, id := range s.pendingIDs() {
		s.removeMetadata(id)
		if s.removeVector(id) == purged {
			purgedIDs = append(purgedIDs, id)
		}
	}
	s.compactOrder()
	s.updateGauges()

	if len(purgedIDs) == 0 {
		return
	}
	logging.Infof("[embed-store] deleted %d markets", len(purgedIDs))
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, purgedIDs); err != nil {
			logging.Errorf("[embed-store] mirror delete failed: %v", err)
		}
	}
}

func (s *Store) requestDeletion(id string) bool {
	if _, ok := s.pending[id]; ok {
		logging.Warnf("[embed-store] duplicate deletion request for %s skipped", id)
		return false
	}
	s.pending[id] = awaitingBoth
	return true
}

func (s *Store) removeMetadata(id string) deletionState {
	state, ok := s.pending[id]
	if !ok {
		return purged
	}
	delete(s.metadata, id)
	s.awaiting = slices.DeleteFunc(s.awaiting, func(a string) bool { return a == id })
	return s.advance(id, state.metadataRemoved())
}

func (s *Store) removeVector(id string) deletionState {
	state, ok := s.pending[id]
	if !ok {
		return purged
	}
	delete(s.vectors, id)
	return s.advance(id, state.vectorRemoved())
}

func (s *Store) advance(id string, next deletionState) deletionState {
	if next != purged {
		s.pending[id] = next
		return next
	}
	delete(s.pending, id)
	delete(s.seen, id)
	return purged
}

func (s *Store) pendingIDs() []string {
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Store) compactOrder() {
	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		_, ok := s.metadata[id]
		return !ok
	})
}

// Snapshot copies the current maps. Vectors are shared, never mutated.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Metadata: make(map[string]collectors.MarketRecord, len(s.metadata)),
		Vectors:  make(map[string][]float32, len(s.vectors)),
		Order:    slices.Clone(s.order),
	}
	for id, m := range s.metadata {
		snap.Metadata[id] = m
	}
	for id, v := range s.vectors {
		snap.Vectors[id] = v
	}
	return snap
}

func (s *Store) Stats() Stats {
	return Stats{
		Markets:           len(s.metadata),
		Vectors:           len(s.vectors),
		AwaitingEmbedding: len(s.awaiting),
		PendingDeletions:  len(s.pending),
		TotalProcessed:    s.totalProcessed,
		SinceSave:         s.totalProcessed - s.lastSaveCount,
	}
}

func (s *Store) updateGauges() {
	metrics.StoreMarkets.Set(float64(len(s.metadata)))
	metrics.StoreAwaitingEmbedding.Set(float64(len(s.awaiting)))
}
