package embed

import (
	"context"

	"github.com/hetulpatel/arbmatch/internal/cache"
	"github.com/hetulpatel/arbmatch/internal/hashutil"
	"github.com/hetulpatel/arbmatch/internal/logging"
	"github.com/hetulpatel/arbmatch/internal/metrics"
)

// Batcher is the batch contract shared by Client and Cached.
type Batcher interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Cached serves repeated descriptors from an EmbeddingCache and sends only the
// misses to the model, still as a single batch.
type Cached struct {
	next  Batcher
	cache cache.EmbeddingCache
	model string
}

func NewCached(next Batcher, c cache.EmbeddingCache, model string) *Cached {
	return &Cached{next: next, cache: c, model: model}
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if c.cache == nil || len(texts) == 0 {
		return c.next.EmbedBatch(ctx, texts)
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = hashutil.HashStrings(c.model, t)
	}
	out, err := c.cache.GetMany(ctx, keys)
	if err != nil || len(out) != len(texts) {
		logging.Errorf("[embed-cache] get failed, embedding all %d texts: %v", len(texts), err)
		out = make([][]float32, len(texts))
	}

	var missIdx []int
	var missTexts []string
	for i, v := range out {
		if v == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, texts[i])
		}
	}
	metrics.EmbedCacheHits.Add(float64(len(texts) - len(missIdx)))
	if len(missIdx) == 0 {
		return out, nil
	}

	vecs, err := c.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	missKeys := make([]string, len(missIdx))
	for j, i := range missIdx {
		out[i] = vecs[j]
		missKeys[j] = keys[i]
	}
	if err := c.cache.SetMany(ctx, missKeys, vecs); err != nil {
		logging.Errorf("[embed-cache] set failed: %v", err)
	}
	return out, nil
}
