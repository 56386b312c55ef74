package embed

import (
	"context"
	"errors"
	"testing"
)

type countingBatcher struct {
	calls  int
	inputs [][]string
}

func (b *countingBatcher) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.calls++
	b.inputs = append(b.inputs, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

type memCache struct {
	data   map[string][]float32
	getErr error
}

func (m *memCache) GetMany(ctx context.Context, keys []string) ([][]float32, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([][]float32, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memCache) SetMany(ctx context.Context, keys []string, values [][]float32) error {
	for i, k := range keys {
		m.data[k] = values[i]
	}
	return nil
}

func (m *memCache) Close() error { return nil }

func TestCachedEmbedsOnlyMisses(t *testing.T) {
	next := &countingBatcher{}
	c := NewCached(next, &memCache{data: map[string][]float32{}}, "m")

	if _, err := c.EmbedBatch(context.Background(), []string{"a", "bb"}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	out, err := c.EmbedBatch(context.Background(), []string{"bb", "ccc", "a"})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", next.calls)
	}
	if len(next.inputs[1]) != 1 || next.inputs[1][0] != "ccc" {
		t.Fatalf("second call should only carry the miss, got %v", next.inputs[1])
	}
	want := []float32{2, 3, 1}
	for i := range want {
		if out[i][0] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestCachedFallsBackOnCacheError(t *testing.T) {
	next := &countingBatcher{}
	c := NewCached(next, &memCache{data: map[string][]float32{}, getErr: errors.New("down")}, "m")
	out, err := c.EmbedBatch(context.Background(), []string{"a", "bb"})
	if err != nil || len(out) != 2 {
		t.Fatalf("got %v %v", out, err)
	}
	if len(next.inputs[0]) != 2 {
		t.Fatalf("expected all texts sent to the model, got %v", next.inputs[0])
	}
}

func TestCachedWithoutCache(t *testing.T) {
	next := &countingBatcher{}
	c := NewCached(next, nil, "m")
	c.EmbedBatch(context.Background(), []string{"a"})
	if next.calls != 1 {
		t.Fatalf("expected passthrough, got %d calls", next.calls)
	}
}
