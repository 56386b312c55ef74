package chroma

import (
	"context"
	"fmt"

	"github.com/hetulpatel/arbmatch/internal/collectors"
)

// Mirror keeps a Chroma collection in step with the embedding store so vectors
// can be searched ad hoc. The matcher never reads from it.
type Mirror struct {
	client       *Client
	collectionID string
}

func NewMirror(ctx context.Context, client *Client, collection string) (*Mirror, error) {
	if client == nil {
		return nil, fmt.Errorf("chroma: client is required")
	}
	col, err := client.EnsureCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", collection, err)
	}
	return &Mirror{client: client, collectionID: col.ID}, nil
}

func (m *Mirror) CollectionID() string {
	return m.collectionID
}

func (m *Mirror) Upsert(ctx context.Context, records []collectors.MarketRecord, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return fmt.Errorf("chroma: %d records but %d vectors", len(records), len(vectors))
	}
	if len(records) == 0 {
		return nil
	}
	req := UpsertRequest{
		IDs:        make([]string, len(records)),
		Documents:  make([]string, len(records)),
		Metadatas:  make([]map[string]any, len(records)),
		Embeddings: vectors,
	}
	for i, r := range records {
		req.IDs[i] = r.ID
		req.Documents[i] = r.Descriptor
		req.Metadatas[i] = map[string]any{
			"venue":    string(r.Venue),
			"title":    r.Title,
			"category": r.Category,
		}
	}
	return m.client.Upsert(ctx, m.collectionID, req)
}

func (m *Mirror) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return m.client.Delete(ctx, m.collectionID, DeleteRequest{IDs: ids})
}

// Hit is one search result.
type Hit struct {
	ID         string
	Venue      collectors.Venue
	Title      string
	Descriptor string
	Similarity float64
}

// Search returns the n nearest mirrored markets on venue. Similarity is
// 1 - cosine distance.
func (m *Mirror) Search(ctx context.Context, vector []float32, venue collectors.Venue, n int) ([]Hit, error) {
	req := QueryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        n,
		Include:         []string{"documents", "metadatas", "distances"},
	}
	if venue != "" {
		req.Where = map[string]any{"venue": string(venue)}
	}
	resp, err := m.client.Query(ctx, m.collectionID, req)
	if err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}
	hits := make([]Hit, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		h := Hit{ID: id}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			h.Similarity = 1 - float64(resp.Distances[0][i])
		}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			h.Descriptor = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			md := resp.Metadatas[0][i]
			if v, ok := md["venue"].(string); ok {
				h.Venue = collectors.Venue(v)
			}
			if t, ok := md["title"].(string); ok {
				h.Title = t
			}
		}
		hits = append(hits, h)
	}
	return hits, nil
}
