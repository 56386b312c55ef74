package matcher

import (
	"cmp"
	"math"
	"slices"

	"github.com/hetulpatel/arbmatch/internal/collectors"
	"github.com/hetulpatel/arbmatch/internal/embedstore"
)

type candidate struct {
	record     collectors.MarketRecord
	similarity float64
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and zero
// vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// candidates ranks every embedded market on the opposite venue by similarity to
// the query vector and keeps the top n. Equal scores keep snapshot order.
func candidates(snap embedstore.Snapshot, query collectors.MarketRecord, vec []float32, n int, excluded func(string) bool) []candidate {
	target, err := query.Venue.Opposite()
	if err != nil {
		return nil
	}
	var out []candidate
	for _, id := range snap.Order {
		rec, ok := snap.Metadata[id]
		if !ok || rec.Venue != target || excluded(id) {
			continue
		}
		other, ok := snap.Vectors[id]
		if !ok {
			continue
		}
		out = append(out, candidate{record: rec, similarity: Cosine(vec, other)})
	}
	slices.SortStableFunc(out, func(a, b candidate) int {
		return cmp.Compare(b.similarity, a.similarity)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
