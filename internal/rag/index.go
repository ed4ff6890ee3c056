package rag

import (
	"math"
	"sort"

	"github.com/Rrens/funnair-assistant/internal/domain"
)

// Index is an immutable in-memory vector index over document chunks
type Index struct {
	chunks []domain.Chunk
	norms  []float64
}

// NewIndex builds an index; chunks must already carry embeddings
func NewIndex(chunks []domain.Chunk) *Index {
	norms := make([]float64, len(chunks))
	for i, c := range chunks {
		norms[i] = norm(c.Embedding)
	}
	return &Index{chunks: chunks, norms: norms}
}

// Len returns the number of indexed chunks
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

// Search returns the k chunks most similar to query by cosine similarity,
// best first. Equal scores keep document order.
func (ix *Index) Search(query []float32, k int) []domain.ScoredChunk {
	if ix.Len() == 0 || k <= 0 {
		return nil
	}

	qn := norm(query)
	if qn == 0 {
		return nil
	}

	hits := make([]domain.ScoredChunk, 0, len(ix.chunks))
	for i, c := range ix.chunks {
		if len(c.Embedding) != len(query) || ix.norms[i] == 0 {
			continue
		}
		hits = append(hits, domain.ScoredChunk{
			Chunk: c,
			Score: dot(query, c.Embedding) / (qn * ix.norms[i]),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
