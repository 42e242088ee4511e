// Package memory provides an in-memory vector index, used in tests and
// wherever durability is not needed.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory implementation of the vector index.
type Index struct {
	mu     sync.RWMutex
	chunks map[string]domain.DocumentChunk // keyed by chunk ID
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		chunks: make(map[string]domain.DocumentChunk),
	}
}

// Upsert stores chunks, replacing any existing chunks of the same articles.
func (i *Index) Upsert(_ context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	incoming := make(map[string]bool)
	for _, chunk := range chunks {
		incoming[chunk.ArticleURL] = true
	}
	for id, existing := range i.chunks {
		if incoming[existing.ArticleURL] {
			delete(i.chunks, id)
		}
	}

	for _, chunk := range chunks {
		i.chunks[chunk.ID] = chunk
	}
	return nil
}

// Search returns the k nearest chunks to the query vector, restricted
// to sources allowed by the filter.
func (i *Index) Search(_ context.Context, query []float32, k int, filter domain.QueryFilter) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	var hits []driven.VectorHit
	for _, chunk := range i.chunks {
		if !filter.Allows(chunk.Metadata[domain.MetaSource]) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Chunk:      chunk,
			Similarity: cosineSimilarity(query, chunk.Embedding),
		})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Similarity > hits[b].Similarity
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Stats reports the stored chunk count and the sorted distinct sources.
func (i *Index) Stats(_ context.Context) (domain.IndexStats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	seen := make(map[string]bool)
	for _, chunk := range i.chunks {
		seen[chunk.Metadata[domain.MetaSource]] = true
	}

	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	if len(sources) == 0 {
		sources = nil
	}
	return domain.IndexStats{
		TotalDocuments: len(i.chunks),
		Sources:        sources,
	}, nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

// cosineSimilarity computes the cosine similarity of two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
