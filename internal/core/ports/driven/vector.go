package driven

import (
	"context"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// VectorIndex stores embedded chunks and serves filtered similarity search.
// Backed by SQLite for durable storage.
type VectorIndex interface {
	// Upsert stores the given chunks with their embeddings. Chunks are
	// keyed by their content-derived IDs, so re-ingesting an unchanged
	// article replaces rather than duplicates. Stale chunks belonging to
	// the same articles are removed in the same transaction. The index
	// is durable once Upsert returns.
	Upsert(ctx context.Context, chunks []domain.DocumentChunk) error

	// Search returns the k nearest chunks to the query vector, restricted
	// to sources allowed by the filter.
	Search(ctx context.Context, query []float32, k int, filter domain.QueryFilter) ([]VectorHit, error)

	// Stats reports the stored chunk count and the sorted set of
	// distinct source names.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk, metadata included.
	Chunk domain.DocumentChunk

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
