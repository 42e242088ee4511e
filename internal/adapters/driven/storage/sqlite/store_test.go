package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func chunk(id, articleURL, content, source string, position int, embedding []float32) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:         id,
		ArticleURL: articleURL,
		Content:    content,
		Position:   position,
		Embedding:  embedding,
		Metadata: map[string]string{
			domain.MetaTitle:  "Title of " + id,
			domain.MetaSource: source,
			domain.MetaURL:    articleURL,
		},
	}
}

func TestUpsertAndSearch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx, []domain.DocumentChunk{
		chunk("c1", "http://a.com/1", "rate cut expected", "moneycontrol", 0, []float32{1, 0, 0}),
		chunk("c2", "http://a.com/2", "gold prices surge", "moneycontrol", 0, []float32{0, 1, 0}),
		chunk("c3", "http://b.com/1", "bond yields fall", "economic_times", 0, []float32{0.9, 0.1, 0}),
	})
	require.NoError(t, err)

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 2, domain.QueryFilter{})

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "c3", hits[1].Chunk.ID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestSearch_SourceFilter(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.DocumentChunk{
		chunk("c1", "http://a.com/1", "rbi policy", "moneycontrol", 0, []float32{1, 0}),
		chunk("c2", "http://b.com/1", "rbi policy", "economic_times", 0, []float32{1, 0}),
	}))

	hits, err := store.Search(ctx, []float32{1, 0}, 10, domain.QueryFilter{Sources: []string{"economic_times"}})

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].Chunk.ID)
}

func TestSearch_EmptyIndex(t *testing.T) {
	store, _ := newTestStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0}, 5, domain.QueryFilter{})

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestUpsert_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	chunks := []domain.DocumentChunk{
		chunk("c1", "http://a.com/1", "part one", "moneycontrol", 0, []float32{1, 0}),
		chunk("c2", "http://a.com/1", "part two", "moneycontrol", 1, []float32{0, 1}),
	}

	require.NoError(t, store.Upsert(ctx, chunks))
	require.NoError(t, store.Upsert(ctx, chunks))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
}

func TestUpsert_ReplacesStaleChunks(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.DocumentChunk{
		chunk("old1", "http://a.com/1", "old part one", "moneycontrol", 0, []float32{1, 0}),
		chunk("old2", "http://a.com/1", "old part two", "moneycontrol", 1, []float32{0, 1}),
		chunk("other", "http://b.com/1", "unrelated", "economic_times", 0, []float32{1, 1}),
	}))

	// The article shrank to a single, different chunk.
	require.NoError(t, store.Upsert(ctx, []domain.DocumentChunk{
		chunk("new1", "http://a.com/1", "rewritten", "moneycontrol", 0, []float32{1, 0}),
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)

	hits, err := store.Search(ctx, []float32{1, 0}, 10, domain.QueryFilter{Sources: []string{"moneycontrol"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "new1", hits[0].Chunk.ID)
	assert.Equal(t, "rewritten", hits[0].Chunk.Content)
}

func TestStats(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalDocuments)
	assert.Empty(t, stats.Sources)

	require.NoError(t, store.Upsert(ctx, []domain.DocumentChunk{
		chunk("c1", "http://a.com/1", "x", "moneycontrol", 0, []float32{1}),
		chunk("c2", "http://b.com/1", "y", "economic_times", 0, []float32{1}),
		chunk("c3", "http://b.com/2", "z", "economic_times", 0, []float32{1}),
	}))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, []string{"economic_times", "moneycontrol"}, stats.Sources)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []domain.DocumentChunk{
		chunk("c1", "http://a.com/1", "durable", "moneycontrol", 0, []float32{0.5, -0.5}),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.Search(ctx, []float32{0.5, -0.5}, 1, domain.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, []float32{0.5, -0.5}, hits[0].Chunk.Embedding)
	assert.Equal(t, "moneycontrol", hits[0].Chunk.Metadata[domain.MetaSource])
}

func TestUpsert_MissingMetadataBecomesPlaceholder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []domain.DocumentChunk{
		{
			ID:         "bare",
			ArticleURL: "http://a.com/1",
			Content:    "no metadata at all",
			Embedding:  []float32{1},
		},
	}))

	hits, err := store.Search(ctx, []float32{1}, 1, domain.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, domain.MetaMissing, hits[0].Chunk.Metadata[domain.MetaTitle])
	assert.Equal(t, domain.MetaMissing, hits[0].Chunk.Metadata[domain.MetaPublishDate])
}

func TestFloat32RoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.123456, -9999.5}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
