// Package services contains the core application services wiring the
// domain to the driven ports.
package services

import (
	"context"
	"fmt"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// DefaultEmbedBatchSize is how many chunks are embedded per request.
const DefaultEmbedBatchSize = 32

// ArticleSource produces validated raw articles for ingestion.
type ArticleSource interface {
	ScrapeAll(ctx context.Context) ([]domain.RawArticle, error)
}

// ArticleChunker splits articles into embeddable chunks.
type ArticleChunker interface {
	ProcessArticles(articles []domain.RawArticle) []domain.DocumentChunk
}

var _ driving.Pipeline = (*PipelineService)(nil)

// PipelineService runs the batch ingestion path: scrape, chunk, embed
// and upsert.
type PipelineService struct {
	source    ArticleSource
	chunker   ArticleChunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	batchSize int
}

// PipelineOption configures the pipeline service.
type PipelineOption func(*PipelineService)

// WithEmbedBatchSize sets how many chunks are embedded per request.
func WithEmbedBatchSize(n int) PipelineOption {
	return func(p *PipelineService) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// NewPipelineService creates the ingestion pipeline.
func NewPipelineService(
	source ArticleSource,
	chunker ArticleChunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	opts ...PipelineOption,
) *PipelineService {
	p := &PipelineService{
		source:    source,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		batchSize: DefaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full ingestion run. A failed embedding batch is
// skipped with a warning and reduces yield; only context cancellation
// aborts the run.
func (p *PipelineService) Run(ctx context.Context) (*driving.IngestReport, error) {
	logger.Section("Ingest")

	articles, err := p.source.ScrapeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scraping sources: %w", err)
	}
	logger.Info("scraped %d validated articles", len(articles))

	report := &driving.IngestReport{ArticlesScraped: len(articles)}
	if len(articles) == 0 {
		return report, nil
	}

	chunks := p.chunker.ProcessArticles(articles)
	logger.Info("split into %d chunks", len(chunks))

	for start := 0; start < len(chunks); start += p.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		end := start + p.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Warn("embedding batch of %d chunks failed, skipping: %v", len(batch), err)
			continue
		}

		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		if err := p.index.Upsert(ctx, batch); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Warn("upserting batch of %d chunks failed, skipping: %v", len(batch), err)
			continue
		}

		report.ChunksCreated += len(batch)
		logger.Debug("indexed chunks %d-%d of %d", start+1, end, len(chunks))
	}

	logger.Info("ingest complete: %d articles, %d chunks indexed",
		report.ArticlesScraped, report.ChunksCreated)
	return report, nil
}
