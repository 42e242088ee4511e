// Package chunker cleans article text and splits it into overlapping,
// metadata-carrying chunks ready for embedding.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// DefaultChunkSize is the default target chunk length in characters.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default overlap between consecutive chunks.
const DefaultChunkOverlap = 100

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Chunker splits articles into bounded overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// CleanText collapses all whitespace runs, newlines included, into
// single spaces and trims the ends.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// ProcessArticles converts articles into document chunks. Articles with
// empty body text are skipped. Chunks appear in document order within an
// article, grouped by article in input order, with Position running
// 0, 1, 2, ... per article.
//
// Metadata values are always non-empty strings: the index backend
// rejects null or non-scalar metadata, so absent fields become the
// literal "N/A".
func (c *Chunker) ProcessArticles(articles []domain.RawArticle) []domain.DocumentChunk {
	var chunks []domain.DocumentChunk
	for _, article := range articles {
		if strings.TrimSpace(article.Text) == "" {
			continue
		}

		cleaned := CleanText(article.Text)
		publishDate := domain.MetaMissing
		if !article.PublishedAt.IsZero() {
			publishDate = article.PublishedAt.Format(time.RFC3339)
		}

		for i, piece := range c.split(cleaned) {
			chunks = append(chunks, domain.DocumentChunk{
				ID:         chunkID(article.URL, i, piece),
				ArticleURL: article.URL,
				Content:    piece,
				Position:   i,
				Metadata: map[string]string{
					domain.MetaTitle:       stringOrMissing(article.Title),
					domain.MetaSource:      stringOrMissing(article.SourceName),
					domain.MetaURL:         stringOrMissing(article.URL),
					domain.MetaPublishDate: publishDate,
					domain.MetaSection:     stringOrMissing(article.Section),
					domain.MetaChunkIndex:  strconv.Itoa(i),
				},
			})
		}
	}

	logger.Info("Processed %d articles into %d document chunks", len(articles), len(chunks))
	return chunks
}

// split cuts cleaned text into chunks of at most chunkSize characters,
// breaking on word boundaries where possible. Consecutive chunks share
// exactly the configured overlap, so concatenating the first chunk with
// every later chunk minus its leading overlap reconstructs the input.
// A single token longer than the chunk size is kept whole, producing
// one oversized chunk.
func (c *Chunker) split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + c.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			return chunks
		}

		if idx := strings.LastIndexByte(text[start:end], ' '); idx > c.overlap {
			end = start + idx
		} else if idx := strings.IndexByte(text[end:], ' '); idx >= 0 {
			// Oversized token: extend to its end rather than splitting it.
			end += idx
		} else {
			chunks = append(chunks, text[start:])
			return chunks
		}

		chunks = append(chunks, text[start:end])
		start = end - c.overlap
	}
}

// chunkID derives a stable identifier from the chunk's identity and
// content, making re-ingestion of unchanged articles idempotent.
func chunkID(articleURL string, position int, content string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", articleURL, position, content)))
	return hex.EncodeToString(h[:])
}

func stringOrMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.MetaMissing
	}
	return s
}
