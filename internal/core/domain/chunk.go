package domain

// Metadata keys attached to every chunk. The index backend stores
// scalar string values only, so all of these are coerced to strings
// and absent values become the literal "N/A".
const (
	MetaTitle       = "title"
	MetaSource      = "source"
	MetaURL         = "url"
	MetaPublishDate = "publish_date"
	MetaSection     = "section"
	MetaChunkIndex  = "chunk_index"
)

// MetaMissing is the placeholder for metadata fields with no value.
const MetaMissing = "N/A"

// DocumentChunk is one retrievable unit of an article's text.
type DocumentChunk struct {
	// ID is a content-derived identifier. Re-ingesting an unchanged
	// article produces the same IDs, which makes upserts idempotent.
	ID string

	// ArticleURL identifies the owning article.
	ArticleURL string

	// Content is the chunk text.
	Content string

	// Position is the ordinal chunk index within the article, starting at 0.
	Position int

	// Embedding is the vector representation. Populated during ingestion.
	Embedding []float32

	// Metadata holds the string-coerced source metadata. Never contains
	// empty or missing entries for the Meta* keys above.
	Metadata map[string]string
}
