package driving

import "context"

// Pipeline runs the batch ingestion path: scrape, validate, chunk,
// embed and upsert into the vector index.
type Pipeline interface {
	// Run executes one full ingestion run. Per-item failures reduce
	// yield but never abort the run; the report carries aggregate counts.
	Run(ctx context.Context) (*IngestReport, error)
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// ArticlesScraped is the number of validated articles produced by
	// the scraper.
	ArticlesScraped int

	// ChunksCreated is the number of chunks written to the vector index.
	ChunksCreated int
}
