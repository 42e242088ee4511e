package driven

import "context"

// Fetcher retrieves the raw bytes of a web page over plain HTTP.
type Fetcher interface {
	// Fetch downloads the page at url. Implementations must bound the
	// request time so one hung fetch cannot stall an ingestion run.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Renderer retrieves a page after executing its scripts, for sources
// whose section pages are populated client-side. It is a stateful
// capability (typically a headless browser) and must be closed once
// scraping completes, on all exit paths.
type Renderer interface {
	// Render loads url, waits for script execution and returns the
	// resulting markup.
	Render(ctx context.Context, url string) ([]byte, error)

	// Close releases the rendering resource.
	Close() error
}
