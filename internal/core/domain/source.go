package domain

// NewsSource is the scraping configuration for one news site.
type NewsSource struct {
	// Name is the human-readable source name ("Reuters", "Economic Times").
	// It is recorded in chunk metadata and used for retrieval filtering.
	Name string

	// BaseURL is the site root all section paths resolve against.
	BaseURL string

	// Sections are the section paths to crawl for article links.
	Sections []string

	// RequiresRender marks sites that need script execution before their
	// section pages contain article links. Such pages go through the
	// Renderer capability instead of the plain Fetcher.
	RequiresRender bool

	// Enabled gates whether the source participates in ingestion runs.
	Enabled bool
}
