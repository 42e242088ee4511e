package domain

import "time"

// RawArticle is a scraped news article that has passed content validation.
// It is the canonical representation between the scraper and the chunker
// and is not persisted directly; only its chunks reach the vector index.
type RawArticle struct {
	// URL is the resolved absolute article URL.
	URL string

	// Title is the extracted headline.
	Title string

	// Text is the full article body text, guaranteed non-empty.
	Text string

	// SourceName is the configured name of the news source.
	SourceName string

	// Section is the section path the article was discovered under.
	Section string

	// PublishedAt is the publish timestamp. When the page carries no
	// publish date it defaults to the scrape time.
	PublishedAt time.Time

	// ScrapedAt is when the article was fetched.
	ScrapedAt time.Time
}
