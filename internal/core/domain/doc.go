// Package domain defines the core business entities for Finsight.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawArticle: A validated scraped news article
//   - DocumentChunk: A retrievable unit of article text
//   - Turn: One question/answer exchange in a session
//   - ChatEvent: One element of a query's typed response stream
//   - NewsSource: Scraping configuration for one news site
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
