// Package scraper turns configured news sources into validated raw
// articles: section pages are fetched, article links discovered, article
// content extracted and checked for financial relevance.
package scraper

import (
	"context"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// DefaultMaxPerSection caps the candidate URLs processed per section to
// bound run time.
const DefaultMaxPerSection = 7

// DefaultFetchInterval is the politeness delay between article fetches
// against the same source.
const DefaultFetchInterval = time.Second

// Scraper fetches and validates articles from configured news sources.
// Each source's section and article loop runs sequentially so the
// politeness delay is respected.
type Scraper struct {
	fetcher       driven.Fetcher
	renderer      driven.Renderer
	sources       []domain.NewsSource
	maxPerSection int
	fetchInterval time.Duration
	now           func() time.Time
}

// Option configures the scraper.
type Option func(*Scraper)

// WithMaxPerSection overrides the per-section candidate URL cap.
func WithMaxPerSection(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.maxPerSection = n
		}
	}
}

// WithFetchInterval overrides the politeness delay between article fetches.
func WithFetchInterval(d time.Duration) Option {
	return func(s *Scraper) {
		if d >= 0 {
			s.fetchInterval = d
		}
	}
}

// WithClock overrides the time source. Useful for testing.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		s.now = now
	}
}

// New creates a scraper over the given sources. The renderer is optional;
// when nil, sources flagged RequiresRender fall back to the plain fetcher.
// The scraper takes ownership of the renderer and closes it when
// ScrapeAll returns.
func New(fetcher driven.Fetcher, renderer driven.Renderer, sources []domain.NewsSource, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:       fetcher,
		renderer:      renderer,
		sources:       sources,
		maxPerSection: DefaultMaxPerSection,
		fetchInterval: DefaultFetchInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScrapeAll scrapes every enabled source in configuration order and
// returns the validated articles. A single article or section failure is
// logged and skipped; only context cancellation aborts the run. Output
// order is stable: sources in configuration order, articles in the order
// they were successfully extracted.
func (s *Scraper) ScrapeAll(ctx context.Context) ([]domain.RawArticle, error) {
	defer func() {
		if s.renderer == nil {
			return
		}
		if err := s.renderer.Close(); err != nil {
			logger.Warn("Closing renderer: %v", err)
		}
	}()

	var all []domain.RawArticle
	for _, src := range s.sources {
		if !src.Enabled {
			logger.Debug("Source %q disabled, skipping", src.Name)
			continue
		}
		articles, err := s.scrapeSource(ctx, src)
		all = append(all, articles...)
		if err != nil {
			return all, err
		}
	}

	logger.Info("Total relevant articles scraped from all sources: %d", len(all))
	return all, nil
}

// scrapeSource processes one source sequentially. The returned error is
// non-nil only on context cancellation.
func (s *Scraper) scrapeSource(ctx context.Context, src domain.NewsSource) ([]domain.RawArticle, error) {
	logger.Section("Scraping " + src.Name)

	base, err := url.Parse(src.BaseURL)
	if err != nil {
		logger.Warn("Source %q has invalid base URL %q: %v", src.Name, src.BaseURL, err)
		return nil, nil
	}

	// One limiter per source: the politeness delay applies between
	// consecutive article fetches against the same site.
	limiter := rate.NewLimiter(rate.Every(s.fetchInterval), 1)

	var articles []domain.RawArticle
	for _, section := range src.Sections {
		ref, err := url.Parse(section)
		if err != nil {
			logger.Warn("Section %q of %q is not a valid path: %v", section, src.Name, err)
			continue
		}
		sectionURL := base.ResolveReference(ref).String()

		page, err := s.fetchSection(ctx, src, sectionURL)
		if err != nil {
			if ctx.Err() != nil {
				return articles, ctx.Err()
			}
			logger.Warn("Failed to fetch section %s: %v", sectionURL, err)
			continue
		}

		candidates := ArticleLinks(base, page)
		logger.Info("Found %d candidate links in section %q", len(candidates), section)
		if len(candidates) > s.maxPerSection {
			candidates = candidates[:s.maxPerSection]
		}

		for _, articleURL := range candidates {
			if err := limiter.Wait(ctx); err != nil {
				return articles, err
			}
			article, ok := s.extractAndValidate(ctx, articleURL)
			if !ok {
				if ctx.Err() != nil {
					return articles, ctx.Err()
				}
				continue
			}
			article.SourceName = src.Name
			article.Section = section
			articles = append(articles, article)
		}
	}

	logger.Info("Source %q produced %d articles", src.Name, len(articles))
	return articles, nil
}

// fetchSection retrieves a section page, using the renderer for sources
// that need script execution when one is available.
func (s *Scraper) fetchSection(ctx context.Context, src domain.NewsSource, sectionURL string) ([]byte, error) {
	if src.RequiresRender {
		if s.renderer != nil {
			return s.renderer.Render(ctx, sectionURL)
		}
		logger.Warn("Source %q requires rendering but no renderer is configured, using plain fetch", src.Name)
	}
	return s.fetcher.Fetch(ctx, sectionURL)
}

// extractAndValidate fetches one article and runs extraction and the
// relevance check. Failures are logged and reported as a skip.
func (s *Scraper) extractAndValidate(ctx context.Context, articleURL string) (domain.RawArticle, bool) {
	page, err := s.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		logger.Warn("Failed to fetch article %s: %v", articleURL, err)
		return domain.RawArticle{}, false
	}

	article, err := ExtractArticle(articleURL, page, s.now())
	if err != nil {
		logger.Warn("Failed to extract article %s: %v", articleURL, err)
		return domain.RawArticle{}, false
	}

	if !IsRelevant(article.Text, article.Title) {
		logger.Debug("Skipping irrelevant or paywalled article: %s", articleURL)
		return domain.RawArticle{}, false
	}
	return article, true
}
