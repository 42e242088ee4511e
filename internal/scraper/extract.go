package scraper

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
)

// Pre-compiled regular expressions for article extraction.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	ogTitleMeta   = regexp.MustCompile(`(?is)<meta[^>]+property=["']og:title["'][^>]+content=["']([^"']+)["']`)
	publishedMeta = regexp.MustCompile(`(?is)<meta[^>]+property=["']article:published_time["'][^>]+content=["']([^"']+)["']`)

	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	navBlocks         = regexp.MustCompile(`(?is)<(nav|header|footer|aside|form)[^>]*>.*?</(nav|header|footer|aside|form)>`)
	blockCloseTags    = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t]+`)
	multiNewlines     = regexp.MustCompile(`\n{2,}`)
	articleBlock      = regexp.MustCompile(`(?is)<article[^>]*>(.*)</article>`)
)

// ExtractArticle parses structured article content out of a fetched page.
// When the page carries no publish date, now is used instead.
func ExtractArticle(pageURL string, page []byte, now time.Time) (domain.RawArticle, error) {
	raw := string(page)

	title := extractTitle(raw)
	text := extractBody(raw)
	if text == "" {
		return domain.RawArticle{}, fmt.Errorf("%w: %s: no body text", domain.ErrExtraction, pageURL)
	}

	return domain.RawArticle{
		URL:         pageURL,
		Title:       title,
		Text:        text,
		PublishedAt: extractPublishDate(raw, now),
		ScrapedAt:   now,
	}, nil
}

// extractTitle prefers the og:title meta tag over the <title> tag, which
// often carries the site name as a suffix.
func extractTitle(raw string) string {
	if m := ogTitleMeta.FindStringSubmatch(raw); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	if m := titleTag.FindStringSubmatch(raw); len(m) > 1 {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return title
		}
	}
	return ""
}

// extractBody converts the page to plain text. When the page has an
// <article> element its content is used; otherwise the whole page is
// stripped after removing obvious chrome (nav, header, footer).
func extractBody(raw string) string {
	content := raw
	if m := articleBlock.FindStringSubmatch(raw); len(m) > 1 {
		content = m[1]
	} else {
		content = headTag.ReplaceAllString(content, " ")
		content = navBlocks.ReplaceAllString(content, " ")
	}

	content = scriptTag.ReplaceAllString(content, " ")
	content = styleTag.ReplaceAllString(content, " ")
	content = noscriptTag.ReplaceAllString(content, " ")
	content = svgTag.ReplaceAllString(content, " ")
	content = htmlComments.ReplaceAllString(content, " ")

	// Keep block structure as line breaks so sentences from different
	// elements do not run together.
	content = blockCloseTags.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, " ")

	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// extractPublishDate reads the article:published_time meta tag,
// defaulting to fallback when absent or unparseable.
func extractPublishDate(raw string, fallback time.Time) time.Time {
	m := publishedMeta.FindStringSubmatch(raw)
	if len(m) < 2 {
		return fallback
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, strings.TrimSpace(m[1])); err == nil {
			return ts
		}
	}
	return fallback
}
