package scraper

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// articlePath matches URL paths that look like individual articles:
// long numeric IDs or common article path segments.
var articlePath = regexp.MustCompile(`/\d{6,}|/news/|/article/|/opinion/|/story/`)

// excludedPathParts mark index, category, author and topic pages that the
// article pattern would otherwise pick up.
var excludedPathParts = []string{"/category/", "/author/", "/topic/"}

// ArticleLinks extracts candidate article URLs from a section page.
//
// Every hyperlink target is resolved against base; targets matching the
// article pattern and not excluded are returned as absolute URLs,
// deduplicated in first-seen order.
func ArticleLinks(base *url.URL, page []byte) []string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrValue(n, "href"); href != "" {
				if full, ok := resolveArticleURL(base, href); ok {
					if _, dup := seen[full]; !dup {
						seen[full] = struct{}{}
						links = append(links, full)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return links
}

// resolveArticleURL resolves href against base and applies the
// article-pattern and exclusion filters.
func resolveArticleURL(base *url.URL, href string) (string, bool) {
	if !articlePath.MatchString(href) {
		return "", false
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	full := resolved.String()
	for _, part := range excludedPathParts {
		if strings.Contains(full, part) {
			return "", false
		}
	}
	return full, true
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
