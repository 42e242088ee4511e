package scraper

import "strings"

// minArticleLength is the minimum body length for a usable article.
// Shorter pages are teasers, link hubs or error pages.
const minArticleLength = 300

// financialKeywords is the vocabulary used to decide whether an article
// is financially relevant. Keeps non-financial news out of the index.
var financialKeywords = []string{
	"stock", "market", "nse", "bse", "sensex", "nifty", "ipo", "fpo", "equity",
	"shares", "invest", "trading", "rbi", "earnings", "quarter", "profit",
	"revenue", "economy", "gdp", "inflation", "gst", "finance", "brokerage", "fed",
}

// paywallPhrases mark articles whose body is a subscription prompt
// rather than content.
var paywallPhrases = []string{
	"etprime member",
	"subscribe to read",
}

// IsRelevant reports whether scraped article text is relevant, clean and
// non-paywalled. It is deterministic and performs no I/O.
//
// Rejection rules: body shorter than minArticleLength, or any paywall
// phrase present. Otherwise the article is accepted when at least two
// distinct financial keywords occur in the combined title and body.
func IsRelevant(text, title string) bool {
	if len(text) < minArticleLength {
		return false
	}

	lowerText := strings.ToLower(text)
	for _, phrase := range paywallPhrases {
		if strings.Contains(lowerText, phrase) {
			return false
		}
	}

	combined := strings.ToLower(title) + " " + lowerText
	found := 0
	for _, keyword := range financialKeywords {
		if strings.Contains(combined, keyword) {
			found++
			if found >= 2 {
				return true
			}
		}
	}
	return false
}
