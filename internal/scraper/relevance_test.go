package scraper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// relevantBody builds a body over the minimum length containing the
// given lead-in text.
func relevantBody(lead string) string {
	return lead + " " + strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)
}

func TestIsRelevantRejectsShortText(t *testing.T) {
	// Plenty of keywords, but under the length floor.
	assert.False(t, IsRelevant("stock market earnings profit", "Markets"))
	assert.False(t, IsRelevant("", "Markets"))
}

func TestIsRelevantRejectsPaywalledText(t *testing.T) {
	body := relevantBody("The stock market rallied as earnings beat estimates.") +
		" Become an ETPrime Member to continue."
	assert.False(t, IsRelevant(body, "Markets rally"))

	body = relevantBody("Equity shares surged on profit booking.") +
		" Subscribe to Read the full story."
	assert.False(t, IsRelevant(body, "Shares surge"))
}

func TestIsRelevantRequiresTwoDistinctKeywords(t *testing.T) {
	// One keyword only.
	one := relevantBody("The stock rose today on heavy volumes across the board.")
	assert.False(t, IsRelevant(one, "Movement"))

	// Two distinct keywords, long enough, no paywall.
	two := relevantBody("The stock rallied after quarterly earnings were published.")
	assert.True(t, IsRelevant(two, "Results"))
}

func TestIsRelevantCountsTitleKeywords(t *testing.T) {
	// One keyword in the body, one in the title.
	body := relevantBody("Heavy trading was seen through the session on Monday.")
	assert.True(t, IsRelevant(body, "Sensex ends higher"))
	assert.False(t, IsRelevant(body, "Session recap"))
}

func TestIsRelevantCaseInsensitive(t *testing.T) {
	body := relevantBody("The STOCK MARKET closed flat amid mixed global cues today.")
	assert.True(t, IsRelevant(body, "Close"))
}
