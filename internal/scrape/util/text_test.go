package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Equities Trader", CleanText("  Equities\n\tTrader "))
	assert.Equal(t, "New York", CleanText("New York"))
	assert.Equal(t, "", CleanText("   \n "))
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Join our <b>S&amp;T</b> desk in <i>New York</i>.</p>")
	assert.Equal(t, "Join our S&T desk in New York.", got)

	// plain text passes through untouched
	assert.Equal(t, "No markup here", StripHTML("No markup here"))
}

func TestDescriptionBoundsLongHTML(t *testing.T) {
	var b strings.Builder
	for b.Len() < 3000 {
		b.WriteString("<p>Execution trading across <b>global equities</b> markets.</p>")
	}

	got := Description(b.String())
	assert.LessOrEqual(t, len([]rune(got)), DescriptionLimit)
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, ">")
	assert.Contains(t, got, "Execution trading")
}

func TestTruncateRuneSafe(t *testing.T) {
	s := strings.Repeat("é", 10)
	assert.Equal(t, strings.Repeat("é", 4), Truncate(s, 4))
	assert.Equal(t, "abc", Truncate("abc", 10))
}

func TestLinkSourceIDStable(t *testing.T) {
	a := LinkSourceID("efc", "https://example.com/jobs/123?utm_source=rss&b=2&a=1#apply")
	b := LinkSourceID("efc", "https://EXAMPLE.com/jobs/123?a=1&b=2")
	assert.Equal(t, a, b)

	other := LinkSourceID("efc", "https://example.com/jobs/124?a=1&b=2")
	assert.NotEqual(t, a, other)

	assert.True(t, strings.HasPrefix(a, "efc-"))
	assert.Len(t, a, len("efc-")+32)
}

func TestLinkSourceIDDistinctOnSharedPrefix(t *testing.T) {
	// listing links differ only at the tail, far past the id bound
	a := LinkSourceID("efc", "https://www.efinancialcareers.com/jobs-USA-New_York-Equities_Trader.id11111111")
	b := LinkSourceID("efc", "https://www.efinancialcareers.com/jobs-USA-New_York-Equities_Trader.id22222222")
	assert.NotEqual(t, a, b)
}

func TestCanonicalURLDropsTrackingParams(t *testing.T) {
	got := CanonicalURL("https://example.com/j?gclid=x&utm_campaign=daily&id=9")
	assert.Equal(t, "https://example.com/j?id=9", got)
}
