package util

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DescriptionLimit bounds stored description length; descriptions are
// classifier context only, never displayed in full.
const DescriptionLimit = 1500

// CleanText collapses whitespace and strips non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// StripHTML renders markup down to its text content. Feed and board
// descriptions arrive as HTML fragments; we keep only the words.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CleanText(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CleanText(s)
	}
	return CleanText(doc.Text())
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Description strips markup and bounds length in one go.
func Description(raw string) string {
	return Truncate(StripHTML(raw), DescriptionLimit)
}
