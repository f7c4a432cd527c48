// Package sanitize cleans operator-supplied text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Note strips markup, collapses whitespace to single spaces and cuts the
// result to at most max runes. max <= 0 disables the cut.
func Note(s string, max int) string {
	result := whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
	if max > 0 && utf8.RuneCountInString(result) > max {
		result = strings.TrimSpace(string([]rune(result)[:max]))
	}
	return result
}
