// Package sanitize provides text sanitization utilities for user input that
// is forwarded to external services.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	spaceRegex   = regexp.MustCompile(`\s+`)
)

// StripHTML removes all HTML tags from a string and decodes the common
// entities, leaving plain text.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")

	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// last, so "&amp;lt;" stays "&lt;"
	result = strings.ReplaceAll(result, "&amp;", "&")

	return result
}

// Query cleans a free-text search query: markup is stripped, whitespace runs
// collapse to one space and the result is trimmed.
func Query(s string) string {
	return strings.TrimSpace(spaceRegex.ReplaceAllString(StripHTML(s), " "))
}
