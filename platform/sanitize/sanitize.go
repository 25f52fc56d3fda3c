// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every tag and attribute.
var strictPolicy = bluemonday.StrictPolicy()

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
// Entities produced by the policy are decoded again so stored text stays readable.
func StripHTML(s string) string {
	result := strictPolicy.Sanitize(s)
	result = html.UnescapeString(result)
	// Re-strip after entity decode to catch encoded tags
	result = strictPolicy.Sanitize(result)
	return strings.TrimSpace(html.UnescapeString(result))
}

// Text sanitizes a string for safe text storage by stripping HTML.
// Use for user-provided text fields like descriptions, notes, and comments.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}
