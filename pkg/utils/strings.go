package utils

import (
	"regexp"
	"strings"
)

var (
	invalidSlugChars = regexp.MustCompile("[^a-z0-9 -]+")
	repeatedHyphens  = regexp.MustCompile("-+")
)

// GenerateSlug converts a string into a URL-friendly slug.
// e.g. "Summer Photo (1)!.jpg" stem -> "summer-photo-1"
func GenerateSlug(input string) string {
	// Convert to lower case
	s := strings.ToLower(input)

	// Remove invalid chars (keep a-z, 0-9, space, hyphen)
	s = invalidSlugChars.ReplaceAllString(s, "")

	// Replace spaces with hyphens
	s = strings.ReplaceAll(s, " ", "-")

	// Collapse multiple hyphens
	s = repeatedHyphens.ReplaceAllString(s, "-")

	// Trim hyphens
	s = strings.Trim(s, "-")

	return s
}
