// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the longest slug a category or genre may carry.
const MaxSlugLength = 50

var (
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9_]+`)
	multipleDashRe    = regexp.MustCompile(`-+`)
	slugRe            = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// Slugify derives a slug from a display name.
//
//	"Science Fiction" → "science-fiction"
//	"Café Noir"       → "cafe-noir"
//	"  --Drama!--  "  → "drama"
//
// The result is cut to MaxSlugLength and may be empty when name has no usable characters.
func Slugify(name string) string {
	// Decompose accented characters so the base letter survives ASCII filtering.
	s := norm.NFKD.String(name)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumericRe.ReplaceAllString(s, "-")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}

// IsSlug reports whether s only contains letters, digits, dashes and underscores.
func IsSlug(s string) bool {
	return slugRe.MatchString(s)
}
