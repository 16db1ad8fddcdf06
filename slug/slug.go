// Package slug turns post titles into URL-safe identifiers.
package slug

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the length Generate truncates to when given no limit.
const DefaultMaxLength = 100

var (
	separatorRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}_]+`)
	nonWord      = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRun    = regexp.MustCompile(`-{2,}`)
	validSlug    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	numberSuffix = regexp.MustCompile(`^(.+)-(\d+)$`)
)

// stripDiacritics decomposes runes and drops the combining marks, so "é"
// becomes "e". Letters without an ASCII base are removed later by nonWord.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify lowercases text and reduces it to hyphen-joined [a-z0-9] segments.
// It never fails; input made only of punctuation yields "".
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = stripDiacritics(s)
	s = separatorRun.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsValid reports whether s is a well-formed slug.
func IsValid(s string) bool {
	return validSlug.MatchString(s)
}

// EnsureUnique returns base when it is not taken, otherwise the first of
// base-1, base-2, ... absent from existing.
func EnsureUnique(base string, existing []string) string {
	if !slices.Contains(existing, base) {
		return base
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !slices.Contains(existing, candidate) {
			return candidate
		}
	}
}

// Generate slugifies title and, when the result is longer than maxLength,
// cuts it at the last hyphen before the limit so words stay whole.
// maxLength <= 0 means DefaultMaxLength.
func Generate(title string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	s := Slugify(title)
	if len(s) <= maxLength {
		return s
	}
	truncated := s[:maxLength]
	if i := strings.LastIndex(truncated, "-"); i > 0 {
		return truncated[:i]
	}
	return truncated
}

// Base strips a trailing numeric uniqueness suffix: "post-2" -> "post".
func Base(s string) string {
	if m := numberSuffix.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
