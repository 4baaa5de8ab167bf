package matcher

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketedPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	featPattern      = regexp.MustCompile(`\b(feat|ft|featuring)\b\.?.*$`)
)

// Normalize lowercases, strips diacritics, drops bracketed and "feat."
// suffixes and collapses punctuation into single spaces. It is idempotent,
// so already normalized catalog columns pass through unchanged.
func Normalize(s string) string {
	s = strings.ToLower(s)

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripper, s); err == nil {
		s = stripped
	}

	s = bracketedPattern.ReplaceAllString(s, " ")
	s = featPattern.ReplaceAllString(s, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
