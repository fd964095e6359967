package organizations

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// German letters are transliterated before generic diacritic folding so that
// "Müller" becomes "mueller", not "muller".
var germanReplacer = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ComputeSlug derives the URL slug from an organization name: lowercase,
// transliterate/fold diacritics, collapse every non-alphanumeric run into a
// single hyphen, and trim leading/trailing hyphens. Deterministic, so renaming
// an organization always yields the same slug for the same name.
func ComputeSlug(name string) string {
	s := germanReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
