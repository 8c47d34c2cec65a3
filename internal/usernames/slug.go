// Package usernames derives username suggestions from display names and
// checks candidate usernames against the backend.
package usernames

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a display name into a username candidate: lowercased,
// diacritics stripped, runs of non-alphanumerics collapsed to single
// hyphens, no leading or trailing hyphen. "José García" → "jose-garcia".
func Slugify(name string) string {
	ascii, _, err := transform.String(stripMarks, name)
	if err != nil {
		ascii = name
	}
	lower := strings.ToLower(ascii)

	var b strings.Builder
	b.Grow(len(lower))
	pendingHyphen := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}
