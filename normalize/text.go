// Package normalize turns raw extracted records into store models: text cleaning,
// inference of jurisdiction, level and bill category, and defaults.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬆ", "st",
	"\u200b", "",
	"\u2019", "'",
	"\u2018", "'",
	"\u201c", "\"",
	"\u201d", "\"",
)

// punctuation that survives cleaning
const allowedPunct = ".,;:'\"()&/-–?!%$#@+"

// CleanText NFC-normalizes s, folds ligatures, drops characters outside the allow-list
// (letters, digits, marks, whitespace, allowedPunct), collapses whitespace and trims.
func CleanText(s string) string {
	s = ligatures.Replace(s)
	s, _, _ = transform.String(norm.NFC, s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), strings.ContainsRune(allowedPunct, r):
		default:
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// honorifics stripped from the front of names
var honorifics = []string{"The Honourable ", "The Hon. ", "Hon. ", "Honourable ", "Dr. ", "Mr. ", "Mrs. ", "Ms. "}

// CleanName cleans a person name and drops leading honorifics.
func CleanName(s string) string {
	s = CleanText(s)
	for changed := true; changed; {
		changed = false
		for _, h := range honorifics {
			if len(s) > len(h) && strings.EqualFold(s[:len(h)], h) {
				s = s[len(h):]
				changed = true
			}
		}
	}
	return s
}
