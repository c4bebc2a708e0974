package hw

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Columns is the width of an LCD line.
const Columns = 16

// Normalize turns s into exactly Columns ASCII characters: accents are
// stripped, any other non-ASCII rune becomes '?', and the result is padded
// or truncated.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(Columns)
	n := 0
	for _, r := range s {
		if n == Columns {
			break
		}
		if r >= utf8.RuneSelf {
			r = '?'
		}
		b.WriteRune(r)
		n++
	}
	for ; n < Columns; n++ {
		b.WriteByte(' ')
	}
	return b.String()
}
