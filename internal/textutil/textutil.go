// Package textutil holds the pure string helpers shared by the crawler and the
// store: slugs, search normalization and tag stripping.
package textutil

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var symbolWords = map[rune]string{
	'&': "and",
	'%': "percent",
	'$': "dollar",
	'<': "less",
	'>': "greater",
	'|': "or",
	'€': "euro",
	'£': "pound",
	'¥': "yen",
	'♥': "love",
	'∞': "infinity",
}

var stripPolicy = bluemonday.StrictPolicy()

// Fold removes diacritics and maps the Vietnamese đ/Đ, which has no
// decomposition, to d/D.
func Fold(s string) string {
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeSearch is the form titles are indexed under and queries are
// matched with: folded, lowercased and trimmed.
func NormalizeSearch(s string) string {
	return strings.TrimSpace(strings.ToLower(Fold(s)))
}

// Slugify builds a lowercase, URL-safe slug. Only ASCII letters and digits
// survive; runs of anything else collapse into a single dash.
func Slugify(s string) string {
	folded := Fold(s)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if word, ok := symbolWords[r]; ok {
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteString(word)
			pendingDash = true
			continue
		}
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '_':
			pendingDash = true
		}
	}
	return b.String()
}

// StripTags removes all markup and returns trimmed plain text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
