// Package normalize canonicalises user-entered text before it is stored or
// compared.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Username returns the stored form of a username: NFC normalised and
// otherwise unchanged. Case and whitespace are preserved, so "Me1", "me1"
// and " me1" are three different names.
func Username(s string) string {
	return norm.NFC.String(s)
}

// Text NFC normalises s, trims it, and collapses internal runs of whitespace
// to a single space. Used for author names and book titles.
func Text(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// SortKey folds s for ordering and search: lower case, accents stripped,
// a leading English article dropped.
//
//	SortKey("The Bell Jar")   == "bell jar"
//	SortKey("Émile Zola")     == "emile zola"
func SortKey(s string) string {
	decomposed := norm.NFD.String(Text(s))

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	key := b.String()

	for _, article := range []string{"the ", "a ", "an "} {
		if rest, ok := strings.CutPrefix(key, article); ok && rest != "" {
			return rest
		}
	}
	return key
}
