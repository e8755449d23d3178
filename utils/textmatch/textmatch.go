// Package textmatch provides accent- and case-insensitive substring matching
// for titles, used when searching the local collection.
package textmatch

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Normalize lowercases a title, transliterates it to ASCII and collapses
// runs of whitespace, so that "Amélie " and "amelie" compare equal.
func Normalize(value string) string {
	transliterated := unidecode.Unidecode(strings.TrimSpace(value))
	lowered := strings.ToLower(transliterated)
	return strings.Join(strings.Fields(lowered), " ")
}

// Contains reports whether the normalized query occurs inside the normalized
// title. An empty query matches nothing.
func Contains(title, query string) bool {
	normalizedQuery := Normalize(query)
	if normalizedQuery == "" {
		return false
	}
	return strings.Contains(Normalize(title), normalizedQuery)
}
