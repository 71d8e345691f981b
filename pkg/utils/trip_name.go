package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TripDisplayName turns a slug-like trip id ("lisbon-weekend") into
// "Plan for: Lisbon Weekend".
func TripDisplayName(tripID string) string {
	if strings.TrimSpace(tripID) == "" {
		return ""
	}
	words := strings.Split(tripID, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return "Plan for: " + strings.Join(words, " ")
}
