// Package textnorm normalizes free text into comparable tokens for the
// keyword moderation filter.
package textnorm

import (
	"strings"
	"unicode"
)

// Tokens lowercases the input, strips punctuation and splits on whitespace.
func Tokens(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Fields(cleaned)
}
