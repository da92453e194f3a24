package audit

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Capitalized reports whether the first letter of s is upper case. Color
// codes and leading punctuation are skipped.
func Capitalized(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
	}
	return true
}

// EndsWithPunct reports whether s ends in sentence punctuation.
func EndsWithPunct(s string) bool {
	s = strings.TrimRight(s, " \t\r\n")
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return strings.ContainsRune(".!?,;:", r)
}

// Lowercase reports whether s has no upper-case letters.
func Lowercase(s string) bool {
	return strings.ToLower(s) == s
}
