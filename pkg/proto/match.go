package proto

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns s case-folded for comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// FoldEqual reports whether a and b are equal ignoring case.
func FoldEqual(a, b string) bool {
	return Fold(a) == Fold(b)
}

// FoldCompare orders a and b ignoring case, falling back to a byte
// comparison so the order is total.
func FoldCompare(a, b string) int {
	if c := strings.Compare(Fold(a), Fold(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// IsAbbrev reports whether arg is a non-empty case-insensitive prefix of s.
func IsAbbrev(arg, s string) bool {
	if arg == "" || len(arg) > len(s) {
		return false
	}
	return strings.HasPrefix(Fold(s), Fold(arg))
}

// WordsAbbrev reports whether each word of query is a prefix of the word
// in the same position of name. "war of li" matches "Warrior of Light".
func WordsAbbrev(query, name string) bool {
	qw := strings.Fields(query)
	nw := strings.Fields(name)
	if len(qw) == 0 || len(qw) > len(nw) {
		return false
	}
	for i, w := range qw {
		if !IsAbbrev(w, nw[i]) {
			return false
		}
	}
	return true
}

// MultiIsName reports whether every word of query abbreviates some word
// in any of the given texts. It is the keyword rule used by search.
func MultiIsName(query string, texts ...string) bool {
	qw := strings.Fields(query)
	if len(qw) == 0 {
		return false
	}
	var words []string
	for _, t := range texts {
		words = append(words, strings.FieldsFunc(t, isNameSep)...)
	}
	for _, q := range qw {
		found := false
		for _, w := range words {
			if IsAbbrev(q, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func isNameSep(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', ',', '.', '!', '?', ';', ':', '"', '(', ')', '-':
		return true
	}
	return false
}
