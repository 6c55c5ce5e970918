// Package textmatch provides the string normalization and similarity
// primitives used by the match grader.
package textmatch

import (
	"strings"
	"unicode"
)

// Normalize trims leading/trailing whitespace and collapses internal runs of
// whitespace to a single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits a string into a lowercase word set with punctuation
// stripped. Tokens that are all punctuation disappear entirely.
func Tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(s)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if word == "" {
			continue
		}
		out[word] = struct{}{}
	}
	return out
}

// Jaccard computes |A∩B| / |A∪B| over the word sets of two strings.
// Two empty/stopped-out strings are treated as identical.
func Jaccard(a, b string) float64 {
	sa := Tokenize(a)
	sb := Tokenize(b)

	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	return float64(intersection) / float64(union)
}
