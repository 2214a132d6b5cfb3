// Package interp implements the pish interpreter core: the quote-aware
// tokenizer, escape decoding, $-substitution, and pipeline execution.
//
// All random access to command text is done by folding a line into a
// string vector and unfolding it back, so the same primitives serve the
// tokenizer, the expansion resolver, and the eval builtin.
package interp

import "strings"

// Fold breaks s into tokens on any rune in delims. Consecutive
// delimiters collapse, so the result never contains empty tokens.
func Fold(s, delims string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(delims, r)
	})
}

// Unfold is the inverse of Fold: it flattens a string vector into one
// string with sep between elements, prefixed by head and followed by
// tail. An empty vector unfolds to the empty string.
func Unfold(sv []string, sep, head, tail string) string {
	if len(sv) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(head)
	for i, s := range sv {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s)
	}
	b.WriteString(tail)
	return b.String()
}

// Balance reports the number of unmatched open bytes in s. A negative
// result means close appears more often than open.
func Balance(s string, open, close byte) int {
	return strings.Count(s, string(open)) - strings.Count(s, string(close))
}
