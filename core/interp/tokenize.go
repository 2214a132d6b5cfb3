package interp

import (
	"errors"
	"strings"
)

var errUnterminatedLiteral = errors.New("unterminated string literal")

// FoldQuoted breaks s into tokens on any byte in delims while treating
// double-quoted spans as atomic. With preserve set the quote characters
// are kept and escapes inside literals are copied verbatim so the token
// can be tokenized again later; otherwise quotes are stripped and
// escapes are decoded. Consecutive delimiters collapse.
//
// An unterminated literal or an undecodable escape fails the whole call
// and no partial token vector is returned.
func FoldQuoted(s, delims string, preserve bool) ([]string, error) {
	var argv []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			argv = append(argv, b.String())
			b.Reset()
		}
	}

	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case strings.IndexByte(delims, c) >= 0:
			flush()
			i++

		case c == '"':
			if preserve {
				b.WriteByte('"')
			}
			end, err := copyLiteral(&b, s, i+1, preserve)
			if err != nil {
				return nil, err
			}
			if preserve {
				b.WriteByte('"')
			}
			i = end + 1 // skip the closing quote

		default:
			// Bytes outside literals pass through untouched; escapes
			// only have meaning inside double quotes.
			b.WriteByte(c)
			i++
		}
	}
	flush()

	return argv, nil
}

// copyLiteral copies a double-quoted literal body into b, routing
// escape sequences through the decoder. It returns the index of the
// closing quote.
func copyLiteral(b *strings.Builder, s string, i int, preserve bool) (int, error) {
	for i < len(s) {
		switch s[i] {
		case '"':
			return i, nil
		case '\\':
			if preserve {
				b.WriteByte('\\')
			}
			next, err := decodeEscape(b, s, i+1, preserve)
			if err != nil {
				return i, err
			}
			i = next
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return i, errUnterminatedLiteral
}
