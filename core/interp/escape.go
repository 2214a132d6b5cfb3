package interp

import (
	"errors"
	"fmt"
	"strings"
)

// endMarker is the byte emitted for the \z escape. It mirrors the
// convention of storing EOF in a byte buffer.
const endMarker = 0xFF

var errEscapeTruncated = errors.New("escape sequence runs past end of input")

func isOctDigit(c byte) bool { return '0' <= c && c <= '7' }

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c <= '9':
		return c - '0'
	case c <= 'F':
		return 0xa + c - 'A'
	default:
		return 0xa + c - 'a'
	}
}

// decodeEscape decodes one escape sequence starting at s[i], the byte
// just after the backslash. In preserve mode the sequence is copied
// verbatim so an already-quoted literal can be re-tokenized later; the
// caller has already written the backslash in that case. Returns the
// index of the first byte after the sequence.
func decodeEscape(b *strings.Builder, s string, i int, preserve bool) (int, error) {
	if i >= len(s) {
		return i, errEscapeTruncated
	}

	c := s[i]
	switch {
	case c == '\\' || c == '\'' || c == '"' || c == '?':
		// Raw passthrough set, identical in both modes.
		b.WriteByte(c)
		return i + 1, nil

	case c == 'a' || c == 'b' || c == 'e' || c == 'f' ||
		c == 'n' || c == 'r' || c == 't' || c == 'v' || c == 'z':
		if preserve {
			b.WriteByte(c)
		} else {
			b.WriteByte(namedEscape(c))
		}
		return i + 1, nil

	case c == 'x':
		if i+2 >= len(s) {
			return len(s), errEscapeTruncated
		}
		if preserve {
			b.WriteString(s[i : i+3])
			return i + 3, nil
		}
		if !isHexDigit(s[i+1]) || !isHexDigit(s[i+2]) {
			return i, fmt.Errorf("invalid hex escape \\%s", s[i:i+3])
		}
		b.WriteByte(hexVal(s[i+1])<<4 | hexVal(s[i+2]))
		return i + 3, nil

	case isOctDigit(c):
		// Special NUL form: a zero followed by a quote.
		if c == '0' && i+1 < len(s) && s[i+1] == '\'' {
			if preserve {
				b.WriteString("0'")
			} else {
				b.WriteByte(0)
			}
			return i + 2, nil
		}
		j := i
		var val int
		for j < len(s) && j < i+3 && isOctDigit(s[j]) {
			val = val<<3 | int(s[j]-'0')
			j++
		}
		if preserve {
			b.WriteString(s[i:j])
		} else {
			b.WriteByte(byte(val))
		}
		return j, nil
	}

	return i, fmt.Errorf("unknown escape sequence \\%c", c)
}

func namedEscape(c byte) byte {
	switch c {
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'e':
		return 0x1b
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'v':
		return '\v'
	default: // 'z'
		return endMarker
	}
}
