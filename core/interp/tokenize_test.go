package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldQuoted(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		delims   string
		preserve bool
		expected []string
	}{
		{
			name:     "collapsed whitespace",
			in:       "a  b   c",
			delims:   " ",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "quotes stripped",
			in:       `"a b" c`,
			delims:   " ",
			expected: []string{"a b", "c"},
		},
		{
			name:     "quotes preserved",
			in:       `"a b" c`,
			delims:   " ",
			preserve: true,
			expected: []string{`"a b"`, "c"},
		},
		{
			name:     "quoted pipe is not a separator",
			in:       `echo "a|b" | cat`,
			delims:   "|",
			preserve: true,
			expected: []string{`echo "a|b" `, ` cat`},
		},
		{
			name:     "escape decoded inside literal",
			in:       `"a\tb"`,
			delims:   " ",
			expected: []string{"a\tb"},
		},
		{
			name:     "escape kept verbatim in preserve mode",
			in:       `"a\tb"`,
			delims:   " ",
			preserve: true,
			expected: []string{`"a\tb"`},
		},
		{
			name:     "semicolon delimiter set",
			in:       "a;b c",
			delims:   " ;",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "adjacent literal and bare text",
			in:       `pre"fix suf"fix`,
			delims:   " ",
			expected: []string{"prefix suffix"},
		},
		{
			name:     "empty literal yields no token",
			in:       `"" a`,
			delims:   " ",
			expected: []string{"a"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := FoldQuoted(tc.in, tc.delims, tc.preserve)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestFoldQuotedFailures(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"unterminated literal", `"abc`},
		{"unterminated after token", `a "bc`},
		{"bad escape in literal", `"a\qb"`},
		{"escape at end of input", `"a\`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := FoldQuoted(tc.in, " ", false)
			assert.Error(t, err)
			assert.Nil(t, actual, "no partial token vector on failure")
		})
	}
}

func TestFoldQuotedRoundTrip(t *testing.T) {
	// Folding with quotes preserved and unfolding are inverses for
	// well-formed input, which is what lets eval re-tokenize its
	// reassembled command line.
	line := `run "two words" plain "a|b"`

	first, err := FoldQuoted(line, " ", true)
	assert.NoError(t, err)

	second, err := FoldQuoted(Unfold(first, " ", "", ""), " ", true)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFoldQuotedEvalQuoting(t *testing.T) {
	// The eval builtin re-quotes its argument vector before
	// re-tokenizing it with quotes stripped.
	argv := []string{"echo", "a b", "c"}
	requoted := Unfold(argv, `" "`, `"`, `"`)

	actual, err := FoldQuoted(requoted, stageDelims, false)
	assert.NoError(t, err)
	assert.Equal(t, argv, actual)
}
