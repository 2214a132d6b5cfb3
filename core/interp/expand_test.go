package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCapturer struct {
	calls []string
	out   string
	ok    bool
}

func (f *fakeCapturer) Capture(cmdline, input string) (string, bool) {
	f.calls = append(f.calls, cmdline)
	return f.out, f.ok
}

func testResolver(env map[string]string, status string, capturer Capturer) *Resolver {
	return &Resolver{
		Lookup: func(key string) string {
			return env[key]
		},
		Positional: []string{"pish", "one", "two"},
		Status:     func() string { return status },
		Capturer:   capturer,
	}
}

func TestExpandVariables(t *testing.T) {
	env := map[string]string{
		"FOO": "bar",
		"PWD": "/home",
	}

	cases := []struct {
		name     string
		in       string
		expected string
	}{
		{"no substitution", "echo hi", "echo hi"},
		{"undefined key is empty, not an error", "$UNSET_KEY", ""},
		{"braced key with trailing text", "x ${FOO}baz", "x barbaz"},
		{"braced key alone", "${PWD}", "/home"},
		{"empty braces", "${}x", "x"},
		{"leading substitution", "$FOO", "bar"},
		{"positional parameter", "$1", "one"},
		{"positional zero", "$0", "pish"},
		{"out of range positional is empty", "$9", ""},
		{"exit status", "$?", "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := testResolver(env, "42", &fakeCapturer{})
			assert.Equal(t, tc.expected, r.Expand(tc.in))
		})
	}
}

func TestExpandUnbracedConsumesSegment(t *testing.T) {
	// An unbraced reference spans the whole run up to the next
	// introducer; braces exist to cut the key short.
	r := testResolver(map[string]string{"A": "x"}, "0", &fakeCapturer{})

	assert.Equal(t, "x", r.Expand("$A"))
	assert.Equal(t, "", r.Expand("$A tail"), "key is the full segment, lookup misses")
	assert.Equal(t, "x tail", r.Expand("${A} tail"))
}

func TestExpandCommandSubstitution(t *testing.T) {
	cap := &fakeCapturer{out: "hi", ok: true}
	r := testResolver(nil, "0", cap)

	assert.Equal(t, "hi", r.Expand("$(echo hi)"))
	assert.Equal(t, []string{"echo hi"}, cap.calls)
}

func TestExpandCommandSubstitutionTail(t *testing.T) {
	cap := &fakeCapturer{out: "OUT", ok: true}
	r := testResolver(nil, "0", cap)

	assert.Equal(t, "pre OUT post", r.Expand("pre $(cmd) post"))
	assert.Equal(t, []string{"cmd"}, cap.calls)
}

func TestExpandFailedCaptureIsEmpty(t *testing.T) {
	cap := &fakeCapturer{ok: false}
	r := testResolver(nil, "0", cap)

	assert.Equal(t, "a  b", r.Expand("a $(boom) b"))
}

func TestExpandNestedSubstitution(t *testing.T) {
	// The coarse fold on '$' splits a nested substitution; the
	// unbalanced half is deferred and reassembled so the inner command
	// reaches the capture executor intact.
	cap := &fakeCapturer{out: "HI", ok: true}
	r := testResolver(nil, "0", cap)

	assert.Equal(t, "echo HI", r.Expand("echo $(echo $(echo hi))"))
	assert.Equal(t, []string{"echo $(echo hi)"}, cap.calls)
}

func TestExpandUnbalancedTailAbandoned(t *testing.T) {
	// No later segment can balance the parenthesis: the expansion of
	// the tail is abandoned.
	cap := &fakeCapturer{out: "never", ok: true}
	r := testResolver(nil, "0", cap)

	assert.Equal(t, "echo (echo", r.Expand("echo $(echo"))
	assert.Empty(t, cap.calls)
}
