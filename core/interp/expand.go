package interp

import "strings"

// Capturer runs a command line through a full interpreter pass and
// returns its collected output. ok is false when the command failed;
// callers substitute the empty string in that case.
type Capturer interface {
	Capture(cmdline, input string) (output string, ok bool)
}

// Resolver expands $-introduced substitutions against an environment
// lookup, the positional parameters, the last exit status, and a
// capture executor for $(...) forms. The executor is an interface so
// expansion can be exercised without spawning real processes.
type Resolver struct {
	Lookup     func(key string) string
	Positional []string
	Status     func() string
	Capturer   Capturer
}

// Expand resolves every substitution in line and returns the
// concatenation of all segments. Undefined keys and out-of-range
// positional parameters resolve to the empty string, never an error.
func (r *Resolver) Expand(line string) string {
	v := Fold(line, "$")

	// The first segment precedes any introducer unless the line itself
	// starts with one.
	k := 1
	if strings.HasPrefix(line, "$") {
		k = 0
	}

	for i := k; i < len(v); i++ {
		seg := v[i]
		if seg == "" {
			continue
		}

		var val, rest string

		if seg[0] == '(' {
			if Balance(seg, '(', ')') == 0 {
				end := strings.LastIndexByte(seg, ')')
				if out, ok := r.Capturer.Capture(seg[1:end], ""); ok {
					val = out
				}
				rest = seg[end+1:]
			} else if i+1 < len(v) {
				// The balancing close paren lives in a later segment:
				// the coarse fold on '$' split a nested substitution.
				// Reassemble the two halves, restoring the introducer
				// when the next half opens its own substitution, and
				// reevaluate the longer segment on the next pass.
				sep := ""
				if strings.HasPrefix(v[i+1], "(") {
					sep = "$"
				}
				v[i+1] = Unfold([]string{seg, v[i+1]}, sep, "", "")
				v[i] = ""
				continue
			} else {
				// Nothing further along can balance this: abandon the
				// expansion for the tail.
				break
			}
		} else {
			key := seg
			if seg[0] == '{' {
				if end := strings.IndexByte(seg, '}'); end >= 0 {
					key = seg[1:end]
					rest = seg[end+1:]
				}
			}

			switch {
			case key == "":
				// ${} resolves like an undefined key.
			case key[0] == '?':
				val = r.Status()
			case key[0] >= '0' && key[0] <= '9':
				if n := int(key[0] - '0'); n < len(r.Positional) {
					val = r.Positional[n]
				}
			default:
				val = r.Lookup(key)
			}
		}

		v[i] = val + rest
	}

	return Unfold(v, "", "", "")
}
