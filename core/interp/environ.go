package interp

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Environ is the interpreter's mutable key/value table. Each Interp
// owns its own table; children of the interpreter receive a snapshot
// at spawn time, so a child's mutations never reach the parent.
type Environ struct {
	rw  sync.RWMutex
	env map[string]string
}

// NewEnviron creates an empty environment table.
func NewEnviron() *Environ {
	return &Environ{}
}

// NewEnvironFromList creates an environment from "key=value" entries in
// the form returned by os.Environ.
func NewEnvironFromList(environ []string) *Environ {
	out := &Environ{}
	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}
	return out
}

// Clone returns an independent copy of the table.
func (m *Environ) Clone() *Environ {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make(map[string]string, len(m.env))
	for k, v := range m.env {
		env[k] = v
	}
	return &Environ{env: env}
}

// Setenv sets key to value, replacing any previous value.
func (m *Environ) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// Unsetenv removes key from the table.
func (m *Environ) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// LookupEnv returns the value for key and whether it was present.
func (m *Environ) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv returns the value for key, or the empty string when absent.
func (m *Environ) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ returns all entries as "key=value" strings in key order.
func (m *Environ) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}
