package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnviron(t *testing.T) {
	env := NewEnviron()

	_, ok := env.LookupEnv("FOO")
	assert.False(t, ok)
	assert.Equal(t, "", env.Getenv("FOO"))

	env.Setenv("FOO", "bar")
	assert.Equal(t, "bar", env.Getenv("FOO"))

	env.Setenv("FOO", "baz")
	assert.Equal(t, "baz", env.Getenv("FOO"), "set replaces")

	env.Unsetenv("FOO")
	_, ok = env.LookupEnv("FOO")
	assert.False(t, ok)
}

func TestEnvironList(t *testing.T) {
	env := NewEnvironFromList([]string{"B=2", "A=1", "NOVALUE"})

	assert.Equal(t, []string{"A=1", "B=2", "NOVALUE="}, env.Environ(),
		"entries come back sorted by key")
}

func TestEnvironCopiesAreIndependent(t *testing.T) {
	parent := NewEnvironFromList([]string{"SHARED=yes"})
	child := parent.Clone()

	child.Setenv("SHARED", "no")
	child.Setenv("CHILD_ONLY", "1")

	assert.Equal(t, "yes", parent.Getenv("SHARED"))
	assert.Equal(t, "", parent.Getenv("CHILD_ONLY"))
}
