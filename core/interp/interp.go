package interp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Environment variables the interpreter maintains itself.
const (
	EnvPWD  = "PWD"
	EnvUser = "USER"
)

// IO is the endpoint pair handed to one pipeline stage. Builtins that
// consume no input close In immediately; external stages get the
// underlying descriptors wired into the child before it starts.
type IO struct {
	In  io.ReadCloser
	Out io.WriteCloser
}

// NewIO wraps arbitrary endpoints into a stage pair, shielding the
// caller's handles from stage-level Close calls.
func NewIO(in io.Reader, out io.Writer) IO {
	return IO{In: toReadCloser(in), Out: toWriteCloser(out)}
}

// Stdio returns the process-standard endpoint pair. The handles are
// shielded so a builtin closing its read end cannot close the
// process's own descriptors.
func Stdio() IO {
	return IO{In: keepOpen{os.Stdin}, Out: keepOpen{os.Stdout}}
}

// keepOpen wraps a caller-owned file so stage Close calls are no-ops
// while the raw descriptor stays available for direct child wiring.
type keepOpen struct{ f *os.File }

func (k keepOpen) Read(p []byte) (int, error)  { return k.f.Read(p) }
func (k keepOpen) Write(p []byte) (int, error) { return k.f.Write(p) }
func (k keepOpen) Close() error                { return nil }

// rawReader unwraps a shielded endpoint so an external stage can
// inherit the descriptor instead of a copy pump.
func rawReader(r io.Reader) io.Reader {
	if k, ok := r.(keepOpen); ok {
		return k.f
	}
	return r
}

func rawWriter(w io.Writer) io.Writer {
	if k, ok := w.(keepOpen); ok {
		return k.f
	}
	return w
}

func toReadCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(r)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func toWriteCloser(w io.Writer) io.WriteCloser {
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}
	return nopWriteCloser{w}
}

// Interp is one interpreter instance: the environment table, the
// positional parameter vector, the exit-status cell, and the working
// directory, threaded explicitly through expansion, builtins, and
// pipeline execution instead of living in process-wide globals.
type Interp struct {
	// Env is the interpreter's environment table; children receive a
	// copy at spawn time.
	Env *Environ
	// Args holds the positional parameters; Args[0] is the shell's own
	// invocation name. Immutable for the interpreter's lifetime.
	Args []string
	// Dir is the working directory stages are spawned in. Only the cd
	// builtin mutates it.
	Dir string
	// FS backs the source builtin and directory checks, so tests can
	// run against a memory filesystem.
	FS afero.Fs
	// Stderr receives one-line diagnostics for syntax and launch
	// errors.
	Stderr io.Writer
	// User overrides the account name written to USER before each
	// top-level read. Empty means the invoking user.
	User string

	status string

	// groupHost, when set, is the ancestor interpreter whose group slot
	// this one registers pipelines in. Capture subshells share their
	// parent's slot so an interrupt always reaches the innermost active
	// pipeline.
	groupHost *Interp

	groupMu sync.Mutex
	group   *procGroup

	exited   bool
	exitCode int
}

// New creates an interpreter seeded from the process environment, with
// args as the positional parameter vector.
func New(args []string) *Interp {
	wd, _ := os.Getwd()
	return &Interp{
		Env:    NewEnvironFromList(os.Environ()),
		Args:   args,
		Dir:    wd,
		FS:     afero.NewOsFs(),
		Stderr: os.Stderr,
		status: "0",
	}
}

// Status returns the last pipeline's exit status, as read back by $?.
func (ip *Interp) Status() string {
	return ip.status
}

// RequestExit marks the interpreter as finished with the given code.
// Every read loop observes the flag and unwinds; only main terminates
// the process.
func (ip *Interp) RequestExit(code int) {
	ip.exited = true
	ip.exitCode = code
}

// Exited reports whether an exit builtin has run.
func (ip *Interp) Exited() bool { return ip.exited }

// ExitCode returns the code passed to the exit builtin.
func (ip *Interp) ExitCode() int { return ip.exitCode }

// Interrupt force-terminates any pipeline the interpreter is currently
// running, including one started by a capture subshell. Safe to call
// from a signal-handling goroutine.
func (ip *Interp) Interrupt() {
	host := ip.host()
	host.groupMu.Lock()
	g := host.group
	host.groupMu.Unlock()
	if g != nil {
		g.KillAll()
	}
}

func (ip *Interp) host() *Interp {
	if ip.groupHost != nil {
		return ip.groupHost
	}
	return ip
}

func (ip *Interp) setGroup(g *procGroup) *procGroup {
	host := ip.host()
	host.groupMu.Lock()
	defer host.groupMu.Unlock()
	prev := host.group
	host.group = g
	return prev
}

// activeGroup resolves the supervisor of the pipeline currently
// running, which lives in the host's slot. Never nil while a stage is
// being dispatched.
func (ip *Interp) activeGroup() *procGroup {
	host := ip.host()
	host.groupMu.Lock()
	defer host.groupMu.Unlock()
	return host.group
}

// clone returns a child interpreter holding a snapshot of this one's
// state. The child's mutations, the exit builtin included, never reach
// the parent.
func (ip *Interp) clone() *Interp {
	return &Interp{
		Env:       ip.Env.Clone(),
		Args:      ip.Args,
		Dir:       ip.Dir,
		FS:        ip.FS,
		Stderr:    ip.Stderr,
		User:      ip.User,
		status:    ip.status,
		groupHost: ip.host(),
	}
}

func (ip *Interp) resolver() *Resolver {
	return &Resolver{
		Lookup:     ip.Env.Getenv,
		Positional: ip.Args,
		Status:     ip.Status,
		Capturer:   ip,
	}
}

// Expand resolves all substitutions in line against this interpreter's
// state. Also used to render the interactive prompt template.
func (ip *Interp) Expand(line string) string {
	return ip.resolver().Expand(line)
}

// Run executes one logical line: the trailing comment is stripped, the
// line is expanded, split into pipeline stages on '|' with quotes
// preserved, and executed. The resulting status is recorded for $?.
func (ip *Interp) Run(line string, stdio IO) int {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}

	expanded := ip.Expand(line)

	stages, err := FoldQuoted(expanded, "|", true)
	if err != nil {
		fmt.Fprintf(ip.Stderr, "pish: %v\n", err)
		ip.status = "-1"
		return -1
	}
	if len(stages) == 0 {
		return 0
	}

	status := ip.runPipeline(stages, stdio)
	ip.status = strconv.Itoa(status)
	return status
}

// maxLineBytes bounds one logical line read by the REPL.
const maxLineBytes = 1 << 20

// REPL reads lines from r and runs each one, refreshing PWD and USER
// before every read. It stops on the first failing line, at end of
// input, on a read error, or once the interpreter has been told to
// exit, and returns the last status.
func (ip *Interp) REPL(r io.Reader, stdio IO) int {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	status := 0
	for scanner.Scan() {
		ip.RefreshEnv()

		status = ip.Run(scanner.Text(), stdio)
		if status != 0 || ip.exited {
			return status
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(ip.Stderr, "pish: read: %v\n", err)
		return -1
	}
	return status
}

// RefreshEnv updates PWD and USER before a top-level read.
func (ip *Interp) RefreshEnv() {
	ip.Env.Setenv(EnvPWD, ip.Dir)

	name := ip.User
	if name == "" {
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
	}
	ip.Env.Setenv(EnvUser, name)
}
