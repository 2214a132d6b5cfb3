package interp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is the error resulting if a path search failed to find an
// executable file.
var ErrNotFound = exec.ErrNotFound

// Delimiters between the arguments of one pipeline stage.
const stageDelims = " \t\v\n;"

// procGroup supervises the external processes launched for one
// pipeline: it reaps them in whatever order they finish and can
// force-terminate all stragglers at once.
type procGroup struct {
	mu       sync.Mutex
	running  map[*exec.Cmd]struct{}
	launched int
	done     chan int
}

// newProcGroup sizes the completion channel for up to n stages so
// abandoned reaps after a fail-fast return never block.
func newProcGroup(n int) *procGroup {
	return &procGroup{
		running: make(map[*exec.Cmd]struct{}, n),
		done:    make(chan int, n),
	}
}

// Launch starts cmd and begins reaping it in the background.
func (g *procGroup) Launch(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	g.mu.Lock()
	g.running[cmd] = struct{}{}
	g.launched++
	g.mu.Unlock()

	go func() {
		err := cmd.Wait()

		g.mu.Lock()
		delete(g.running, cmd)
		g.mu.Unlock()

		g.done <- waitStatus(err)
	}()
	return nil
}

// WaitAll reaps children until one fails or none remain. The first
// non-zero status declares the whole pipeline failed and stops the
// wait; the caller's sweep handles whatever is still running.
func (g *procGroup) WaitAll() int {
	g.mu.Lock()
	n := g.launched
	g.mu.Unlock()

	for i := 0; i < n; i++ {
		if status := <-g.done; status != 0 {
			return status
		}
	}
	return 0
}

// KillAll sends a forced kill to every process still running. Invoked
// unconditionally when pipeline execution unwinds; partial results from
// unfinished stages are discarded.
func (g *procGroup) KillAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for cmd := range g.running {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
}

// waitStatus maps a Wait error to the shell status convention:
// 0 success, the child's exit code on failure, negative when the child
// did not run to completion.
func waitStatus(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// runPipeline wires the stage commands together left to right: N-1
// internal pipes plus the caller-supplied endpoints at each edge. Each
// stage is dispatched to a builtin handler or an external process; the
// orchestrator's copy of each feeding write end is closed immediately
// after launch so downstream stages observe EOF. On return every pipe
// opened here is closed and every straggler is killed, on all paths.
func (ip *Interp) runPipeline(stages []string, stdio IO) int {
	group := newProcGroup(len(stages))
	prev := ip.setGroup(group)
	defer ip.setGroup(prev)
	defer group.KillAll()

	var opened []io.Closer
	defer func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}()

	in := stdio.In
	last := len(stages) - 1

	for i, stage := range stages {
		var out io.WriteCloser
		var next io.ReadCloser

		if i == last {
			out = stdio.Out
		} else {
			r, w, err := os.Pipe()
			if err != nil {
				fmt.Fprintf(ip.Stderr, "pish: pipe: %v\n", err)
				return -1
			}
			opened = append(opened, r, w)
			out, next = w, r
		}

		if status := ip.execStage(stage, IO{In: in, Out: out}); status < 0 {
			return status
		}

		// Close our copy of the write end so the next stage is not
		// left waiting on a writer only we still hold.
		if i != last {
			_ = out.Close()
		}
		in = next
	}

	return group.WaitAll()
}

// execStage tokenizes one stage command and dispatches it: builtin
// names are matched against the table in declared order, first match
// wins; anything else becomes an external process with the stage's
// endpoint pair remapped onto its standard input and output. A
// negative return means the stage could not be launched.
func (ip *Interp) execStage(cmdline string, stdio IO) int {
	argv, err := FoldQuoted(cmdline, stageDelims, false)
	if err != nil {
		fmt.Fprintf(ip.Stderr, "pish: %v\n", err)
		return -1
	}
	if len(argv) == 0 {
		return 0
	}

	for _, b := range builtinTable {
		if argv[0] == b.Name {
			return b.run(ip, argv, stdio)
		}
	}

	path, err := ip.lookPath(argv[0])
	if err != nil {
		fmt.Fprintf(ip.Stderr, "pish: failed to execute %s: %v\n", argv[0], err)
		return -1
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Dir:    ip.Dir,
		Env:    ip.Env.Environ(),
		Stdin:  rawReader(stdio.In),
		Stdout: rawWriter(stdio.Out),
		Stderr: ip.Stderr,
	}

	if err := ip.activeGroup().Launch(cmd); err != nil {
		fmt.Fprintf(ip.Stderr, "pish: failed to execute %s: %v\n", argv[0], err)
		return -1
	}
	return 0
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// lookPath searches for an executable named file in the directories
// named by the interpreter's PATH variable. If file contains a slash it
// is tried directly, relative to the interpreter's working directory,
// and PATH is not consulted.
func (ip *Interp) lookPath(file string) (string, error) {
	if strings.Contains(file, "/") {
		if !filepath.IsAbs(file) {
			file = filepath.Join(ip.Dir, file)
		}
		if err := findExecutable(file); err != nil {
			return "", err
		}
		return file, nil
	}

	path := ip.Env.Getenv("PATH")
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = ip.Dir
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}
