package interp

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pborman/getopt/v2"
	"github.com/spf13/afero"
)

// Builtin is one entry in the builtin command table. Handlers receive
// the same endpoint pair a forked stage would and run synchronously in
// the orchestrator; a handler that consumes no input closes its read
// end immediately.
type Builtin struct {
	Name string
	Help []string

	run func(ip *Interp, argv []string, stdio IO) int
}

// builtinTable is scanned in declared order, first match wins. Filled
// in by init to keep the help builtin's reference to the table out of
// the package initializer graph.
var builtinTable []Builtin

func init() {
	builtinTable = []Builtin{
		{
			Name: "cd",
			Help: []string{"change directory."},
			run:  builtinCd,
		},
		{
			Name: "eval",
			Help: []string{"evaluate expression."},
			run:  builtinEval,
		},
		{
			Name: "exit",
			Help: []string{"exit pish."},
			run:  builtinExit,
		},
		{
			Name: "help",
			Help: []string{"show help about builtin commands."},
			run:  builtinHelp,
		},
		{
			Name: "set",
			Help: []string{
				"manipulating environment variables.",
				"/set/ displays all keys and values in environ.",
				"/set A/ sets the value of A to \"\".",
				"/set A B/ sets the value of A to B.",
			},
			run: builtinSet,
		},
		{
			Name: "unset",
			Help: []string{
				"unset an environment variable",
				"/unset A/ unsets variable A.",
			},
			run: builtinUnset,
		},
		{
			Name: "source",
			Help: []string{"read & execute contents of a file, line by line."},
			run:  builtinSource,
		},
	}
}

// Builtins returns the builtin command table in dispatch order.
func Builtins() []Builtin {
	out := make([]Builtin, len(builtinTable))
	copy(out, builtinTable)
	return out
}

func builtinCd(ip *Interp, argv []string, stdio IO) int {
	stdio.In.Close()

	if len(argv) < 2 {
		fmt.Fprintf(ip.Stderr, "cd: missing operand\n")
		return -1
	}

	dir := argv[1]
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(ip.Dir, dir)
	}
	ok, err := afero.DirExists(ip.FS, dir)
	if err != nil || !ok {
		fmt.Fprintf(ip.Stderr, "cd: %s: no such directory\n", argv[1])
		return -1
	}

	ip.Dir = dir
	return 0
}

// builtinEval re-quotes the argument vector, expands it once more, and
// executes the result as a single stage sharing this stage's endpoint
// pair. Any process it launches is reaped by the running pipeline's
// wait loop.
func builtinEval(ip *Interp, argv []string, stdio IO) int {
	if len(argv) < 2 {
		stdio.In.Close()
		return -1
	}

	cmd := Unfold(argv[1:], `" "`, `"`, `"`)
	return ip.execStage(ip.Expand(cmd), stdio)
}

func builtinExit(ip *Interp, argv []string, stdio IO) int {
	stdio.In.Close()

	code := 0
	if len(argv) > 1 {
		code, _ = strconv.Atoi(argv[1])
	}
	ip.RequestExit(code)
	return 0
}

func builtinHelp(ip *Interp, argv []string, stdio IO) int {
	stdio.In.Close()

	for _, b := range builtinTable {
		fmt.Fprintf(stdio.Out, "%s:\n", b.Name)
		for _, line := range b.Help {
			fmt.Fprintf(stdio.Out, "\t%s\n", line)
		}
	}
	return 0
}

func builtinSet(ip *Interp, argv []string, stdio IO) int {
	stdio.In.Close()

	opts := getopt.New()
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")
	if err := opts.Getopt(argv, nil); err != nil || *helpOpt {
		if err != nil {
			fmt.Fprintln(ip.Stderr, err)
		}
		fmt.Fprintln(stdio.Out, "usage: set [KEY [VALUE]]")
		fmt.Fprintln(stdio.Out, "Display or set environment variables.")
		return 0
	}

	switch args := opts.Args(); len(args) {
	case 0:
		for _, entry := range ip.Env.Environ() {
			fmt.Fprintln(stdio.Out, entry)
		}
	case 1:
		ip.Env.Setenv(args[0], "")
	default:
		ip.Env.Setenv(args[0], args[1])
	}
	return 0
}

func builtinUnset(ip *Interp, argv []string, stdio IO) int {
	stdio.In.Close()

	opts := getopt.New()
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")
	if err := opts.Getopt(argv, nil); err != nil || *helpOpt {
		if err != nil {
			fmt.Fprintln(ip.Stderr, err)
		}
		fmt.Fprintln(stdio.Out, "usage: unset KEY")
		fmt.Fprintln(stdio.Out, "Remove an environment variable.")
		return 0
	}

	if args := opts.Args(); len(args) > 0 {
		ip.Env.Unsetenv(args[0])
	}
	return 0
}

// builtinSource runs every line of each named file through the
// top-level interpreter loop, stopping at the first file whose run
// aborts.
func builtinSource(ip *Interp, argv []string, stdio IO) int {
	stdio.In.Close()

	status := 0
	for _, name := range argv[1:] {
		f, err := ip.FS.Open(name)
		if err != nil {
			fmt.Fprintf(ip.Stderr, "source: failed to open file %s: %v\n", name, err)
			return -1
		}

		status = ip.REPL(f, stdio)
		f.Close()

		if status < 0 || ip.Exited() {
			break
		}
	}
	return status
}
