// Package core wires the interpreter to its front ends: the
// interactive readline shell and the SSH server.
package core

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/gynamics/pish/core/config"
	"github.com/gynamics/pish/core/interp"
)

const EnvPrompt = "PROMPT"

// DefaultPrompt is the template stored in PROMPT when the user has not
// configured one. It is re-expanded before every read, so the working
// directory stays current.
var DefaultPrompt = fmt.Sprintf("[%s]%s ",
	color.YellowString("${%s}", interp.EnvPWD),
	color.RedString(",`'"))

// Shell is the interactive front end: a readline loop feeding lines to
// the interpreter, with the prompt template expanded before each read.
type Shell struct {
	Interp   *interp.Interp
	Readline *readline.Instance
}

// NewShell builds the interactive shell around an interpreter. The
// configured prompt wins over PROMPT inherited from the environment;
// otherwise an existing PROMPT is left alone.
func NewShell(ip *interp.Interp, cfg *config.Config) (*Shell, error) {
	switch {
	case cfg != nil && cfg.Prompt != "":
		ip.Env.Setenv(EnvPrompt, cfg.Prompt)
	default:
		if _, ok := ip.Env.LookupEnv(EnvPrompt); !ok {
			ip.Env.Setenv(EnvPrompt, DefaultPrompt)
		}
	}

	rlCfg := &readline.Config{}
	if cfg != nil {
		rlCfg.HistoryFile = cfg.HistoryFile
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}

	return &Shell{Interp: ip, Readline: rl}, nil
}

// Prompt expands the PROMPT template against the interpreter state.
func (s *Shell) Prompt() string {
	ps := s.Interp.Env.Getenv(EnvPrompt)
	if ps == "" {
		ps = "($PROMPT Unavailable)> "
	}
	return s.Interp.Expand(ps)
}

// Run is the interactive read-evaluate-print loop. Unlike the
// non-interactive loop it reports failed lines and keeps going. The
// return value is the shell's process exit code.
func (s *Shell) Run() int {
	stdio := interp.Stdio()

	for {
		s.Interp.RefreshEnv()
		s.Readline.SetPrompt(s.Prompt())

		line, err := s.Readline.Readline()
		switch {
		case err == io.EOF:
			return s.Interp.ExitCode()

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			log.Printf("readline: %v", err)
			continue

		case len(line) == 0:
			continue

		default:
			status := s.Interp.Run(line, stdio)
			if s.Interp.Exited() {
				return s.Interp.ExitCode()
			}
			if status < 0 {
				color.New(color.FgRed).Fprintf(os.Stderr,
					"task exited abnormally, status = %d\n", status)
			}
		}
	}
}

// Close releases the readline instance.
func (s *Shell) Close() error {
	return s.Readline.Close()
}
