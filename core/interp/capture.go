package interp

import (
	"io"
	"os"
)

var _ Capturer = (*Interp)(nil)

// Capture runs cmdline through a full interpreter pass wired to an
// anonymous pipe pair and returns the collected output as a string.
// input, when non-empty, is written into the command's standard input
// before execution begins. ok is false when the pipeline failed.
//
// The command runs against a snapshot of the interpreter, so anything
// it mutates stays invisible to the caller.
//
// The output pipe is only drained after the pipeline's wait loop has
// reaped every stage, so the producer has exited before the read; a
// stage writing more than the pipe buffer holds will stall, which is a
// known limit of the capture design.
func (ip *Interp) Capture(cmdline, input string) (string, bool) {
	inR, inW, err := os.Pipe()
	if err != nil {
		return "", false
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return "", false
	}
	defer inR.Close()
	defer outR.Close()

	if input != "" {
		_, _ = io.WriteString(inW, input)
	}
	inW.Close()

	status := ip.clone().Run(cmdline, IO{In: inR, Out: outW})
	outW.Close()

	if status != 0 {
		return "", false
	}

	out, err := io.ReadAll(outR)
	if err != nil {
		return "", false
	}
	return string(out), true
}
