package executor

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/vk/exrun/internal/block"
)

// ProcessResult is how a finished process ended. Exactly one of ExitCode
// (possibly 0) or Signal is meaningful, depending on Signaled.
type ProcessResult struct {
	ExitCode int
	Signaled bool
	Signal   string
}

// ProcessRunner executes a synthesized command line. A non-nil error means
// the process could not be launched at all.
type ProcessRunner interface {
	Run(ctx context.Context, cl block.CommandLine) (ProcessResult, error)
}

// DefaultWaitDelay is used when ExecRunner.WaitDelay is zero.
const DefaultWaitDelay = 2 * time.Second

// ExecRunner runs command lines as child processes without a shell. The
// process is killed when ctx is done.
type ExecRunner struct {
	// Dir is the working directory; empty means the current one.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	// WaitDelay bounds how long output is still copied after the process
	// was killed, in case a grandchild holds the pipes open.
	WaitDelay time.Duration
}

// Run implements ProcessRunner.
func (r *ExecRunner) Run(ctx context.Context, cl block.CommandLine) (ProcessResult, error) {
	cmd := exec.CommandContext(ctx, cl.Program, cl.Args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	err := cmd.Run()
	if err == nil {
		return ProcessResult{}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ProcessResult{}, err
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ProcessResult{ExitCode: -1, Signaled: true, Signal: ws.Signal().String()}, nil
	}
	return ProcessResult{ExitCode: exitErr.ExitCode()}, nil
}
