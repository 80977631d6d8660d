package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// Runner starts a Plan and waits for it.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a Runner wired to the launcher's own stdio.
func NewRunner() *Runner {
	return &Runner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// StartError means the trainer (or script(1)) could not be started at all.
type StartError struct {
	Argv []string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Argv[0], e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// Run executes plan and returns the child's exit status. It never retries and
// never interprets a non-zero status; err is non-nil only when the child could
// not be started or waited on.
//
// While the child runs, SIGINT is absorbed (a terminal already delivers it to
// the whole foreground process group) and SIGTERM is relayed to the child, so
// the launcher always outlives the child and reports its status.
func (r *Runner) Run(ctx context.Context, plan Plan) (int, error) {
	if len(plan.Argv) == 0 {
		return 0, errors.New("empty command")
	}

	cmd := exec.Command(plan.Argv[0], plan.Argv[1:]...)
	cmd.Dir = plan.Command.Dir
	cmd.Env = plan.Command.Environ()
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	if err := cmd.Start(); err != nil {
		return 0, &StartError{Argv: plan.Argv, Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case err := <-done:
			return exitStatus(err)
		case sig := <-sigs:
			if sig == syscall.SIGTERM {
				_ = cmd.Process.Signal(sig)
			}
		case <-ctx.Done():
			// Relay cancellation as SIGTERM and keep waiting for the status.
			_ = cmd.Process.Signal(syscall.SIGTERM)
			ctx = context.Background()
		}
	}
}

// exitStatus maps a Wait error to a shell-style exit status: the child's
// code, or 128+signal when it was killed.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("wait: %w", err)
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return code, nil
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return 1, nil
}
