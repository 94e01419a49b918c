// Package delegate runs the wrapped openclaw process on chitin's behalf.
//
// Delegation is the transparency guarantee of the shim: the original
// argument vector, the stdio streams, and the exit code all pass through
// unchanged. The only distinction the package draws is between the child
// running and exiting non-zero (its legitimate result, passed through) and
// the child not being startable at all (a SpawnError, chitin's own failure).
package delegate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"

	"github.com/peakxl/chitin/internal/logging"
	"github.com/peakxl/chitin/internal/nodejs"
)

// Result is the outcome of one delegated run.
type Result struct {
	// ExitCode is the child's exit code, propagated exactly.
	ExitCode int

	// Stdout and Stderr hold the child's output in capture mode; they are
	// nil in inherit mode, where the streams go straight to the caller's.
	Stdout []byte
	Stderr []byte
}

// SpawnError means the wrapped CLI could not be executed at all (missing
// binary, permission denied). It is never used for a child that ran and
// exited non-zero.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot run %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Runner executes an external command. It is a capability interface so
// tests can substitute a fake and count spawns.
type Runner interface {
	// Inherit runs the command with chitin's own stdin/stdout/stderr,
	// preserving TTY detection and interactive behavior.
	Inherit(ctx context.Context, name string, args ...string) (Result, error)

	// Capture runs the command collecting stdout and stderr into memory.
	Capture(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner returns the real subprocess runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Inherit implements Runner.
func (r *ExecRunner) Inherit(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return exitResult(name, err)
	}
	return Result{ExitCode: 0}, nil
}

// Capture implements Runner. Stdout and stderr are drained concurrently so
// a child filling one pipe can never deadlock against the other.
func (r *ExecRunner) Capture(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: 1}, &SpawnError{Name: name, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: 1}, &SpawnError{Name: name, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: 1}, &SpawnError{Name: name, Err: err}
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	copyErr := g.Wait()

	res := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}
	if err := cmd.Wait(); err != nil {
		exit, spawnErr := exitResult(name, err)
		exit.Stdout, exit.Stderr = res.Stdout, res.Stderr
		return exit, spawnErr
	}
	if copyErr != nil {
		return res, &SpawnError{Name: name, Err: copyErr}
	}
	return res, nil
}

// exitResult translates an exec error: an ExitError carries the child's own
// exit code, anything else means the child never ran.
func exitResult(name string, err error) (Result, error) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Killed by signal; mirror the shell convention.
			code = 1
		}
		return Result{ExitCode: code}, nil
	}
	return Result{ExitCode: 1}, &SpawnError{Name: name, Err: err}
}

// Delegator runs openclaw through a Runner using a resolved invocation.
type Delegator struct {
	runner Runner
	inv    nodejs.Invocation
}

// New returns a Delegator for the given runner and openclaw invocation.
func New(runner Runner, inv nodejs.Invocation) *Delegator {
	return &Delegator{runner: runner, inv: inv}
}

// Run delegates args to openclaw. With capture false the child inherits
// chitin's stdio; with capture true its output is collected for caching.
func (d *Delegator) Run(ctx context.Context, args []string, capture bool) (Result, error) {
	name, argv := d.inv.Command(args...)

	logging.FromContext(ctx).Debug().
		Str("component", "delegate").
		Str("binary", name).
		Strs("args", argv).
		Bool("capture", capture).
		Msg("delegating to openclaw")

	if capture {
		return d.runner.Capture(ctx, name, argv...)
	}
	return d.runner.Inherit(ctx, name, argv...)
}
