// Package command runs the external ceph commands the sentinel depends on
// (the status query and the OSD restart) with an explicit timeout, so a hung
// CLI call is reported as a timeout rather than blocking the cycle forever.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed.
const waitDelay = 2 * time.Second

// ErrTimeout is returned (wrapped) when a command exceeds its timeout.
var ErrTimeout = errors.New("command timed out")

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes a shell command line.
type Runner interface {
	Run(ctx context.Context, commandLine string, timeout time.Duration) (Result, error)
}

// ShellRunner runs command lines through /bin/sh -c, matching how operators
// write them in configuration (pipes and env prefixes are allowed).
type ShellRunner struct {
	Shell string
}

// NewShellRunner returns a runner using /bin/sh.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Shell: "/bin/sh"}
}

// Run executes commandLine and waits for it to finish or for the timeout to
// expire. A non-zero exit status is an error carrying the trimmed stderr.
// A timeout wraps ErrTimeout; parent context cancellation returns ctx.Err().
func (r *ShellRunner) Run(ctx context.Context, commandLine string, timeout time.Duration) (Result, error) {
	if strings.TrimSpace(commandLine) == "" {
		return Result{}, fmt.Errorf("empty command line")
	}

	runCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	shell := r.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(runCtx, shell, "-c", commandLine)
	// Kill the whole process group so children of the shell die with it
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   out.String(),
		Stderr:   errb.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return res, nil
	}

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, commandLine)
	}

	stderr := strings.TrimSpace(res.Stderr)
	if stderr != "" {
		return res, fmt.Errorf("%s: %w: %s", commandLine, err, stderr)
	}
	return res, fmt.Errorf("%s: %w", commandLine, err)
}
