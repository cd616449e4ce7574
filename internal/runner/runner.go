// Package runner is the process boundary: every installer, probe and download helper
// goes through a Runner so tests can substitute canned output.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Result is the captured outcome of one process run.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports a zero exit status.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Combined joins stdout and stderr with a separating newline, the form version
// patterns are matched against.
func (r Result) Combined() string {
	return string(r.Stdout) + "\n" + string(r.Stderr)
}

// StderrText returns trimmed stderr, falling back to stdout when stderr is empty.
func (r Result) StderrText() string {
	if s := strings.TrimSpace(string(r.Stderr)); s != "" {
		return s
	}
	return strings.TrimSpace(string(r.Stdout))
}

// Runner starts a program and waits for it. A non-zero exit is reported through
// Result.ExitCode; the error is reserved for processes that could not be started
// or were killed by the context.
type Runner interface {
	Run(ctx context.Context, program string, args ...string) (Result, error)
}

// Exec runs real processes. Stdin is inherited so installers can prompt (sudo, etc.).
type Exec struct {
	// Timeout bounds each process when positive.
	Timeout time.Duration
}

func (e Exec) Run(ctx context.Context, program string, args ...string) (Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Stdin = os.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, err
	}
	return res, nil
}

var _ Runner = Exec{}

// CommandLine renders argv for log output.
func CommandLine(program string, args ...string) string {
	return strings.Join(append([]string{program}, args...), " ")
}
