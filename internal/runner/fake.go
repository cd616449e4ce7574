package runner

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// Fake is a Runner that answers from a table of expected command lines. Commands
// without an expectation fail as if the program were not on PATH.
type Fake struct {
	mu      sync.Mutex
	results map[string]Result
	calls   []string
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{results: make(map[string]Result)}
}

// Expect registers the result returned for an exact command line.
func (f *Fake) Expect(res Result, program string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[CommandLine(program, args...)] = res
}

// ExpectOutput registers a successful run printing stdout.
func (f *Fake) ExpectOutput(stdout string, program string, args ...string) {
	f.Expect(Result{Stdout: []byte(stdout)}, program, args...)
}

func (f *Fake) Run(ctx context.Context, program string, args ...string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	line := CommandLine(program, args...)
	f.calls = append(f.calls, line)
	res, ok := f.results[line]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", program, exec.ErrNotFound)
	}
	return res, nil
}

// Calls returns every command line seen, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var _ Runner = (*Fake)(nil)
