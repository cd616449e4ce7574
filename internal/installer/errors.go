package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandFailed marks a command installer step that exited non-zero.
	ErrCommandFailed = errors.New("command failed")
	// ErrScriptFailed marks an installer script that exited non-zero.
	ErrScriptFailed = errors.New("script failed")
	// ErrMissingOutputPattern is returned for command installers without install_output_pattern.
	ErrMissingOutputPattern = errors.New("installer has no install_output_pattern")
	// ErrVersionDetectionFailed is returned when a script install ran but the tool
	// did not report a version afterwards.
	ErrVersionDetectionFailed = errors.New("could not detect installed version")
	// ErrMissingRepo is returned for github installs of tools without a repo.
	ErrMissingRepo = errors.New("tool has no repo for the github installer")
	// ErrUnsupportedOperation is returned when an installer cannot perform a step
	// (uninstall, update) for a tool.
	ErrUnsupportedOperation = errors.New("operation not supported by installer")
)

// CommandError is a subprocess that ran and failed. It unwraps to Kind, either
// ErrCommandFailed or ErrScriptFailed.
type CommandError struct {
	Kind     error
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%v: %s exited with status %d", e.Kind, e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Kind
}
