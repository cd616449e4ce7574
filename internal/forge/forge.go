// Package forge ties knowledge, facts and the install executor together into the
// user-facing operations: install, update, uninstall, list and why.
package forge

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"forge/internal/config"
	"forge/internal/facts"
	"forge/internal/installer"
	"forge/internal/logger"
	"forge/internal/version"
)

var (
	ErrNotInstalled         = errors.New("tool is not installed")
	ErrNoInstaller          = errors.New("no usable installer")
	ErrInstallerUnavailable = errors.New("installer is not available on this machine")
)

// Forge is one configured session. Knowledge is read-only; facts are loaded from
// Store at the start of each operation and saved after every change.
type Forge struct {
	Knowledge *config.Knowledge
	Store     *facts.Store
	Executor  *installer.Executor
	Checker   *version.Checker

	Out io.Writer        // listings and prompts
	In  io.Reader        // answers to confirmation prompts
	Now func() time.Time // install timestamps
}

func (f *Forge) out() io.Writer {
	if f.Out == nil {
		return os.Stdout
	}
	return f.Out
}

func (f *Forge) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

// available runs the installer's check argv. No check means always available.
func (f *Forge) available(ctx context.Context, inst *config.Installer) bool {
	if len(inst.Check) == 0 {
		return true
	}
	res, err := f.Executor.Runner.Run(ctx, inst.Check[0], inst.Check[1:]...)
	if err != nil {
		logger.Debug("[DEBUG] %s check failed: %v\n", inst.Name, err)
		return false
	}
	return res.Success()
}
