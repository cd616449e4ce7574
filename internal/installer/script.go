package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"forge/internal/config"
	"forge/internal/logger"
	"forge/internal/platform"
	"forge/internal/version"
)

var (
	posixShell   = []string{"sh", "-c"}
	windowsShell = []string{"powershell", "-NoProfile", "-Command"}
)

// shellArgv appends body to the installer's interpreter argv.
func (e *Executor) shellArgv(spec *config.ScriptSpec, body string) []string {
	shell := spec.Shell
	if len(shell) == 0 {
		shell = posixShell
		if e.Platform.OS == platform.Windows {
			shell = windowsShell
		}
	}
	argv := make([]string, 0, len(shell)+1)
	argv = append(argv, shell...)
	return append(argv, body)
}

func (e *Executor) scriptsFor(tool *config.Tool, set *config.ScriptSet) (config.PlatformScripts, error) {
	scripts, ok := set.For(e.Platform.OS)
	if !ok {
		return config.PlatformScripts{}, fmt.Errorf("%w: %s has no script for %s", ErrUnsupportedOperation, tool.Name, e.Platform.OS)
	}
	return scripts, nil
}

// runScript expands platform tokens in body and runs it through the shell.
func (e *Executor) runScript(ctx context.Context, spec *config.ScriptSpec, body string) error {
	body = e.Platform.Expand(body)
	logger.Debug("[DEBUG] Script:\n%s\n", body)
	_, err := e.run(ctx, ErrScriptFailed, e.shellArgv(spec, body))
	return err
}

// installScript runs the install script, then insists the tool reports a version.
// If it does not, the install is rolled back and ErrVersionDetectionFailed returned.
func (e *Executor) installScript(ctx context.Context, spec *config.ScriptSpec, tool *config.Tool, set *config.ScriptSet) (*Result, error) {
	scripts, err := e.scriptsFor(tool, set)
	if err != nil {
		return nil, err
	}
	if err := e.runScript(ctx, spec, scripts.Install); err != nil {
		return nil, err
	}

	v, ok := e.probe(ctx, tool)
	if !ok {
		logger.Warn("[WARN] %s did not report a version after install, rolling back\n", tool.Name)
		e.attemptCleanup(ctx, spec, tool, scripts)
		return nil, fmt.Errorf("%s: %w", tool.Name, ErrVersionDetectionFailed)
	}

	return &Result{Version: v, Executables: append([]string(nil), tool.Provides...)}, nil
}

// probe asks the tool's primary executable for its version. The platform suffix
// is part of the name so the bin dir fallback finds rg.exe on Windows.
func (e *Executor) probe(ctx context.Context, tool *config.Tool) (string, bool) {
	return version.Probe(ctx, e.Runner, tool.PrimaryExecutable()+e.Platform.ExeSuffix(), e.BinDir)
}

// attemptCleanup undoes a script install as far as it can. It never fails: the
// uninstall script's outcome is ignored and missing files are skipped.
func (e *Executor) attemptCleanup(ctx context.Context, spec *config.ScriptSpec, tool *config.Tool, scripts config.PlatformScripts) {
	if scripts.Uninstall != "" {
		if err := e.runScript(ctx, spec, scripts.Uninstall); err != nil {
			logger.Debug("[DEBUG] Cleanup uninstall script for %s: %v\n", tool.Name, err)
		}
	}
	e.removeFromBinDir(tool.Provides)
}

// removeFromBinDir deletes the named executables from the bin dir, reporting how
// many were removed.
func (e *Executor) removeFromBinDir(names []string) int {
	removed := 0
	for _, name := range names {
		for _, candidate := range []string{name, name + e.Platform.ExeSuffix()} {
			path := filepath.Join(e.BinDir, candidate)
			err := os.Remove(path)
			switch {
			case err == nil:
				logger.Info("[INFO] Removed %s\n", path)
				removed++
			case !errors.Is(err, os.ErrNotExist):
				logger.Warn("[WARN] Could not remove %s: %v\n", path, err)
			}
			if e.Platform.ExeSuffix() == "" {
				break
			}
		}
	}
	return removed
}

// uninstallScript runs the uninstall script, or deletes the tool's executables
// from the bin dir when there is none.
func (e *Executor) uninstallScript(ctx context.Context, spec *config.ScriptSpec, tool *config.Tool, set *config.ScriptSet) error {
	scripts, err := e.scriptsFor(tool, set)
	if err != nil {
		return err
	}
	if scripts.Uninstall == "" {
		if e.removeFromBinDir(tool.Provides) == 0 {
			return fmt.Errorf("%w: %s has no uninstall script and nothing in %s", ErrUnsupportedOperation, tool.Name, e.BinDir)
		}
		return nil
	}
	return e.runScript(ctx, spec, scripts.Uninstall)
}

func (e *Executor) updateScript(ctx context.Context, spec *config.ScriptSpec, tool *config.Tool, set *config.ScriptSet) (*Result, error) {
	scripts, err := e.scriptsFor(tool, set)
	if err != nil {
		return nil, err
	}
	if scripts.Update == "" {
		return nil, fmt.Errorf("%w: no update script", ErrUnsupportedOperation)
	}
	if err := e.runScript(ctx, spec, scripts.Update); err != nil {
		return nil, err
	}

	v, ok := e.probe(ctx, tool)
	if !ok {
		return nil, fmt.Errorf("%s updated but %w", tool.Name, ErrVersionDetectionFailed)
	}
	return &Result{Version: v, Executables: append([]string(nil), tool.Provides...)}, nil
}
