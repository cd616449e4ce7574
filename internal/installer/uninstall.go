package installer

import (
	"context"
	"fmt"

	"forge/internal/config"
	"forge/internal/logger"
)

// Uninstall removes a tool using the installer that put it there. recorded holds
// the executables noted at install time, used by the github installer.
func (e *Executor) Uninstall(ctx context.Context, req Request, recorded []string) error {
	ti, ok := req.Tool.Installers[req.Installer.Name]
	if !ok {
		ti = &config.Overrides{}
	}
	logger.Debug("[DEBUG] Uninstalling %s with %s\n", req.Tool.Name, req.Installer.Name)

	switch spec := req.Installer.Spec.(type) {
	case *config.CommandSpec:
		return e.uninstallCommand(ctx, spec, e.expandContext(req.Tool, overrides(ti), ""))
	case *config.ScriptSpec:
		set, err := scriptSet(req.Tool, ti)
		if err != nil {
			return err
		}
		return e.uninstallScript(ctx, spec, req.Tool, set)
	case *config.GitHubSpec:
		return e.uninstallGitHub(req.Tool, recorded)
	}
	return fmt.Errorf("%w: installer %q has no strategy", config.ErrConfiguration, req.Installer.Name)
}

// Update upgrades a tool in place when its installer knows how. It returns an
// error wrapping ErrUnsupportedOperation when the caller should reinstall instead.
func (e *Executor) Update(ctx context.Context, req Request) (*Result, error) {
	ti, ok := req.Tool.Installers[req.Installer.Name]
	if !ok {
		return nil, fmt.Errorf("%w: tool %q does not declare installer %q", config.ErrConfiguration, req.Tool.Name, req.Installer.Name)
	}

	switch spec := req.Installer.Spec.(type) {
	case *config.CommandSpec:
		return e.updateCommand(ctx, spec, req.Tool, e.expandContext(req.Tool, overrides(ti), req.Version))
	case *config.ScriptSpec:
		set, err := scriptSet(req.Tool, ti)
		if err != nil {
			return nil, err
		}
		return e.updateScript(ctx, spec, req.Tool, set)
	case *config.GitHubSpec:
		return nil, fmt.Errorf("%w: github installs are replaced, not updated", ErrUnsupportedOperation)
	}
	return nil, fmt.Errorf("%w: installer %q has no strategy", config.ErrConfiguration, req.Installer.Name)
}
