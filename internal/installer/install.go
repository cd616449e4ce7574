// Package installer runs the three installer strategies (command templates, shell
// scripts and GitHub release downloads) and reports what ended up installed.
package installer

import (
	"context"
	"fmt"
	"net/http"

	"forge/internal/config"
	"forge/internal/expand"
	"forge/internal/github"
	"forge/internal/logger"
	"forge/internal/platform"
	"forge/internal/runner"
)

// Executor carries everything an install needs from the outside world.
type Executor struct {
	Runner   runner.Runner
	Releases github.ReleaseSource
	HTTP     *http.Client
	Platform platform.Platform
	BinDir   string
}

// Request names one tool and the installer to use for it. Version is optional
// and only fills the {version} placeholder.
type Request struct {
	Tool      *config.Tool
	Installer *config.Installer
	Version   string
}

// Result is a successful install. Executables is nil for command installers,
// which do not report where files went.
type Result struct {
	Version     string
	Executables []string
}

// Install runs the request's installer for its tool.
func (e *Executor) Install(ctx context.Context, req Request) (*Result, error) {
	ti, ok := req.Tool.Installers[req.Installer.Name]
	if !ok {
		return nil, fmt.Errorf("%w: tool %q does not declare installer %q", config.ErrConfiguration, req.Tool.Name, req.Installer.Name)
	}
	logger.Debug("[DEBUG] Installing %s with %s (%s)\n", req.Tool.Name, req.Installer.Name, req.Installer.Kind())

	switch spec := req.Installer.Spec.(type) {
	case *config.CommandSpec:
		return e.installCommand(ctx, spec, e.expandContext(req.Tool, overrides(ti), req.Version))
	case *config.ScriptSpec:
		set, err := scriptSet(req.Tool, ti)
		if err != nil {
			return nil, err
		}
		return e.installScript(ctx, spec, req.Tool, set)
	case *config.GitHubSpec:
		return e.installGitHub(ctx, req.Tool, overrides(ti))
	}
	return nil, fmt.Errorf("%w: installer %q has no strategy", config.ErrConfiguration, req.Installer.Name)
}

func overrides(ti config.ToolInstaller) *config.Overrides {
	if ov, ok := ti.(*config.Overrides); ok && ov != nil {
		return ov
	}
	return &config.Overrides{}
}

func scriptSet(tool *config.Tool, ti config.ToolInstaller) (*config.ScriptSet, error) {
	set, ok := ti.(*config.ScriptSet)
	if !ok || set == nil {
		return nil, fmt.Errorf("%w: tool %q has no scripts", config.ErrConfiguration, tool.Name)
	}
	return set, nil
}

// ExpandContext is the template context for tool under the named installer.
func (e *Executor) ExpandContext(tool *config.Tool, installerName, version string) expand.Context {
	return e.expandContext(tool, overrides(tool.Installers[installerName]), version)
}

func (e *Executor) expandContext(tool *config.Tool, ov *config.Overrides, version string) expand.Context {
	return expand.Context{
		Tool:     tool.Name,
		Package:  ov.Package,
		Repo:     ov.Repo,
		Pattern:  ov.Pattern,
		URL:      ov.URL,
		Version:  version,
		Platform: e.Platform,
	}
}

// run executes argv and turns a non-zero exit into a CommandError of kind.
func (e *Executor) run(ctx context.Context, kind error, argv []string) (runner.Result, error) {
	if len(argv) == 0 {
		return runner.Result{}, fmt.Errorf("%w: empty command", config.ErrConfiguration)
	}
	line := runner.CommandLine(argv[0], argv[1:]...)
	logger.Muted("$ %s\n", line)

	res, err := e.Runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return res, fmt.Errorf("run %s: %w", line, err)
	}
	if !res.Success() {
		return res, &CommandError{Kind: kind, Command: line, ExitCode: res.ExitCode, Stderr: res.StderrText()}
	}
	return res, nil
}
