package installer

import (
	"context"
	"fmt"

	"forge/internal/config"
	"forge/internal/expand"
	"forge/internal/logger"
	"forge/internal/runner"
	"forge/internal/version"
)

// installCommand runs a package-manager style install and reads the installed
// version out of its output. A failed extraction leaves the package installed.
func (e *Executor) installCommand(ctx context.Context, spec *config.CommandSpec, ec expand.Context) (*Result, error) {
	if spec.OutputPattern == "" {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, ErrMissingOutputPattern)
	}

	res, err := e.run(ctx, ErrCommandFailed, expand.Args(spec.Install, ec))
	if err != nil {
		return nil, err
	}

	v, err := extractVersion(res, expand.String(spec.OutputPattern, ec))
	if err != nil {
		return nil, fmt.Errorf("%s installed but %w", ec.Tool, err)
	}
	return &Result{Version: v}, nil
}

// extractVersion applies pattern to the combined output. With FORGE_DEBUG set, a
// miss dumps the pattern and the raw output.
func extractVersion(res runner.Result, pattern string) (string, error) {
	output := res.Combined()
	v, err := version.ExtractWithPattern(output, pattern)
	if err != nil && logger.DebugEnabled() {
		logger.Warn("[DEBUG] version pattern: %s\n", pattern)
		logger.Warn("[DEBUG] combined output:\n%s\n", output)
	}
	return v, err
}

func (e *Executor) uninstallCommand(ctx context.Context, spec *config.CommandSpec, ec expand.Context) error {
	if len(spec.Uninstall) == 0 {
		return fmt.Errorf("%w: no uninstall command", ErrUnsupportedOperation)
	}
	_, err := e.run(ctx, ErrCommandFailed, expand.Args(spec.Uninstall, ec))
	return err
}

// updateCommand runs the update template. Update output often names both the old
// and the new version, so the tool itself is asked first and the output pattern
// is the fallback.
func (e *Executor) updateCommand(ctx context.Context, spec *config.CommandSpec, tool *config.Tool, ec expand.Context) (*Result, error) {
	if len(spec.Update) == 0 {
		return nil, fmt.Errorf("%w: no update command", ErrUnsupportedOperation)
	}

	res, err := e.run(ctx, ErrCommandFailed, expand.Args(spec.Update, ec))
	if err != nil {
		return nil, err
	}

	if v, ok := e.probe(ctx, tool); ok {
		return &Result{Version: v}, nil
	}
	if spec.OutputPattern == "" {
		return nil, fmt.Errorf("%s updated but %w", ec.Tool, ErrVersionDetectionFailed)
	}
	v, err := extractVersion(res, expand.String(spec.OutputPattern, ec))
	if err != nil {
		return nil, fmt.Errorf("%s updated but %w", ec.Tool, err)
	}
	return &Result{Version: v}, nil
}
