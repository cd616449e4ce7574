package forge

import (
	"context"
	"fmt"

	"forge/internal/config"
	"forge/internal/facts"
	"forge/internal/installer"
	"forge/internal/logger"
)

// Install installs the named tool. explicit names an installer to use; when empty
// the first available installer in platform precedence order is chosen.
//
// A tool already in facts is left alone unless explicit names a different
// installer than the one recorded.
func (f *Forge) Install(ctx context.Context, name, explicit string) error {
	tool, err := f.Knowledge.Tool(name)
	if err != nil {
		return err
	}
	fs, err := f.Store.Load()
	if err != nil {
		return err
	}

	if fact, ok := fs.Get(name); ok && (explicit == "" || explicit == fact.Installer) {
		logger.Info("[INFO] %s %s is already installed with %s. Skipping.\n", name, fact.Version, fact.Installer)
		return nil
	}

	inst, err := f.selectInstaller(ctx, tool, explicit)
	if err != nil {
		return err
	}

	logger.Info("[INFO] Installing %s with %s\n", name, inst.Name)
	res, err := f.Executor.Install(ctx, installer.Request{Tool: tool, Installer: inst})
	if err != nil {
		return fmt.Errorf("install %s with %s: %w", name, inst.Name, err)
	}

	fs.Set(name, facts.ToolFact{
		InstalledAt: f.now(),
		Installer:   inst.Name,
		Version:     res.Version,
		Executables: res.Executables,
	})
	if err := f.Store.Save(fs); err != nil {
		return err
	}
	logger.Success("[OK] Installed %s %s with %s\n", name, res.Version, inst.Name)
	return nil
}

// selectInstaller resolves explicit, or walks the tool's candidates skipping
// installers whose check fails.
func (f *Forge) selectInstaller(ctx context.Context, tool *config.Tool, explicit string) (*config.Installer, error) {
	if explicit != "" {
		if _, ok := tool.Installers[explicit]; !ok {
			return nil, fmt.Errorf("%w: %s cannot be installed with %s (declared: %v)",
				config.ErrConfiguration, tool.Name, explicit, tool.InstallerNames())
		}
		inst, err := f.Knowledge.Installer(explicit)
		if err != nil {
			return nil, err
		}
		if !f.available(ctx, inst) {
			return nil, fmt.Errorf("%s: %w", explicit, ErrInstallerUnavailable)
		}
		return inst, nil
	}

	candidates := f.Knowledge.Candidates(tool, f.Executor.Platform.OS)
	for _, name := range candidates {
		inst, err := f.Knowledge.Installer(name)
		if err != nil {
			return nil, err
		}
		if !f.available(ctx, inst) {
			logger.Warn("[WARN] %s is not available, skipping\n", name)
			continue
		}
		return inst, nil
	}
	return nil, fmt.Errorf("%s: %w (tried %v)", tool.Name, ErrNoInstaller, candidates)
}
