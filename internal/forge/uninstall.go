package forge

import (
	"context"
	"errors"
	"fmt"

	"forge/internal/config"
	"forge/internal/installer"
	"forge/internal/logger"
)

// Uninstall removes a tool with the installer recorded in facts and forgets it.
// Command installer failures only warn, since the package manager may already
// have lost track of the package.
func (f *Forge) Uninstall(ctx context.Context, name string) error {
	fs, err := f.Store.Load()
	if err != nil {
		return err
	}
	fact, ok := fs.Get(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}

	tool, err := f.Knowledge.Tool(name)
	if err != nil {
		return err
	}
	inst, err := f.Knowledge.Installer(fact.Installer)
	if err != nil {
		return err
	}

	logger.Info("[INFO] Uninstalling %s (%s)\n", name, inst.Name)
	err = f.Executor.Uninstall(ctx, installer.Request{Tool: tool, Installer: inst}, fact.Executables)
	switch {
	case err == nil:
	case inst.Kind() == config.KindCommand, errors.Is(err, installer.ErrUnsupportedOperation):
		logger.Warn("[WARN] %s: %v\n", name, err)
	default:
		return fmt.Errorf("uninstall %s: %w", name, err)
	}

	fs.Delete(name)
	if err := f.Store.Save(fs); err != nil {
		return err
	}
	logger.Success("[OK] Uninstalled %s\n", name)
	return nil
}
