package forge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"forge/internal/config"
	"forge/internal/facts"
	"forge/internal/installer"
	"forge/internal/logger"
)

// pending is an installed tool with a newer version available.
type pending struct {
	tool   *config.Tool
	inst   *config.Installer
	fact   facts.ToolFact
	latest string
}

// Update brings installed tools to their latest version. names limits the run to
// those tools; empty means every installed tool. Unless yes is set the user is
// asked to confirm before anything changes.
func (f *Forge) Update(ctx context.Context, names []string, yes bool) error {
	fs, err := f.Store.Load()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = fs.Names()
	}
	for _, name := range names {
		if _, ok := fs.Get(name); !ok {
			return fmt.Errorf("%s: %w", name, ErrNotInstalled)
		}
	}

	todo := f.outdated(ctx, fs, names)
	if len(todo) == 0 {
		logger.Info("[INFO] Everything is up to date.\n")
		return nil
	}

	fmt.Fprintln(f.out(), "Updates available:")
	for _, p := range todo {
		fmt.Fprintf(f.out(), "  %-16s %s -> %s (%s)\n", p.tool.Name, p.fact.Version, p.latest, p.inst.Name)
	}
	if !yes && !f.confirm("Proceed?") {
		logger.Info("[INFO] Update cancelled.\n")
		return nil
	}

	failed := 0
	for _, p := range todo {
		res, removed, err := f.updateOne(ctx, p)
		if err != nil {
			logger.Error("[ERROR] Failed to update %s: %v\n", p.tool.Name, err)
			failed++
			// The old install is gone, so its fact must go too or a later
			// install would skip the tool as already present.
			if removed {
				fs.Delete(p.tool.Name)
				if err := f.Store.Save(fs); err != nil {
					return err
				}
				logger.Warn("[WARN] %s was removed and is no longer installed\n", p.tool.Name)
			}
			continue
		}

		exes := res.Executables
		if exes == nil {
			exes = p.fact.Executables
		}
		fs.Set(p.tool.Name, facts.ToolFact{
			InstalledAt: f.now(),
			Installer:   p.inst.Name,
			Version:     res.Version,
			Executables: exes,
		})
		if err := f.Store.Save(fs); err != nil {
			return err
		}
		logger.Success("[OK] Updated %s to %s\n", p.tool.Name, res.Version)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d updates failed", failed, len(todo))
	}
	return nil
}

// outdated asks each tool's installer for its latest version, concurrently, and
// returns the tools whose recorded version differs, in name order. Tools whose
// latest version cannot be determined are skipped with a message.
func (f *Forge) outdated(ctx context.Context, fs *facts.Facts, names []string) []pending {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		todo []pending
	)

	for _, name := range names {
		fact, _ := fs.Get(name)
		tool, err := f.Knowledge.Tool(name)
		if err != nil {
			logger.Warn("[WARN] %s is installed but no longer known: %v\n", name, err)
			continue
		}
		inst, err := f.Knowledge.Installer(fact.Installer)
		if err != nil {
			logger.Warn("[WARN] %s was installed with %s, which is no longer known\n", name, fact.Installer)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			latest, err := f.latest(ctx, tool, inst)
			switch {
			case err != nil:
				logger.Warn("[WARN] Could not check the latest %s: %v\n", tool.Name, err)
				return
			case latest == "":
				logger.Info("[INFO] %s: %s cannot report the latest version. Skipping.\n", tool.Name, inst.Name)
				return
			case latest == fact.Version:
				logger.Info("[INFO] %s %s is current.\n", tool.Name, fact.Version)
				return
			}

			mu.Lock()
			todo = append(todo, pending{tool: tool, inst: inst, fact: fact, latest: latest})
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(todo, func(i, j int) bool { return todo[i].tool.Name < todo[j].tool.Name })
	return todo
}

func (f *Forge) latest(ctx context.Context, tool *config.Tool, inst *config.Installer) (string, error) {
	if f.Checker == nil {
		return "", nil
	}
	return f.Checker.Latest(ctx, inst.VersionCheck, f.Executor.ExpandContext(tool, inst.Name, ""))
}

// updateOne updates in place, or uninstalls and reinstalls with the same
// installer when the installer cannot update. removed reports that the uninstall
// step ran, so a failed result means the tool is no longer installed.
func (f *Forge) updateOne(ctx context.Context, p pending) (res *installer.Result, removed bool, err error) {
	req := installer.Request{Tool: p.tool, Installer: p.inst, Version: p.latest}

	res, err = f.Executor.Update(ctx, req)
	if err == nil || !errors.Is(err, installer.ErrUnsupportedOperation) {
		return res, false, err
	}

	logger.Info("[INFO] %s cannot update %s in place, reinstalling\n", p.inst.Name, p.tool.Name)
	if err := f.Executor.Uninstall(ctx, req, p.fact.Executables); err != nil {
		logger.Warn("[WARN] Uninstalling %s before reinstall: %v\n", p.tool.Name, err)
	}
	res, err = f.Executor.Install(ctx, req)
	return res, true, err
}

// confirm prints question with a [Y/n] suffix. An empty answer means yes.
func (f *Forge) confirm(question string) bool {
	fmt.Fprintf(f.out(), "%s [Y/n] ", question)
	if f.In == nil {
		return false
	}
	answer, err := bufio.NewReader(f.In).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true
	}
	return false
}
