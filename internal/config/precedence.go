package config

import (
	"fmt"
	"sort"

	"forge/internal/platform"
)

// Tool returns the named tool or an error naming it.
func (k *Knowledge) Tool(name string) (*Tool, error) {
	t, ok := k.Tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}

// Installer returns the named installer or an error naming it.
func (k *Knowledge) Installer(name string) (*Installer, error) {
	inst, ok := k.Installers[name]
	if !ok {
		return nil, fmt.Errorf("unknown installer %q", name)
	}
	return inst, nil
}

// ToolNames returns every known tool name, sorted.
func (k *Knowledge) ToolNames() []string {
	names := make([]string, 0, len(k.Tools))
	for name := range k.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Candidates orders the installers tool declares for automatic selection on os:
// first those named by the OS precedence list, in its order, then the rest of the
// declared installers in name order.
func (k *Knowledge) Candidates(tool *Tool, os platform.OS) []string {
	seen := make(map[string]bool, len(tool.Installers))
	out := make([]string, 0, len(tool.Installers))

	for _, name := range k.Platforms[os].Order {
		if _, declared := tool.Installers[name]; declared && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range tool.InstallerNames() {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}
