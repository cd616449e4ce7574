package forge

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// List prints every installed tool with its version, installer and description.
func (f *Forge) List() error {
	fs, err := f.Store.Load()
	if err != nil {
		return err
	}
	names := fs.Names()
	if len(names) == 0 {
		fmt.Fprintln(f.out(), "No tools installed.")
		return nil
	}

	w := tabwriter.NewWriter(f.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tVERSION\tINSTALLER\tDESCRIPTION")
	for _, name := range names {
		fact, _ := fs.Get(name)
		desc := ""
		if tool, ok := f.Knowledge.Tools[name]; ok {
			desc = tool.Description
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, fact.Version, fact.Installer, desc)
	}
	return w.Flush()
}

// Why explains a tool: what it is, what it provides, how it can be installed on
// this platform and how it was installed, if it was.
func (f *Forge) Why(name string) error {
	tool, err := f.Knowledge.Tool(name)
	if err != nil {
		return err
	}
	fs, err := f.Store.Load()
	if err != nil {
		return err
	}

	out := f.out()
	fmt.Fprintf(out, "%s: %s\n", tool.Name, tool.Description)
	if len(tool.Provides) > 0 {
		fmt.Fprintf(out, "provides:   %s\n", strings.Join(tool.Provides, ", "))
	}
	fmt.Fprintf(out, "installers: %s (in %s preference order)\n",
		strings.Join(f.Knowledge.Candidates(tool, f.Executor.Platform.OS), ", "), f.Executor.Platform.OS)

	if fact, ok := fs.Get(name); ok {
		fmt.Fprintf(out, "installed:  %s with %s on %s\n", fact.Version, fact.Installer, fact.InstalledAt.Format("2006-01-02"))
	} else {
		fmt.Fprintln(out, "installed:  no")
	}
	return nil
}
