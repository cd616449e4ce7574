package config

import (
	"sort"

	"forge/internal/platform"
	"forge/internal/version"
)

// Kind is the closed set of installer strategies.
type Kind string

const (
	KindCommand Kind = "command" // argv template run directly (cargo, brew, apt, ...)
	KindScript  Kind = "script"  // per-OS shell script run through an interpreter
	KindGitHub  Kind = "github"  // release asset discovery and download
)

// Knowledge is the merged, resolved knowledge base. It is read-only once loaded
// and passed explicitly to whoever needs it.
type Knowledge struct {
	Version    int
	Installers map[string]*Installer
	Tools      map[string]*Tool
	Platforms  map[platform.OS]Precedence
}

// Installer is a named strategy for installing tools.
// - Check: optional argv whose success means the installer is usable.
// - Spec: the kind-specific payload (*CommandSpec, *ScriptSpec or *GitHubSpec).
// - VersionCheck: optional remote lookup of the latest version.
type Installer struct {
	Name         string
	Check        []string
	Spec         InstallerSpec
	VersionCheck *version.Check
}

// Kind reports which variant Spec holds.
func (i *Installer) Kind() Kind {
	return i.Spec.Kind()
}

// InstallerSpec is implemented by *CommandSpec, *ScriptSpec and *GitHubSpec only.
type InstallerSpec interface {
	Kind() Kind
}

// CommandSpec drives package-manager style installers.
// - Install/Uninstall/Update: argv templates (program first), expanded per tool.
// - OutputPattern: regex template with one capture group matched against the
//   combined install output; required to learn the installed version.
type CommandSpec struct {
	Install       []string
	Uninstall     []string
	Update        []string
	OutputPattern string
}

// ScriptSpec drives shell-script installers. Shell is the interpreter argv the
// script body is appended to, e.g. ["sh", "-c"].
type ScriptSpec struct {
	Shell []string
}

// GitHubSpec drives release-download installers. It has no installer-level fields;
// everything comes from the tool's overrides.
type GitHubSpec struct{}

func (*CommandSpec) Kind() Kind { return KindCommand }
func (*ScriptSpec) Kind() Kind  { return KindScript }
func (*GitHubSpec) Kind() Kind  { return KindGitHub }

// Tool is a piece of software forge knows how to install.
// - Provides: executable names the tool places on the system.
// - Installers: per-installer overrides keyed by installer name.
type Tool struct {
	Name        string
	Description string
	Provides    []string
	Installers  map[string]ToolInstaller
}

// InstallerNames returns the declared installer names in sorted order.
func (t *Tool) InstallerNames() []string {
	names := make([]string, 0, len(t.Installers))
	for name := range t.Installers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PrimaryExecutable is the executable probed after install: the first declared
// provide, or the tool name.
func (t *Tool) PrimaryExecutable() string {
	if len(t.Provides) > 0 {
		return t.Provides[0]
	}
	return t.Name
}

// ToolInstaller is the per-tool payload for one installer. It is implemented by
// *Overrides (command and github installers) and *ScriptSet (script installers).
type ToolInstaller interface {
	toolInstaller()
}

// Overrides customise template expansion for command and github installers.
// Empty fields fall back to the expander defaults.
type Overrides struct {
	Package string
	Repo    string
	Pattern string
	URL     string
}

// ScriptSet holds the scripts for each OS that has them.
type ScriptSet struct {
	ByOS map[platform.OS]PlatformScripts
}

// PlatformScripts are the script bodies for one OS. Install is required.
type PlatformScripts struct {
	Install   string
	Uninstall string
	Update    string
}

func (*Overrides) toolInstaller() {}
func (*ScriptSet) toolInstaller() {}

// For returns the scripts declared for os.
func (s *ScriptSet) For(os platform.OS) (PlatformScripts, bool) {
	ps, ok := s.ByOS[os]
	return ps, ok
}

// Precedence is an OS's ordered preference of installer names.
type Precedence struct {
	Order []string `yaml:"precedence" json:"precedence"`
}
