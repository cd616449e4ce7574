package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"forge/internal/logger"
	"forge/internal/platform"
	"forge/internal/version"
)

// ErrConfiguration marks knowledge that is malformed or internally inconsistent.
var ErrConfiguration = errors.New("configuration error")

//go:embed knowledge.yaml
var embeddedKnowledge []byte

// document is the on-disk shape of a knowledge file, before resolution.
type document struct {
	Version    int                     `yaml:"version"`
	Installers map[string]rawInstaller `yaml:"installers"`
	Tools      map[string]rawTool      `yaml:"tools"`
	Platforms  map[string]Precedence   `yaml:"platforms"`
}

type rawInstaller struct {
	Type                 string         `yaml:"type"`
	Check                []string       `yaml:"check"`
	Install              []string       `yaml:"install"`
	Uninstall            []string       `yaml:"uninstall"`
	Update               []string       `yaml:"update"`
	InstallOutputPattern string         `yaml:"install_output_pattern"`
	Shell                []string       `yaml:"shell"`
	VersionCheck         *version.Check `yaml:"version_check"`
}

type rawTool struct {
	Description string                      `yaml:"description"`
	Provides    []string                    `yaml:"provides"`
	Installers  map[string]rawToolInstaller `yaml:"installers"`
}

// rawToolInstaller holds both shapes; resolve keeps the one matching the installer kind.
type rawToolInstaller struct {
	Package string      `yaml:"package"`
	Repo    string      `yaml:"repo"`
	Pattern string      `yaml:"pattern"`
	URL     string      `yaml:"url"`
	Linux   *rawScripts `yaml:"linux"`
	MacOS   *rawScripts `yaml:"macos"`
	Windows *rawScripts `yaml:"windows"`
}

type rawScripts struct {
	Install   string `yaml:"install"`
	Uninstall string `yaml:"uninstall"`
	Update    string `yaml:"update"`
}

func (r rawToolInstaller) hasOverrides() bool {
	return r.Package != "" || r.Repo != "" || r.Pattern != "" || r.URL != ""
}

func (r rawToolInstaller) scripts() map[platform.OS]*rawScripts {
	out := map[platform.OS]*rawScripts{}
	if r.Linux != nil {
		out[platform.Linux] = r.Linux
	}
	if r.MacOS != nil {
		out[platform.MacOS] = r.MacOS
	}
	if r.Windows != nil {
		out[platform.Windows] = r.Windows
	}
	return out
}

// LoadKnowledge parses the embedded knowledge, applies the overlay at overlayPath
// when that file exists, and resolves the result. An empty overlayPath skips the
// overlay.
func LoadKnowledge(overlayPath string) (*Knowledge, error) {
	base, err := parseDocument("embedded knowledge", embeddedKnowledge)
	if err != nil {
		return nil, err
	}

	if overlayPath != "" {
		data, err := os.ReadFile(overlayPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("[DEBUG] No knowledge overlay at %s\n", overlayPath)
		case err != nil:
			return nil, fmt.Errorf("read knowledge overlay %s: %w", overlayPath, err)
		default:
			overlay, err := parseDocument(overlayPath, data)
			if err != nil {
				return nil, err
			}
			logger.Debug("[DEBUG] Applying knowledge overlay %s\n", overlayPath)
			base.merge(overlay)
		}
	}

	return base.resolve()
}

// ParseKnowledge resolves a single knowledge document without the embedded defaults.
func ParseKnowledge(data []byte) (*Knowledge, error) {
	doc, err := parseDocument("knowledge", data)
	if err != nil {
		return nil, err
	}
	return doc.resolve()
}

func parseDocument(name string, data []byte) (*document, error) {
	doc := &document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	if err := validateDocument(name, data); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrConfiguration, name, err)
	}
	return doc, nil
}

// merge replaces whole entries of d with those of o, key by key.
func (d *document) merge(o *document) {
	if o.Version != 0 {
		d.Version = o.Version
	}
	if d.Installers == nil {
		d.Installers = map[string]rawInstaller{}
	}
	for name, inst := range o.Installers {
		d.Installers[name] = inst
	}
	if d.Tools == nil {
		d.Tools = map[string]rawTool{}
	}
	for name, tool := range o.Tools {
		d.Tools[name] = tool
	}
	if d.Platforms == nil {
		d.Platforms = map[string]Precedence{}
	}
	for name, p := range o.Platforms {
		d.Platforms[name] = p
	}
}

func (d *document) resolve() (*Knowledge, error) {
	k := &Knowledge{
		Version:    d.Version,
		Installers: make(map[string]*Installer, len(d.Installers)),
		Tools:      make(map[string]*Tool, len(d.Tools)),
		Platforms:  make(map[platform.OS]Precedence, len(d.Platforms)),
	}

	for name, ri := range d.Installers {
		inst, err := resolveInstaller(name, ri)
		if err != nil {
			return nil, err
		}
		k.Installers[name] = inst
	}

	for name, rt := range d.Tools {
		tool := &Tool{
			Name:        name,
			Description: rt.Description,
			Provides:    rt.Provides,
			Installers:  make(map[string]ToolInstaller, len(rt.Installers)),
		}
		for instName, rti := range rt.Installers {
			inst, ok := k.Installers[instName]
			if !ok {
				return nil, fmt.Errorf("%w: tool %q references unknown installer %q", ErrConfiguration, name, instName)
			}
			ti, err := resolveToolInstaller(name, inst, rti)
			if err != nil {
				return nil, err
			}
			tool.Installers[instName] = ti
		}
		k.Tools[name] = tool
	}

	for osName, p := range d.Platforms {
		goos, ok := platform.ParseOS(osName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown platform %q", ErrConfiguration, osName)
		}
		for _, instName := range p.Order {
			if _, ok := k.Installers[instName]; !ok {
				return nil, fmt.Errorf("%w: %s precedence names unknown installer %q", ErrConfiguration, osName, instName)
			}
		}
		k.Platforms[goos] = p
	}

	return k, nil
}

func resolveInstaller(name string, ri rawInstaller) (*Installer, error) {
	inst := &Installer{Name: name, Check: ri.Check, VersionCheck: ri.VersionCheck}

	switch Kind(ri.Type) {
	case KindCommand:
		if len(ri.Install) == 0 {
			return nil, fmt.Errorf("%w: command installer %q has no install command", ErrConfiguration, name)
		}
		if len(ri.Shell) > 0 {
			return nil, fmt.Errorf("%w: command installer %q cannot set shell", ErrConfiguration, name)
		}
		inst.Spec = &CommandSpec{
			Install:       ri.Install,
			Uninstall:     ri.Uninstall,
			Update:        ri.Update,
			OutputPattern: ri.InstallOutputPattern,
		}
	case KindScript, KindGitHub:
		if len(ri.Install) > 0 || len(ri.Uninstall) > 0 || len(ri.Update) > 0 || ri.InstallOutputPattern != "" {
			return nil, fmt.Errorf("%w: %s installer %q cannot declare command templates", ErrConfiguration, ri.Type, name)
		}
		if Kind(ri.Type) == KindScript {
			inst.Spec = &ScriptSpec{Shell: ri.Shell}
		} else {
			if len(ri.Shell) > 0 {
				return nil, fmt.Errorf("%w: github installer %q cannot set shell", ErrConfiguration, name)
			}
			inst.Spec = &GitHubSpec{}
		}
	default:
		return nil, fmt.Errorf("%w: installer %q has unknown type %q", ErrConfiguration, name, ri.Type)
	}

	return inst, nil
}

func resolveToolInstaller(tool string, inst *Installer, rti rawToolInstaller) (ToolInstaller, error) {
	scripts := rti.scripts()

	if inst.Kind() == KindScript {
		if rti.hasOverrides() {
			return nil, fmt.Errorf("%w: tool %q: script installer %q takes per-OS scripts, not overrides", ErrConfiguration, tool, inst.Name)
		}
		if len(scripts) == 0 {
			return nil, fmt.Errorf("%w: tool %q: script installer %q has no scripts", ErrConfiguration, tool, inst.Name)
		}
		set := &ScriptSet{ByOS: make(map[platform.OS]PlatformScripts, len(scripts))}
		for goos, s := range scripts {
			if s.Install == "" {
				return nil, fmt.Errorf("%w: tool %q: %s script has no install body", ErrConfiguration, tool, goos)
			}
			set.ByOS[goos] = PlatformScripts{Install: s.Install, Uninstall: s.Uninstall, Update: s.Update}
		}
		return set, nil
	}

	if len(scripts) > 0 {
		return nil, fmt.Errorf("%w: tool %q: %s installer %q does not take scripts", ErrConfiguration, tool, inst.Kind(), inst.Name)
	}
	return &Overrides{Package: rti.Package, Repo: rti.Repo, Pattern: rti.Pattern, URL: rti.URL}, nil
}
