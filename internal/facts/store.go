// Package facts persists what forge has installed: one ToolFact per tool, kept in
// a TOML file that is rewritten whole after every change.
package facts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"forge/internal/logger"
)

// ToolFact records one installed tool.
type ToolFact struct {
	InstalledAt time.Time `toml:"installed_at"`          // When the install finished
	Installer   string    `toml:"installer"`             // Installer name used, e.g. "cargo"
	Version     string    `toml:"version,omitempty"`     // Installed version, if known
	Executables []string  `toml:"executables,omitempty"` // Executables placed in the bin dir, if any
}

// Facts maps tool name to its ToolFact.
type Facts struct {
	Tools map[string]ToolFact `toml:"tools"`
}

// New returns empty facts.
func New() *Facts {
	return &Facts{Tools: make(map[string]ToolFact)}
}

// Get returns the fact for tool.
func (f *Facts) Get(tool string) (ToolFact, bool) {
	fact, ok := f.Tools[tool]
	return fact, ok
}

// Set records fact for tool, replacing any previous one.
func (f *Facts) Set(tool string, fact ToolFact) {
	f.Tools[tool] = fact
}

// Delete forgets tool.
func (f *Facts) Delete(tool string) {
	delete(f.Tools, tool)
}

// Names returns the recorded tool names, sorted.
func (f *Facts) Names() []string {
	names := make([]string, 0, len(f.Tools))
	for name := range f.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store reads and writes Facts at a fixed path on a filesystem.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore returns a Store for path on fs.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// NewOSStore returns a Store for path on the real filesystem.
func NewOSStore(path string) *Store {
	return NewStore(afero.NewOsFs(), path)
}

// Path is the facts file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the facts file. A missing file yields empty facts; a corrupt one is
// an error rather than silently discarded.
func (s *Store) Load() (*Facts, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("[DEBUG] No facts at %s, starting empty\n", s.path)
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read facts %s: %w", s.path, err)
	}

	f := New()
	if _, err := toml.Decode(string(data), f); err != nil {
		return nil, fmt.Errorf("parse facts %s: %w", s.path, err)
	}
	if f.Tools == nil {
		f.Tools = make(map[string]ToolFact)
	}
	return f, nil
}

// Save rewrites the whole facts file. The document goes to a temporary file next
// to the target, which is then renamed over it.
func (s *Store) Save(f *Facts) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encode facts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write facts %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace facts %s: %w", s.path, err)
	}

	logger.Debug("[DEBUG] Wrote facts to %s:\n%s\n", s.path, buf.String())
	return nil
}
