package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Environment variables read by DefaultSettings.
const (
	HomeEnv   = "FORGE_HOME"
	BinDirEnv = "FORGE_BIN_DIR"
)

// Settings are the runtime paths and toggles for one forge invocation.
type Settings struct {
	Home        string        // forge's own directory, ~/.forge by default
	FactsPath   string        // persisted facts, <Home>/facts.toml
	OverlayPath string        // local knowledge overlay, <Home>/knowledge.yaml
	BinDir      string        // where downloaded executables go, ~/.local/bin by default
	Timeout     time.Duration // per-subprocess limit; zero means none
}

// DefaultSettings derives settings from the environment and the user's home directory.
func DefaultSettings() (Settings, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return Settings{}, fmt.Errorf("locate home directory: %w", err)
	}

	home := os.Getenv(HomeEnv)
	if home == "" {
		home = filepath.Join(userHome, ".forge")
	}
	bin := os.Getenv(BinDirEnv)
	if bin == "" {
		bin = filepath.Join(userHome, ".local", "bin")
	}

	return Settings{
		Home:        home,
		FactsPath:   filepath.Join(home, "facts.toml"),
		OverlayPath: filepath.Join(home, "knowledge.yaml"),
		BinDir:      bin,
	}, nil
}
