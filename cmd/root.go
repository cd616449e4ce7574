package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"forge/internal/config"
	"forge/internal/facts"
	"forge/internal/forge"
	"forge/internal/github"
	"forge/internal/installer"
	"forge/internal/logger"
	"forge/internal/platform"
	"forge/internal/runner"
	"forge/internal/version"
)

// Global flags, bound in Execute.
var (
	debug         bool
	knowledgePath string
	factsPath     string
	binDir        string
	timeout       time.Duration
)

// rootCmd is the base command. Subcommands register themselves in init.
var rootCmd = &cobra.Command{
	Use:           "forge",
	Short:         "Install and keep developer tools up to date",
	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(debug)
	},
}

// Execute runs the command line and exits non-zero after printing one error line.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&knowledgePath, "knowledge", "", "Local knowledge overlay (default $FORGE_HOME/knowledge.yaml)")
	rootCmd.PersistentFlags().StringVar(&factsPath, "facts", "", "Facts file (default $FORGE_HOME/facts.toml)")
	rootCmd.PersistentFlags().StringVar(&binDir, "bin-dir", "", "Where downloaded executables go (default $FORGE_BIN_DIR or ~/.local/bin)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Limit for each installer subprocess, 0 for none")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Error("[ERROR] %v\n", err)
		os.Exit(1)
	}
}

// settings applies the global flags over the environment defaults.
func settings() (config.Settings, error) {
	s, err := config.DefaultSettings()
	if err != nil {
		return s, err
	}
	if knowledgePath != "" {
		s.OverlayPath = knowledgePath
	}
	if factsPath != "" {
		s.FactsPath = factsPath
	}
	if binDir != "" {
		s.BinDir = binDir
	}
	s.Timeout = timeout
	return s, nil
}

// newForge assembles a session. online adds GitHub access, which may shell out
// to the gh CLI for a token, so read-only commands skip it.
func newForge(ctx context.Context, online bool) (*forge.Forge, error) {
	s, err := settings()
	if err != nil {
		return nil, err
	}
	p, err := platform.Detect()
	if err != nil {
		return nil, err
	}
	k, err := config.LoadKnowledge(s.OverlayPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("[DEBUG] Platform %s, facts %s, bin dir %s\n", p, s.FactsPath, s.BinDir)

	r := runner.Exec{Timeout: s.Timeout}
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	ex := &installer.Executor{Runner: r, HTTP: httpClient, Platform: p, BinDir: s.BinDir}
	checker := &version.Checker{Runner: r, HTTP: httpClient}

	if online {
		releases := github.NewClient(httpClient, github.Token(ctx, r))
		ex.Releases = releases
		checker.Releases = releases
	}

	return &forge.Forge{
		Knowledge: k,
		Store:     facts.NewOSStore(s.FactsPath),
		Executor:  ex,
		Checker:   checker,
		Out:       os.Stdout,
		In:        os.Stdin,
	}, nil
}
