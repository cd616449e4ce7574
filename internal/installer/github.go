package installer

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"forge/internal/archive"
	"forge/internal/config"
	"forge/internal/expand"
	"forge/internal/github"
	"forge/internal/logger"
	"forge/internal/version"
)

// UnknownVersion is recorded when a pattern download gives no version.
const UnknownVersion = "unknown"

// installGitHub installs from the tool's GitHub releases. A pattern override uses
// the gh CLI to fetch matching assets; otherwise the asset is discovered, fetched
// and its executables installed.
func (e *Executor) installGitHub(ctx context.Context, tool *config.Tool, ov *config.Overrides) (*Result, error) {
	if ov.Repo == "" {
		return nil, fmt.Errorf("%w: %w: %s", config.ErrConfiguration, ErrMissingRepo, tool.Name)
	}
	if ov.Pattern != "" {
		return e.downloadWithPattern(ctx, tool, ov)
	}
	if e.Releases == nil {
		return nil, fmt.Errorf("no release source configured for %s", tool.Name)
	}

	d, err := github.Discover(ctx, e.Releases, ov.Repo, e.Platform)
	if err != nil {
		return nil, err
	}
	exes, err := e.installAsset(ctx, tool, d)
	if err != nil {
		return nil, err
	}
	return &Result{Version: d.Version, Executables: exes}, nil
}

// downloadWithPattern fetches the assets matching the pattern straight into the
// bin dir. It never fails for lack of a version.
func (e *Executor) downloadWithPattern(ctx context.Context, tool *config.Tool, ov *config.Overrides) (*Result, error) {
	dir, err := filepath.Abs(e.BinDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	ec := e.expandContext(tool, ov, "")
	argv := []string{
		"gh", "release", "download",
		"--repo", ov.Repo,
		"--pattern", expand.String(ov.Pattern, ec),
		"--skip-existing",
		"--dir", dir,
	}
	res, err := e.run(ctx, ErrCommandFailed, argv)
	if err != nil {
		return nil, err
	}

	v, ok := version.Extract(res.Combined())
	if !ok {
		v = UnknownVersion
	}
	return &Result{Version: v}, nil
}

// installAsset downloads the discovered asset into a scratch directory and copies
// its executables into the bin dir. The scratch directory is always removed.
func (e *Executor) installAsset(ctx context.Context, tool *config.Tool, d *github.Discovery) ([]string, error) {
	scratch, err := os.MkdirTemp("", fmt.Sprintf("forge-%d-", os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Debug("[DEBUG] Failed to remove %s: %v\n", scratch, err)
		}
	}()

	file := filepath.Join(scratch, path.Base(d.AssetName))
	logger.Info("[INFO] Downloading %s\n", d.AssetName)
	if err := e.download(ctx, d.DownloadURL, file); err != nil {
		return nil, err
	}

	format, err := archive.Detect(file, d.AssetName)
	if err != nil {
		return nil, err
	}

	if format == archive.Raw {
		name := tool.PrimaryExecutable() + e.Platform.ExeSuffix()
		if err := copyFile(file, filepath.Join(e.BinDir, name), 0755); err != nil {
			return nil, err
		}
		logger.Info("[INFO] Installed %s\n", filepath.Join(e.BinDir, name))
		return []string{name}, nil
	}

	entries, err := archive.List(file, format)
	if err != nil {
		return nil, err
	}
	exes, err := archive.FindExecutables(entries, tool.Name, tool.Provides)
	if err != nil {
		return nil, err
	}

	unpacked := filepath.Join(scratch, "unpacked")
	if err := archive.Extract(file, format, unpacked); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(exes))
	for _, exe := range exes {
		dst := filepath.Join(e.BinDir, exe.Name)
		if err := copyFile(filepath.Join(unpacked, filepath.FromSlash(exe.Path)), dst, 0755); err != nil {
			return nil, err
		}
		logger.Info("[INFO] Installed %s\n", dst)
		names = append(names, exe.Name)
	}
	return names, nil
}

// uninstallGitHub removes the executables recorded at install time.
func (e *Executor) uninstallGitHub(tool *config.Tool, recorded []string) error {
	names := recorded
	if len(names) == 0 {
		names = tool.Provides
	}
	if e.removeFromBinDir(names) == 0 {
		return fmt.Errorf("%w: nothing of %s found in %s", ErrUnsupportedOperation, tool.Name, e.BinDir)
	}
	return nil
}
