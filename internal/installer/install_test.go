package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"forge/internal/config"
	"forge/internal/github"
	"forge/internal/platform"
	"forge/internal/runner"
	"forge/internal/version"
)

var linux = platform.Platform{OS: platform.Linux, Arch: platform.X86_64}

func newExecutor(t *testing.T, f *runner.Fake) *Executor {
	t.Helper()
	return &Executor{Runner: f, Platform: linux, BinDir: t.TempDir()}
}

func commandInstaller(name string, install []string, pattern string) *config.Installer {
	return &config.Installer{Name: name, Spec: &config.CommandSpec{Install: install, OutputPattern: pattern}}
}

func toolWith(name string, provides []string, installer string, ti config.ToolInstaller) *config.Tool {
	return &config.Tool{Name: name, Provides: provides, Installers: map[string]config.ToolInstaller{installer: ti}}
}

func TestInstallCommandCargo(t *testing.T) {
	f := runner.NewFake()
	f.Expect(runner.Result{Stderr: []byte("  Compiling ripgrep v14.0.3\n  Installed package `ripgrep v14.0.3` (executable `rg`)\n")},
		"cargo", "install", "ripgrep", "--locked")

	e := newExecutor(t, f)
	inst := commandInstaller("cargo", []string{"cargo", "install", "{package}", "--locked"}, "package `{package} v([^`]+)`")
	res, err := e.Install(context.Background(), Request{Tool: toolWith("ripgrep", []string{"rg"}, "cargo", &config.Overrides{}), Installer: inst})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != "14.0.3" {
		t.Errorf("Version = %q, want 14.0.3", res.Version)
	}
	if res.Executables != nil {
		t.Errorf("Executables = %v, want nil for command installers", res.Executables)
	}
}

func TestInstallCommandBrew(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("==> Fetching bat\n==> Pouring bat--0.24.0.arm64_ventura.bottle.tar.gz\n/opt/homebrew/Cellar/bat/0.24.0: 15 files\n",
		"brew", "install", "bat")

	e := newExecutor(t, f)
	inst := commandInstaller("brew", []string{"brew", "install", "{package}"}, `{package}(?:--| )(\d+\.\d+(?:\.\d+)?)`)
	res, err := e.Install(context.Background(), Request{Tool: toolWith("bat", nil, "brew", &config.Overrides{}), Installer: inst})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != "0.24.0" {
		t.Errorf("Version = %q, want 0.24.0", res.Version)
	}
}

func TestInstallCommandAptWithPackageOverride(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("Unpacking bat (0.24.0-1) ...\nSetting up bat (0.24.0-1) ...\n", "sudo", "apt", "install", "-y", "bat")

	e := newExecutor(t, f)
	inst := commandInstaller("apt", []string{"sudo", "apt", "install", "-y", "{package}"},
		`(?:Setting up {package} |{package} is already the newest version )\(([^)]+)\)`)
	tool := toolWith("batcat", nil, "apt", &config.Overrides{Package: "bat"})
	res, err := e.Install(context.Background(), Request{Tool: tool, Installer: inst})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != "0.24.0-1" {
		t.Errorf("Version = %q, want 0.24.0-1", res.Version)
	}
}

func TestInstallCommandMissingPattern(t *testing.T) {
	f := runner.NewFake()
	e := newExecutor(t, f)
	inst := commandInstaller("apt", []string{"sudo", "apt", "install", "-y", "{package}"}, "")

	_, err := e.Install(context.Background(), Request{Tool: toolWith("jq", nil, "apt", &config.Overrides{}), Installer: inst})
	if !errors.Is(err, ErrMissingOutputPattern) || !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("Install() error = %v, want ErrMissingOutputPattern configuration error", err)
	}
	if calls := f.Calls(); len(calls) != 0 {
		t.Errorf("ran %v, want nothing", calls)
	}
}

func TestInstallCommandFailure(t *testing.T) {
	f := runner.NewFake()
	f.Expect(runner.Result{ExitCode: 101, Stderr: []byte("error: could not find `nope` in registry")}, "cargo", "install", "nope")

	e := newExecutor(t, f)
	inst := commandInstaller("cargo", []string{"cargo", "install", "{package}"}, "package `{package} v([^`]+)`")
	_, err := e.Install(context.Background(), Request{Tool: toolWith("nope", nil, "cargo", &config.Overrides{}), Installer: inst})

	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("Install() error = %v, want ErrCommandFailed", err)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 101 || !strings.Contains(cmdErr.Stderr, "could not find") {
		t.Errorf("CommandError = %+v", cmdErr)
	}
}

func TestInstallCommandNoVersion(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("done\n", "cargo", "install", "ripgrep")

	e := newExecutor(t, f)
	inst := commandInstaller("cargo", []string{"cargo", "install", "{package}"}, "package `{package} v([^`]+)`")
	_, err := e.Install(context.Background(), Request{Tool: toolWith("ripgrep", nil, "cargo", &config.Overrides{}), Installer: inst})
	if !errors.Is(err, version.ErrNoVersionExtracted) {
		t.Errorf("Install() error = %v, want ErrNoVersionExtracted", err)
	}
}

func scriptInstaller() *config.Installer {
	return &config.Installer{Name: "script", Spec: &config.ScriptSpec{}}
}

func TestInstallScript(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("", "sh", "-c", "install-mytool --os linux --arch x86_64")
	f.ExpectOutput("mytool 1.2.3\n", "mytool", "--version")

	e := newExecutor(t, f)
	set := &config.ScriptSet{ByOS: map[platform.OS]config.PlatformScripts{
		platform.Linux: {Install: "install-mytool --os {os} --arch {arch}"},
	}}
	res, err := e.Install(context.Background(), Request{Tool: toolWith("mytool", []string{"mytool"}, "script", set), Installer: scriptInstaller()})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != "1.2.3" || !reflect.DeepEqual(res.Executables, []string{"mytool"}) {
		t.Errorf("Install() = %+v", res)
	}
}

func TestInstallScriptRollsBackWithoutVersion(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("", "sh", "-c", "install-mytool")
	f.ExpectOutput("", "sh", "-c", "uninstall-mytool")

	e := newExecutor(t, f)
	leftover := filepath.Join(e.BinDir, "mytool")
	if err := os.WriteFile(leftover, []byte("#!/bin/sh\nexit 1\n"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	set := &config.ScriptSet{ByOS: map[platform.OS]config.PlatformScripts{
		platform.Linux: {Install: "install-mytool", Uninstall: "uninstall-mytool"},
	}}
	_, err := e.Install(context.Background(), Request{Tool: toolWith("mytool", []string{"mytool"}, "script", set), Installer: scriptInstaller()})
	if !errors.Is(err, ErrVersionDetectionFailed) {
		t.Fatalf("Install() error = %v, want ErrVersionDetectionFailed", err)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Errorf("%s still present after rollback", leftover)
	}

	ranUninstall := false
	for _, call := range f.Calls() {
		if call == "sh -c uninstall-mytool" {
			ranUninstall = true
		}
	}
	if !ranUninstall {
		t.Errorf("uninstall script not run; calls = %v", f.Calls())
	}
}

func TestInstallScriptFindsWindowsExecutableInBinDir(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("", "powershell", "-NoProfile", "-Command", "install-mytool")

	e := newExecutor(t, f)
	e.Platform = platform.Platform{OS: platform.Windows, Arch: platform.X86_64}
	exe := filepath.Join(e.BinDir, "mytool.exe")
	if err := os.WriteFile(exe, []byte("MZ"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f.ExpectOutput("mytool 2.0.0\n", exe, "--version")

	set := &config.ScriptSet{ByOS: map[platform.OS]config.PlatformScripts{platform.Windows: {Install: "install-mytool"}}}
	res, err := e.Install(context.Background(), Request{Tool: toolWith("mytool", []string{"mytool"}, "script", set), Installer: scriptInstaller()})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", res.Version)
	}
}

func TestInstallScriptFailure(t *testing.T) {
	f := runner.NewFake()
	f.Expect(runner.Result{ExitCode: 1, Stderr: []byte("curl: (6) Could not resolve host")}, "sh", "-c", "install-mytool")

	e := newExecutor(t, f)
	set := &config.ScriptSet{ByOS: map[platform.OS]config.PlatformScripts{platform.Linux: {Install: "install-mytool"}}}
	_, err := e.Install(context.Background(), Request{Tool: toolWith("mytool", nil, "script", set), Installer: scriptInstaller()})
	if !errors.Is(err, ErrScriptFailed) {
		t.Errorf("Install() error = %v, want ErrScriptFailed", err)
	}
}

func TestInstallScriptNoScriptForOS(t *testing.T) {
	e := newExecutor(t, runner.NewFake())
	set := &config.ScriptSet{ByOS: map[platform.OS]config.PlatformScripts{platform.MacOS: {Install: "x"}}}
	_, err := e.Install(context.Background(), Request{Tool: toolWith("mytool", nil, "script", set), Installer: scriptInstaller()})
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Install() error = %v, want ErrUnsupportedOperation", err)
	}
}

func githubInstaller() *config.Installer {
	return &config.Installer{Name: "github", Spec: &config.GitHubSpec{}}
}

func TestInstallGitHubMissingRepo(t *testing.T) {
	e := newExecutor(t, runner.NewFake())
	_, err := e.Install(context.Background(), Request{Tool: toolWith("fd", nil, "github", &config.Overrides{}), Installer: githubInstaller()})
	if !errors.Is(err, ErrMissingRepo) || !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("Install() error = %v, want ErrMissingRepo configuration error", err)
	}
}

func TestInstallGitHubPattern(t *testing.T) {
	f := runner.NewFake()
	e := newExecutor(t, f)
	f.ExpectOutput("", "gh", "release", "download", "--repo", "me/tool", "--pattern", "tool-linux-x86_64",
		"--skip-existing", "--dir", e.BinDir)

	tool := toolWith("tool", nil, "github", &config.Overrides{Repo: "me/tool", Pattern: "{tool}-{os}-{arch}"})
	res, err := e.Install(context.Background(), Request{Tool: tool, Installer: githubInstaller()})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != UnknownVersion || res.Executables != nil {
		t.Errorf("Install() = %+v, want unknown version and no executables", res)
	}
}

type fakeReleases struct{ release *github.Release }

func (f fakeReleases) LatestRelease(ctx context.Context, repo string) (*github.Release, error) {
	return f.release, nil
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0755, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	return buf.Bytes()
}

func serve(t *testing.T, files map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInstallGitHubArchive(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/rg.tar.gz": tarGz(t, map[string]string{
			"ripgrep-14.1.1-x86_64-unknown-linux-musl/rg":               "#!/bin/sh\necho ripgrep 14.1.1\n",
			"ripgrep-14.1.1-x86_64-unknown-linux-musl/README.md":        "# ripgrep\n",
			"ripgrep-14.1.1-x86_64-unknown-linux-musl/complete/rg.bash": "complete\n",
		}),
	})

	e := newExecutor(t, runner.NewFake())
	e.HTTP = srv.Client()
	e.Releases = fakeReleases{release: &github.Release{Tag: "14.1.1", Assets: []github.Asset{
		{Name: "ripgrep-14.1.1-x86_64-unknown-linux-musl.tar.gz", DownloadURL: srv.URL + "/rg.tar.gz"},
		{Name: "ripgrep-14.1.1-x86_64-unknown-linux-musl.tar.gz.sha256", DownloadURL: srv.URL + "/sum"},
		{Name: "ripgrep-14.1.1-x86_64-pc-windows-msvc.zip", DownloadURL: srv.URL + "/win.zip"},
	}}}

	tool := toolWith("ripgrep", []string{"rg"}, "github", &config.Overrides{Repo: "BurntSushi/ripgrep"})
	res, err := e.Install(context.Background(), Request{Tool: tool, Installer: githubInstaller()})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if res.Version != "14.1.1" || !reflect.DeepEqual(res.Executables, []string{"rg"}) {
		t.Errorf("Install() = %+v", res)
	}
	info, err := os.Stat(filepath.Join(e.BinDir, "rg"))
	if err != nil {
		t.Fatalf("rg not installed: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("rg mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestInstallGitHubRawBinary(t *testing.T) {
	elf := []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0x3e, 0}
	srv := serve(t, map[string][]byte{"/jq": elf})

	e := newExecutor(t, runner.NewFake())
	e.HTTP = srv.Client()
	e.Releases = fakeReleases{release: &github.Release{Tag: "jq-1.7.1", Assets: []github.Asset{
		{Name: "jq-linux-amd64", DownloadURL: srv.URL + "/jq"},
		{Name: "jq-macos-arm64", DownloadURL: srv.URL + "/jq-mac"},
	}}}

	tool := toolWith("jq", []string{"jq"}, "github", &config.Overrides{Repo: "jqlang/jq"})
	res, err := e.Install(context.Background(), Request{Tool: tool, Installer: githubInstaller()})
	if err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if !reflect.DeepEqual(res.Executables, []string{"jq"}) {
		t.Errorf("Executables = %v, want [jq]", res.Executables)
	}
	got, err := os.ReadFile(filepath.Join(e.BinDir, "jq"))
	if err != nil || !bytes.Equal(got, elf) {
		t.Errorf("installed jq = %v, %v", got, err)
	}
}

func TestInstallGitHubDownloadError(t *testing.T) {
	srv := serve(t, nil)

	e := newExecutor(t, runner.NewFake())
	e.HTTP = srv.Client()
	e.Releases = fakeReleases{release: &github.Release{Tag: "v1.0.0", Assets: []github.Asset{
		{Name: "tool-linux-amd64.tar.gz", DownloadURL: srv.URL + "/missing"},
	}}}

	tool := toolWith("tool", nil, "github", &config.Overrides{Repo: "me/tool"})
	if _, err := e.Install(context.Background(), Request{Tool: tool, Installer: githubInstaller()}); err == nil {
		t.Errorf("Install() with a 404 download succeeded")
	}
}

func TestUninstall(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("Removing ripgrep\n", "cargo", "uninstall", "ripgrep")

	e := newExecutor(t, f)
	cargo := &config.Installer{Name: "cargo", Spec: &config.CommandSpec{
		Install:   []string{"cargo", "install", "{package}"},
		Uninstall: []string{"cargo", "uninstall", "{package}"},
	}}
	if err := e.Uninstall(context.Background(), Request{Tool: toolWith("ripgrep", nil, "cargo", &config.Overrides{}), Installer: cargo}, nil); err != nil {
		t.Errorf("Uninstall(cargo) error: %v", err)
	}

	bin := filepath.Join(e.BinDir, "fd")
	if err := os.WriteFile(bin, []byte("x"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tool := toolWith("fd", []string{"fd"}, "github", &config.Overrides{Repo: "sharkdp/fd"})
	if err := e.Uninstall(context.Background(), Request{Tool: tool, Installer: githubInstaller()}, []string{"fd"}); err != nil {
		t.Errorf("Uninstall(github) error: %v", err)
	}
	if _, err := os.Stat(bin); !os.IsNotExist(err) {
		t.Errorf("%s still present", bin)
	}
}

func TestUpdateGitHubAsksForReinstall(t *testing.T) {
	e := newExecutor(t, runner.NewFake())
	tool := toolWith("fd", nil, "github", &config.Overrides{Repo: "sharkdp/fd"})
	_, err := e.Update(context.Background(), Request{Tool: tool, Installer: githubInstaller()})
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Update() error = %v, want ErrUnsupportedOperation", err)
	}
}

func TestUpdateCommandProbesTool(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("==> Upgrading bat\n  0.23.0 -> 0.24.0\n", "brew", "upgrade", "bat")
	f.ExpectOutput("bat 0.24.0 (fc95468)\n", "bat", "--version")

	e := newExecutor(t, f)
	brew := &config.Installer{Name: "brew", Spec: &config.CommandSpec{
		Install:       []string{"brew", "install", "{package}"},
		Update:        []string{"brew", "upgrade", "{package}"},
		OutputPattern: `{package}(?:--| )(\d+\.\d+(?:\.\d+)?)`,
	}}
	res, err := e.Update(context.Background(), Request{Tool: toolWith("bat", []string{"bat"}, "brew", &config.Overrides{}), Installer: brew})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if res.Version != "0.24.0" {
		t.Errorf("Version = %q, want 0.24.0", res.Version)
	}
}
