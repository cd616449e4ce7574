package version

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"forge/internal/expand"
	"forge/internal/runner"
)

func TestExtractCascade(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"brew bottle", "==> Pouring bat--0.24.0.arm64_ventura.bottle.tar.gz", "0.24.0"},
		{"apt prerelease", "Setting up bat (0.24.0-1) ...", "0.24.0-1"},
		{"plain", "ripgrep 14.0.3\n\nfeatures:+pcre2", "14.0.3"},
		{"client version two part", "Client Version: v1.28", "1.28"},
		{"labeled two part", "Version: 2.4", "2.4"},
		{"v prefixed", "tool v3.1 (abc123)", "3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.output)
			if !ok {
				t.Fatalf("Extract(%q) found nothing", tt.output)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.output, got, tt.want)
			}
		})
	}
}

func TestExtractNoMatch(t *testing.T) {
	if v, ok := Extract("no digits here"); ok {
		t.Errorf("Extract() = %q, want no match", v)
	}
}

func TestCascadeOrder(t *testing.T) {
	want := []string{"semver", "client version", "labeled version", "v-prefixed"}
	if len(Cascade) != len(want) {
		t.Fatalf("len(Cascade) = %d, want %d", len(Cascade), len(want))
	}
	for i, rule := range Cascade {
		if rule.Name != want[i] {
			t.Errorf("Cascade[%d] = %q, want %q", i, rule.Name, want[i])
		}
	}
}

func TestExtractWithPattern(t *testing.T) {
	got, err := ExtractWithPattern("Installed package `ripgrep v14.0.3` (executable `rg`)", "package `ripgrep v([^`]+)`")
	if err != nil {
		t.Fatalf("ExtractWithPattern() error: %v", err)
	}
	if got != "14.0.3" {
		t.Errorf("ExtractWithPattern() = %q, want %q", got, "14.0.3")
	}

	_, err = ExtractWithPattern("nothing useful", "package `ripgrep v([^`]+)`")
	if !errors.Is(err, ErrNoVersionExtracted) {
		t.Errorf("no match error = %v, want ErrNoVersionExtracted", err)
	}

	_, err = ExtractWithPattern("1.2.3", `\d+`)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("no group error = %v, want ErrInvalidPattern", err)
	}

	_, err = ExtractWithPattern("1.2.3", `(`)
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bad regex error = %v, want ErrInvalidPattern", err)
	}
}

func TestProbeUsesPathFirst(t *testing.T) {
	f := runner.NewFake()
	f.Expect(runner.Result{ExitCode: 2}, "uv", "--version")
	f.ExpectOutput("uv 0.4.18 (Homebrew 2024-10-01)", "uv", "version")

	got, ok := Probe(context.Background(), f, "uv", "")
	if !ok || got != "0.4.18" {
		t.Errorf("Probe() = %q, %v, want 0.4.18", got, ok)
	}
}

func TestProbeFallsBackToBinDir(t *testing.T) {
	bin := t.TempDir()
	full := filepath.Join(bin, "kubectl")
	if err := os.WriteFile(full, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f := runner.NewFake()
	f.ExpectOutput("Client Version: v1.31.0\nKustomize Version: v5.4.2", full, "version", "--client", "--short")

	got, ok := Probe(context.Background(), f, "kubectl", bin)
	if !ok || got != "1.31.0" {
		t.Errorf("Probe() = %q, %v, want 1.31.0", got, ok)
	}
}

func TestProbeNothing(t *testing.T) {
	if v, ok := Probe(context.Background(), runner.NewFake(), "ghost", t.TempDir()); ok {
		t.Errorf("Probe() = %q, want nothing", v)
	}
}

func TestCheckerAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/crates/ripgrep" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"crate":{"name":"ripgrep","max_version":"14.1.1"}}`))
	}))
	defer srv.Close()

	c := &Checker{HTTP: srv.Client()}
	check := &Check{Method: "api", URL: srv.URL + "/api/v1/crates/{package}", Path: "crate.max_version"}
	got, err := c.Latest(context.Background(), check, expand.Context{Tool: "ripgrep"})
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if got != "14.1.1" {
		t.Errorf("Latest() = %q, want %q", got, "14.1.1")
	}
}

func TestCheckerCommand(t *testing.T) {
	f := runner.NewFake()
	f.ExpectOutput("bat:\n  Installed: 0.23.0-1\n  Candidate: 0.24.0-1\n", "apt-cache", "policy", "bat")

	c := &Checker{Runner: f}
	check := &Check{Method: "command", Command: []string{"apt-cache", "policy", "{package}"}, Pattern: `Candidate: (\S+)`}
	got, err := c.Latest(context.Background(), check, expand.Context{Tool: "bat"})
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if got != "0.24.0-1" {
		t.Errorf("Latest() = %q, want %q", got, "0.24.0-1")
	}
}

type tagger string

func (t tagger) LatestTag(ctx context.Context, repo string) (string, error) {
	return string(t), nil
}

func TestCheckerGitHub(t *testing.T) {
	c := &Checker{Releases: tagger("v1.5.0")}
	got, err := c.Latest(context.Background(), &Check{Method: "github"}, expand.Context{Tool: "fd", Repo: "sharkdp/fd"})
	if err != nil || got != "1.5.0" {
		t.Errorf("Latest() = %q, %v, want 1.5.0", got, err)
	}
}

func TestCheckerNil(t *testing.T) {
	got, err := (&Checker{}).Latest(context.Background(), nil, expand.Context{})
	if got != "" || err != nil {
		t.Errorf("Latest(nil) = %q, %v", got, err)
	}
}
