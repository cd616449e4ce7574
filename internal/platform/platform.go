// Package platform identifies the host operating system and architecture and
// expands the {os}, {arch} and {target} placeholders used by installer templates.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// OS is a supported operating system name as it appears in knowledge files.
type OS string

// Arch is a supported CPU architecture name as it appears in knowledge files.
type Arch string

const (
	Linux   OS = "linux"
	MacOS   OS = "macos"
	Windows OS = "windows"

	X86_64  Arch = "x86_64"
	Aarch64 Arch = "aarch64"
)

// ErrUnsupportedPlatform is returned when the host OS or architecture is not supported.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Unknown is substituted for {target} when no triple is known for the platform.
const Unknown = "unknown"

// Platform is the detected host. It is immutable once detected.
type Platform struct {
	OS   OS
	Arch Arch
}

// Detect maps the Go runtime's GOOS/GOARCH onto a Platform.
func Detect() (Platform, error) {
	return FromGo(runtime.GOOS, runtime.GOARCH)
}

// FromGo converts Go's GOOS/GOARCH values.
func FromGo(goos, goarch string) (Platform, error) {
	var p Platform
	switch goos {
	case "linux":
		p.OS = Linux
	case "darwin":
		p.OS = MacOS
	case "windows":
		p.OS = Windows
	default:
		return Platform{}, fmt.Errorf("%w: operating system %q", ErrUnsupportedPlatform, goos)
	}

	switch goarch {
	case "amd64":
		p.Arch = X86_64
	case "arm64":
		p.Arch = Aarch64
	default:
		return Platform{}, fmt.Errorf("%w: architecture %q", ErrUnsupportedPlatform, goarch)
	}
	return p, nil
}

// ParseOS validates an OS name taken from configuration.
func ParseOS(s string) (OS, bool) {
	switch OS(s) {
	case Linux, MacOS, Windows:
		return OS(s), true
	}
	return "", false
}

// Target returns the Rust-style target triple for the platform, or Unknown.
func (p Platform) Target() string {
	switch p {
	case Platform{Linux, X86_64}:
		return "x86_64-unknown-linux-gnu"
	case Platform{Linux, Aarch64}:
		return "aarch64-unknown-linux-gnu"
	case Platform{MacOS, X86_64}:
		return "x86_64-apple-darwin"
	case Platform{MacOS, Aarch64}:
		return "aarch64-apple-darwin"
	case Platform{Windows, X86_64}:
		return "x86_64-pc-windows-msvc"
	case Platform{Windows, Aarch64}:
		return "aarch64-pc-windows-msvc"
	}
	return Unknown
}

// Replacements returns the old/new pairs for the platform tokens, suitable for
// strings.NewReplacer.
func (p Platform) Replacements() []string {
	return []string{
		"{os}", string(p.OS),
		"{arch}", string(p.Arch),
		"{target}", p.Target(),
	}
}

// Expand substitutes {os}, {arch} and {target} in s.
func (p Platform) Expand(s string) string {
	return strings.NewReplacer(p.Replacements()...).Replace(s)
}

// ExeSuffix is ".exe" on Windows and empty elsewhere.
func (p Platform) ExeSuffix() string {
	if p.OS == Windows {
		return ".exe"
	}
	return ""
}

func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}
