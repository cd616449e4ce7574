package archive

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNoExecutables is returned when no archive member looks like an executable.
var ErrNoExecutables = errors.New("no executables found in archive")

// Executable is a selected archive member.
type Executable struct {
	Name string // base name, used as the installed file name
	Path string // member path inside the archive
}

const maxDepth = 3

var docExtensions = []string{".md", ".txt", ".1", ".fish", ".bash", ".zsh", ".ps1"}

var skippedDirs = map[string]bool{
	"doc": true, "docs": true, "man": true,
	"complete": true, "completion": true, "completions": true, "autocomplete": true,
}

var nonExecutablePrefixes = []string{
	"license", "copying", "unlicense", "readme", "changelog", "authors", "notice", "makefile", "dockerfile",
}

// ParseListing splits a textual listing, one path per line, into entries.
func ParseListing(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// rejectReason says why an entry cannot be an executable, or "" if it can.
func rejectReason(p string) string {
	parts := strings.Split(p, "/")
	base := parts[len(parts)-1]
	lower := strings.ToLower(base)

	for _, dir := range parts[:len(parts)-1] {
		d := strings.ToLower(dir)
		switch {
		case strings.HasPrefix(d, "."):
			return "hidden directory"
		case skippedDirs[d]:
			return "documentation directory"
		case strings.HasPrefix(d, "test"):
			return "test directory"
		}
	}
	if strings.HasPrefix(base, ".") {
		return "dotfile"
	}
	for _, ext := range docExtensions {
		if strings.HasSuffix(lower, ext) {
			return "documentation file"
		}
	}
	for _, prefix := range nonExecutablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "project file"
		}
	}
	if strings.Contains(base, ".") && !strings.HasSuffix(lower, ".exe") {
		return "has a file extension"
	}
	if len(parts) > maxDepth {
		return "nested too deep"
	}
	return ""
}

// FindExecutables picks the members of listing to install. With hints, the
// members whose names match a hint are returned in hint order. Otherwise, or
// when no hint matches, one member is chosen: the one named after tool, else the
// one with the shortest name.
func FindExecutables(listing []string, tool string, hints []string) ([]Executable, error) {
	var candidates []Executable
	var rejected []string

	for _, raw := range listing {
		p := strings.TrimPrefix(raw, "./")
		if p == "" || strings.HasSuffix(p, "/") {
			continue
		}
		if reason := rejectReason(p); reason != "" {
			rejected = append(rejected, fmt.Sprintf("%s (%s)", p, reason))
			continue
		}
		candidates = append(candidates, Executable{Name: path.Base(p), Path: p})
	}

	if picked := byHints(candidates, hints); len(picked) > 0 {
		return picked, nil
	}

	for _, c := range candidates {
		if c.Name == tool || c.Name == tool+".exe" {
			return []Executable{c}, nil
		}
	}

	if len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if len(c.Name) < len(best.Name) {
				best = c
			}
		}
		return []Executable{best}, nil
	}

	msg := "nothing considered"
	if len(rejected) > 0 {
		msg = "rejected:\n  " + strings.Join(rejected, "\n  ")
	}
	return nil, fmt.Errorf("%w for %s; %s", ErrNoExecutables, tool, msg)
}

func byHints(candidates []Executable, hints []string) []Executable {
	var out []Executable
	for _, hint := range hints {
		for _, c := range candidates {
			if c.Name == hint || c.Name == hint+".exe" {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
