// Package expand fills installer command and pattern templates.
//
// Substitution is a single pass over fixed placeholder tokens, so the result never
// depends on token order and substituted values are not expanded again. Braces that
// do not form a known token are left untouched.
package expand

import (
	"strings"

	"forge/internal/platform"
)

// DefaultVersion is substituted for {version} when no version was requested.
const DefaultVersion = "latest"

// DefaultPattern is substituted for {pattern} when the tool sets none.
const DefaultPattern = "*"

// Context carries the values for one expansion. Empty override fields fall back to
// the documented defaults.
type Context struct {
	Tool     string
	Package  string
	Repo     string
	Pattern  string
	URL      string
	Version  string
	Platform platform.Platform
}

func (c Context) replacer() *strings.Replacer {
	pkg := c.Package
	if pkg == "" {
		pkg = c.Tool
	}
	pattern := c.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	version := c.Version
	if version == "" {
		version = DefaultVersion
	}

	pairs := []string{
		"{tool}", c.Tool,
		"{package}", pkg,
		"{repo}", c.Repo,
		"{pattern}", pattern,
		"{url}", c.URL,
		"{version}", version,
	}
	return strings.NewReplacer(append(pairs, c.Platform.Replacements()...)...)
}

// String expands every known placeholder in tmpl.
func String(tmpl string, c Context) string {
	return c.replacer().Replace(tmpl)
}

// Args expands each element of an argv template. The input is not modified.
func Args(tmpl []string, c Context) []string {
	r := c.replacer()
	out := make([]string, len(tmpl))
	for i, part := range tmpl {
		out[i] = r.Replace(part)
	}
	return out
}
