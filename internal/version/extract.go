// Package version recovers version strings from unstructured installer and tool
// output, probes freshly installed executables, and asks remote sources for the
// latest available version.
package version

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoVersionExtracted is returned when neither the explicit pattern nor the
// fallback cascade matched.
var ErrNoVersionExtracted = errors.New("no version extracted")

// ErrInvalidPattern is returned for output patterns that do not compile or have no
// capture group.
var ErrInvalidPattern = errors.New("invalid version pattern")

// Rule is one entry of the fallback cascade. The first capture group is the version.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Cascade is tried in order and the first rule that matches wins. Keep it an
// explicit list: the order is the behavior.
var Cascade = []Rule{
	{"semver", regexp.MustCompile(`(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)`)},
	{"client version", regexp.MustCompile(`[Cc]lient [Vv]ersion:?\s*v?(\d+\.\d+(?:\.\d+)?[^\s,]*)`)},
	{"labeled version", regexp.MustCompile(`[Vv]ersion:?\s*v?(\d+\.\d+(?:\.\d+)?[^\s,]*)`)},
	{"v-prefixed", regexp.MustCompile(`\bv(\d+\.\d+)\b`)},
}

// Extract applies the fallback cascade to output.
func Extract(output string) (string, bool) {
	for _, rule := range Cascade {
		if m := rule.Pattern.FindStringSubmatch(output); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// Compile compiles an already-expanded output pattern and checks it captures.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w %q: no capture group", ErrInvalidPattern, pattern)
	}
	return re, nil
}

// ExtractWithPattern returns the first group of the first match of pattern in output.
func ExtractWithPattern(output, pattern string) (string, error) {
	re, err := Compile(pattern)
	if err != nil {
		return "", err
	}
	m := re.FindStringSubmatch(output)
	if len(m) < 2 || m[1] == "" {
		return "", fmt.Errorf("%w: pattern %q did not match", ErrNoVersionExtracted, pattern)
	}
	return m[1], nil
}
