package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"forge/internal/expand"
	"forge/internal/runner"
)

// Check methods understood by Checker.
const (
	MethodAPI     = "api"
	MethodCommand = "command"
	MethodGitHub  = "github"
)

// Check describes how an installer learns the latest available version of a package.
type Check struct {
	Method  string   `yaml:"method" json:"method"`
	URL     string   `yaml:"url,omitempty" json:"url,omitempty"`
	Path    string   `yaml:"path,omitempty" json:"path,omitempty"`
	Command []string `yaml:"command,omitempty" json:"command,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// LatestTagger returns the tag of a repository's latest release.
type LatestTagger interface {
	LatestTag(ctx context.Context, repo string) (string, error)
}

// Checker resolves Check descriptions. Any nil dependency disables the methods that need it.
type Checker struct {
	Runner   runner.Runner
	HTTP     *http.Client
	Releases LatestTagger
}

// Latest returns the latest version, or "" when the check cannot tell.
func (c *Checker) Latest(ctx context.Context, check *Check, ec expand.Context) (string, error) {
	if check == nil {
		return "", nil
	}

	switch strings.ToLower(check.Method) {
	case MethodAPI:
		return c.fromAPI(ctx, check, ec)
	case MethodCommand:
		return c.fromCommand(ctx, check, ec)
	case MethodGitHub:
		if c.Releases == nil || ec.Repo == "" {
			return "", nil
		}
		tag, err := c.Releases.LatestTag(ctx, ec.Repo)
		if err != nil {
			return "", err
		}
		return strings.TrimPrefix(tag, "v"), nil
	default:
		return "", fmt.Errorf("unknown version check method %q", check.Method)
	}
}

func (c *Checker) fromAPI(ctx context.Context, check *Check, ec expand.Context) (string, error) {
	if c.HTTP == nil || check.URL == "" {
		return "", nil
	}
	url := expand.String(check.URL, ec)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "forge")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: HTTP status %d", url, resp.StatusCode)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode %s: %w", url, err)
	}
	return lookupPath(doc, check.Path), nil
}

func (c *Checker) fromCommand(ctx context.Context, check *Check, ec expand.Context) (string, error) {
	if c.Runner == nil || len(check.Command) == 0 {
		return "", nil
	}
	argv := expand.Args(check.Command, ec)

	res, err := c.Runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", nil
	}

	if check.Pattern != "" {
		v, err := ExtractWithPattern(res.Combined(), expand.String(check.Pattern, ec))
		if err != nil {
			return "", nil
		}
		return v, nil
	}
	v, _ := Extract(string(res.Stdout))
	return v, nil
}

// lookupPath walks a dotted path ("crate.max_version") through decoded JSON objects
// and returns the string or number found there.
func lookupPath(doc any, path string) string {
	cur := doc
	if path != "" {
		for _, key := range strings.Split(path, ".") {
			obj, ok := cur.(map[string]any)
			if !ok {
				return ""
			}
			cur = obj[key]
		}
	}

	switch v := cur.(type) {
	case string:
		return strings.TrimPrefix(v, "v")
	case float64:
		return fmt.Sprint(v)
	}
	return ""
}
