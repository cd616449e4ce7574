// Package github finds the right downloadable asset in a repository's latest
// release for the host platform.
package github

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	gh "github.com/google/go-github/v56/github"

	"forge/internal/logger"
	"forge/internal/runner"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Release is the subset of release metadata discovery needs.
type Release struct {
	Tag    string
	Assets []Asset
}

// ReleaseSource returns the latest release of an "owner/name" repository.
type ReleaseSource interface {
	LatestRelease(ctx context.Context, repo string) (*Release, error)
}

// Client is a ReleaseSource backed by the GitHub REST API.
type Client struct {
	api *gh.Client
}

// NewClient builds a Client. An empty token makes unauthenticated requests.
func NewClient(httpClient *http.Client, token string) *Client {
	api := gh.NewClient(httpClient)
	if token != "" {
		api = api.WithAuthToken(token)
	}
	return &Client{api: api}
}

// LatestRelease fetches the latest published release of repo.
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	logger.Debug("[DEBUG] Fetching latest release of %s\n", repo)
	rel, _, err := c.api.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("latest release of %s: %w", repo, err)
	}

	out := &Release{Tag: rel.GetTagName()}
	for _, a := range rel.Assets {
		out.Assets = append(out.Assets, Asset{Name: a.GetName(), DownloadURL: a.GetBrowserDownloadURL()})
	}
	logger.Debug("[DEBUG] Release %s of %s has %d assets\n", out.Tag, repo, len(out.Assets))
	return out, nil
}

// LatestTag returns the tag of repo's latest release.
func (c *Client) LatestTag(ctx context.Context, repo string) (string, error) {
	rel, err := c.LatestRelease(ctx, repo)
	if err != nil {
		return "", err
	}
	return rel.Tag, nil
}

func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", repo)
	}
	return owner, name, nil
}

// TokenFromEnv returns GITHUB_TOKEN or GH_TOKEN, whichever is set first.
func TokenFromEnv() string {
	for _, key := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if tok := strings.TrimSpace(os.Getenv(key)); tok != "" {
			return tok
		}
	}
	return ""
}

// Token returns a token from the environment, or else the one the gh CLI is
// logged in with. It returns "" when neither is available.
func Token(ctx context.Context, r runner.Runner) string {
	if tok := TokenFromEnv(); tok != "" {
		return tok
	}
	res, err := r.Run(ctx, "gh", "auth", "token")
	if err != nil || !res.Success() {
		logger.Debug("[DEBUG] No GitHub token available, using anonymous API access\n")
		return ""
	}
	return strings.TrimSpace(string(res.Stdout))
}
