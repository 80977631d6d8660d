package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotGitHubRemote is returned for remotes hosted anywhere but github.com.
var ErrNotGitHubRemote = errors.New("remote is not hosted on github.com")

// ParseRemoteURL extracts OWNER/REPO from a git remote URL.
//
// Accepted forms:
//
//	https://github.com/<owner>/<repo>(.git)
//	ssh://git@github.com/<owner>/<repo>(.git)
//	git@github.com:<owner>/<repo>(.git)
func ParseRemoteURL(raw string) (owner, repo string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("empty remote url")
	}

	var host, path string
	if !strings.Contains(raw, "://") {
		// scp-like syntax: user@host:path
		at := strings.Index(raw, "@")
		colon := strings.Index(raw, ":")
		if colon < 0 || colon < at {
			return "", "", fmt.Errorf("unrecognized remote url %q", raw)
		}
		host = raw[at+1 : colon]
		path = raw[colon+1:]
	} else {
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", fmt.Errorf("unrecognized remote url %q: %w", raw, perr)
		}
		host = u.Hostname()
		path = u.Path
	}

	host = strings.ToLower(host)
	if host != "github.com" && host != "www.github.com" {
		return "", "", fmt.Errorf("%q: %w", raw, ErrNotGitHubRemote)
	}

	parts := strings.FieldsFunc(strings.Trim(path, "/"), func(r rune) bool { return r == '/' })
	if len(parts) != 2 {
		return "", "", fmt.Errorf("remote url %q: expected OWNER/REPO path", raw)
	}
	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("remote url %q: expected OWNER/REPO path", raw)
	}
	return owner, repo, nil
}

// DefaultBranchHead returns the commit SHA at the tip of the repository's
// default branch.
func (c *Client) DefaultBranchHead(ctx context.Context, owner, repo string) (string, error) {
	if c == nil || c.Client == nil {
		return "", errors.New("github client is nil")
	}
	r, _, err := c.Client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}
	branch := r.GetDefaultBranch()
	if branch == "" {
		return "", fmt.Errorf("repository %s/%s has no default branch", owner, repo)
	}
	sha, _, err := c.Client.Repositories.GetCommitSHA1(ctx, owner, repo, branch, "")
	if err != nil {
		return "", fmt.Errorf("get head of %s/%s@%s: %w", owner, repo, branch, err)
	}
	return sha, nil
}

// HeadCommit resolves a git remote URL to its upstream default-branch head.
func (c *Client) HeadCommit(ctx context.Context, remoteURL string) (string, error) {
	owner, repo, err := ParseRemoteURL(remoteURL)
	if err != nil {
		return "", err
	}
	return c.DefaultBranchHead(ctx, owner, repo)
}
