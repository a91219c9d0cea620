package github

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
)

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`^(?:ssh://)?[^@]+@[^:/]+[:/]([^/]+)/([^/\s]+)`)
)

// DetectRepo parses owner/repo from the origin remote of the repository
// containing dir.
func DetectRepo(dir string) (owner, repo string, err error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: opening git repository: %w", err)
	}
	remote, err := r.Remote("origin")
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("cannot detect repo: origin has no URL")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}

// SplitRepo splits an "owner/repo" argument.
func SplitRepo(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: want owner/repo", s)
	}
	return owner, repo, nil
}
