package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dshills/lyon/internal/diff"
)

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	// Dir is any directory inside the repository; empty means the process
	// working directory.
	Dir          string
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff      string
	Files     []string
	Mode      string
	Range     string
	Truncated bool
	Repo      RepoMeta
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata for the repository containing dir.
func GetRepoMeta(dir string) (RepoMeta, error) {
	if dir == "" {
		dir = "."
	}
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}

	var meta RepoMeta
	if wt, err := r.Worktree(); err == nil {
		meta.Root = wt.Filesystem.Root()
	}

	head, err := r.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// new repo with no commits
	case err != nil:
		return meta, fmt.Errorf("reading HEAD: %w", err)
	default:
		meta.Head = head.Hash().String()
		if head.Name().IsBranch() {
			meta.Branch = head.Name().Short()
		}
	}
	return meta, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(opts DiffOptions) (DiffResult, error) {
	d, err := gitOutput(opts.Dir, append([]string{"diff"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return buildResult(d, "unstaged", "", opts)
}

// Staged returns the diff of index vs HEAD.
func Staged(opts DiffOptions) (DiffResult, error) {
	d, err := gitOutput(opts.Dir, append([]string{"diff", "--cached"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(d, "staged", "", opts)
}

// Range returns the combined diff for a revision range. With mergeBase, an
// "a..b" range is compared against the merge base of a and b.
func Range(revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	if strings.TrimSpace(revRange) == "" {
		return DiffResult{}, fmt.Errorf("empty revision range")
	}
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	d, err := gitOutput(opts.Dir, append([]string{"diff", diffRange}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return buildResult(d, "range", revRange, opts)
}

func buildDiffArgs(opts DiffOptions) []string {
	args := []string{"--no-color", "--no-ext-diff"}
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	return args
}

func buildResult(d, mode, rangeStr string, opts DiffOptions) (DiffResult, error) {
	meta, err := GetRepoMeta(opts.Dir)
	if err != nil {
		meta = RepoMeta{}
	}

	// Filter before truncating so dropped files don't consume the byte budget.
	d = filterSections(d, func(p string) bool {
		if len(opts.Include) > 0 && !MatchesAny(p, opts.Include) {
			return false
		}
		return !MatchesAny(p, opts.Exclude)
	})
	files := extractFiles(d)

	truncated := false
	if opts.MaxDiffBytes > 0 && len(d) > opts.MaxDiffBytes {
		d = d[:opts.MaxDiffBytes] + "\n... (diff truncated at max-diff-bytes limit)\n"
		truncated = true
	}

	return DiffResult{
		Diff:      d,
		Files:     files,
		Mode:      mode,
		Range:     rangeStr,
		Truncated: truncated,
		Repo:      meta,
	}, nil
}

func extractFiles(d string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, section := range splitDiffSections(d) {
		f := extractPathFromSection(section)
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// filterSections keeps the file sections whose path satisfies keep.
// Sections without a recognizable path are kept.
func filterSections(d string, keep func(string) bool) string {
	var kept []string
	for _, section := range splitDiffSections(d) {
		p := extractPathFromSection(section)
		if p == "" || keep(p) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(d string) []string {
	if d == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(d, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection returns the new path of a file section, or the old
// path for deletions. Sections without ---/+++ lines (binary files, pure
// renames, mode changes) fall back to the "diff --git" header.
func extractPathFromSection(section string) string {
	var header, old string
scan:
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			if _, p, ok := diff.HeaderPaths(line); ok {
				header = p
			}
		case strings.HasPrefix(line, "+++ "):
			if p, ok := sidePath(line, "+++ ", "b/"); ok {
				return p
			}
		case strings.HasPrefix(line, "--- "):
			if p, ok := sidePath(line, "--- ", "a/"); ok {
				old = p
			}
		case strings.HasPrefix(line, "@@"):
			break scan
		}
	}
	if old != "" {
		return old
	}
	return header
}

// sidePath reads a "--- a/x" or "+++ b/x" line. /dev/null is not a path.
func sidePath(line, marker, prefix string) (string, bool) {
	p := strings.TrimSuffix(strings.TrimPrefix(line, marker), "\t")
	return strings.CutPrefix(diff.UnquotePath(p), prefix)
}

// MatchesAny returns true if the path matches any of the given glob
// patterns. Patterns without a slash also match the base name.
func MatchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(p)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
