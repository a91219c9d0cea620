// Package gitctx extracts diffs and repository metadata from a local git
// repository.
//
// Unstaged, staged and range diffs are produced by the git binary so the
// output is the exact unified diff a reviewer would see. Results are filtered
// by include/exclude glob patterns (doublestar syntax) and truncated to a
// configurable maximum byte size. Repository metadata is read with go-git.
package gitctx
