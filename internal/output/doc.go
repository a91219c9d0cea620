// Package output formats review results for display or machine consumption.
//
// Three report formats are supported:
//   - text: human-readable terminal output, optionally coloured (default)
//   - json: the full report as structured JSON
//   - markdown: PR-comment-friendly with collapsible sections per severity
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WriteReport] to handle destination selection as well.
//
// [DiffWriter] renders a parsed diff with comments placed under the lines
// they refer to and syntax highlighting drawn from a highlight.Cache.
// [WriteHistory] lists stored reviews.
package output
