// Package diff parses unified diff text into a line-addressable document.
//
// [Parse] makes one left-to-right pass over git's extended diff format
// (file markers, mode/rename/copy/binary metadata, @@ hunk headers and
// +/-/space content lines) and produces a [ParsedDiff] whose hunks carry
// old and new line numbers for every row. Parsing is total: malformed input
// degrades to omission and is counted in ParsedDiff.Warnings rather than
// reported as an error.
package diff
