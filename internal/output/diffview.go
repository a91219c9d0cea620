package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/dshills/lyon/internal/anchor"
	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/highlight"
	"github.com/dshills/lyon/internal/review"
)

// DiffComment is a comment shown inside a rendered diff. It may come from
// a review result or from the pull request itself.
type DiffComment struct {
	Path     string
	Line     int
	Side     diff.Side
	Author   string
	Body     string
	Severity review.Severity
}

// Anchor places the comment on its diff line.
func (c DiffComment) Anchor() anchor.Position {
	return anchor.Position{Path: c.Path, Line: c.Line, Side: c.Side}
}

// FromReview converts review comments for display in a diff.
func FromReview(comments []review.Comment, author string) []DiffComment {
	return lo.Map(comments, func(c review.Comment, _ int) DiffComment {
		body := c.Body
		if c.Suggestion != "" {
			body += "\nSuggestion: " + c.Suggestion
		}
		return DiffComment{Path: c.Path, Line: c.Line, Side: c.Side, Author: author, Body: body, Severity: c.Severity}
	})
}

// DiffWriter renders a parsed diff with comments placed under the lines they
// refer to. Comments whose line is not in the diff are listed after their
// file so none is dropped.
type DiffWriter struct {
	Color bool
	// Cache supplies syntax tokens for hunk content. Nil disables
	// highlighting.
	Cache *highlight.Cache
}

func (d *DiffWriter) Write(w io.Writer, parsed diff.ParsedDiff, comments []DiffComment) error {
	ew := &errWriter{w: w}
	p := painter(d.Color)
	ix := anchor.Build(comments)

	ew.printf("%s\n", p.paint(titleStyle, statsLine(parsed.Stats)))
	if parsed.Warnings > 0 {
		ew.printf("%s\n", p.paint(warningStyle, fmt.Sprintf("warning: skipped %s", plural.Pluralize("malformed hunk header", parsed.Warnings, true))))
	}

	for _, f := range parsed.Files {
		d.writeFile(ew, p, f, ix)
	}

	inDiff := lo.Associate(parsed.Files, func(f diff.FileDiff) (string, bool) { return f.Path, true })
	var elsewhere []DiffComment
	for _, path := range ix.Paths() {
		if !inDiff[path] {
			elsewhere = append(elsewhere, ix.Orphans(path, diff.FileDiff{})...)
		}
	}
	if len(elsewhere) > 0 {
		ew.printf("\n%s\n", p.paint(titleStyle, "Comments on files not in this diff"))
		for _, c := range elsewhere {
			ew.printf("  %s:%d (%s) %s\n", lo.Ternary(c.Path == "", "(general)", c.Path), c.Line, c.Side, p.paint(commentStyle, commentText(c)))
		}
	}
	return ew.err
}

func (d *DiffWriter) writeFile(ew *errWriter, p painter, f diff.FileDiff, ix *anchor.Index[DiffComment]) {
	name := f.Path
	if f.OldPath != "" && f.OldPath != f.Path {
		name = f.OldPath + " -> " + f.Path
	}
	ew.printf("\n%s %s %s\n",
		p.paint(titleStyle, name),
		p.paint(dimStyle, "("+string(f.Status)+")"),
		p.paint(addStyle, fmt.Sprintf("+%d", f.Additions))+" "+p.paint(removeStyle, fmt.Sprintf("-%d", f.Deletions)))
	ew.println(strings.Repeat("─", 60))

	if f.Binary {
		ew.println(p.paint(dimStyle, "  Binary file not shown"))
	}

	for _, h := range f.Hunks {
		tokens := d.tokens(f.Path, h)
		ew.printf("%s\n", p.paint(headerStyle, h.Header))
		for i, l := range h.Lines {
			if l.Type == diff.LineHunkHeader {
				continue
			}
			var tl highlight.TokenLine
			if i-1 < len(tokens) {
				tl = tokens[i-1]
			}
			ew.printf("%s %s %s\n", gutter(l), marker(p, l.Type), content(p, l, tl))
			for _, c := range ix.ForLine(f.Path, l) {
				ew.printf("%s\n", p.paint(commentStyle, "            │ "+commentText(c)))
			}
		}
	}

	if orphans := ix.Orphans(f.Path, f); len(orphans) > 0 {
		ew.printf("%s\n", p.paint(dimStyle, "  Comments on lines not shown:"))
		for _, c := range orphans {
			ew.printf("    line %d (%s) %s\n", c.Line, c.Side, p.paint(commentStyle, commentText(c)))
		}
	}
}

// tokens highlights the hunk body as one block so multi-line constructs
// tokenize correctly. Row i of the result belongs to h.Lines[i+1].
func (d *DiffWriter) tokens(path string, h diff.Hunk) []highlight.TokenLine {
	if d.Cache == nil || !d.Color || len(h.Lines) < 2 {
		return nil
	}
	body := lo.Map(h.Lines[1:], func(l diff.Line, _ int) string { return l.Content })
	return d.Cache.Get(path, strings.Join(body, "\n"))
}

func gutter(l diff.Line) string {
	num := func(n int) string {
		if n <= 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%5s %5s", num(l.OldLineNumber), num(l.NewLineNumber))
}

func marker(p painter, t diff.LineType) string {
	switch t {
	case diff.LineAddition:
		return p.paint(addStyle, "+")
	case diff.LineDeletion:
		return p.paint(removeStyle, "-")
	default:
		return " "
	}
}

func content(p painter, l diff.Line, tl highlight.TokenLine) string {
	if !p || len(tl) == 0 {
		switch l.Type {
		case diff.LineAddition:
			return p.paint(addStyle, l.Content)
		case diff.LineDeletion:
			return p.paint(removeStyle, l.Content)
		}
		return l.Content
	}
	var sb strings.Builder
	for _, tok := range tl {
		if s, ok := tokenStyle(tok.Type); ok {
			sb.WriteString(s.Render(tok.Value))
		} else {
			sb.WriteString(tok.Value)
		}
	}
	return sb.String()
}

func commentText(c DiffComment) string {
	var prefix string
	if c.Severity != "" {
		prefix = severityIcon(c.Severity) + " "
	}
	if c.Author != "" {
		prefix += c.Author + ": "
	}
	return prefix + strings.ReplaceAll(c.Body, "\n", " ")
}
