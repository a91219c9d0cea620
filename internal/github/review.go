package github

import (
	"fmt"
	"strings"

	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/review"
)

// BuildReview converts a review result into a GitHub PR review request.
// Comments whose line is visible in parsed become inline comments on their
// side; the rest are listed in the summary body so nothing is lost.
func BuildReview(res review.Result, parsed diff.ParsedDiff) ReviewRequest {
	var general []review.Comment
	var comments []ReviewComment

	for _, c := range res.Comments {
		file, ok := parsed.File(c.Path)
		if !ok || c.Line <= 0 || !file.HasLine(c.Line, c.Side) {
			general = append(general, c)
			continue
		}
		comments = append(comments, ReviewComment{
			Path: c.Path,
			Line: c.Line,
			Side: c.Side,
			Body: formatInlineComment(c),
		})
	}

	counts, _ := review.CountSeverities(res.Comments)

	var sb strings.Builder
	sb.WriteString("## Lyon Code Review\n\n")
	if res.Summary != "" {
		sb.WriteString(res.Summary)
		sb.WriteString("\n\n")
	}
	if res.OverallScore != nil {
		fmt.Fprintf(&sb, "**Overall score:** %.1f/10\n\n", *res.OverallScore)
	}
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Critical | %d |\n", counts.Critical)
	fmt.Fprintf(&sb, "| Warning | %d |\n", counts.Warning)
	fmt.Fprintf(&sb, "| Info | %d |\n", counts.Info)
	fmt.Fprintf(&sb, "| Suggestion | %d |\n\n", counts.Suggestion)

	if len(general) > 0 {
		sb.WriteString("### General Findings\n\n")
		for _, c := range general {
			sb.WriteString(formatBodyComment(c))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(res.Suggestions) > 0 {
		sb.WriteString("### Suggestions\n\n")
		for _, s := range res.Suggestions {
			if s.Title != "" {
				fmt.Fprintf(&sb, "- **%s**: %s\n", s.Title, s.Description)
			} else {
				fmt.Fprintf(&sb, "- %s\n", s.Description)
			}
		}
	}

	return ReviewRequest{
		Body:     strings.TrimRight(sb.String(), "\n") + "\n",
		Event:    "COMMENT",
		Comments: comments,
	}
}

func formatInlineComment(c review.Comment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", c.Severity)
	if c.Category != "" {
		fmt.Fprintf(&sb, " (%s)", c.Category)
	}
	sb.WriteString("\n\n")
	sb.WriteString(c.Body)
	if c.Suggestion != "" {
		fmt.Fprintf(&sb, "\n\n```suggestion\n%s\n```", c.Suggestion)
	}
	return sb.String()
}

func formatBodyComment(c review.Comment) string {
	loc := c.Path
	if c.Line > 0 {
		loc = fmt.Sprintf("%s:%d", c.Path, c.Line)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **%s**", c.Severity)
	if loc != "" {
		fmt.Fprintf(&sb, " `%s`", loc)
	}
	fmt.Fprintf(&sb, ": %s", c.Body)
	if c.Suggestion != "" {
		fmt.Fprintf(&sb, " *Suggestion: %s*", c.Suggestion)
	}
	return sb.String()
}
