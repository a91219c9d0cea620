package output

import (
	"io"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"github.com/samber/lo"

	"github.com/dshills/lyon/internal/review"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	res := report.Result

	ew.printf("## Lyon Code Review: %s\n\n", report.Source)

	if res.Status == review.StatusFailed {
		ew.printf("> **Review failed:** %s\n", res.Summary)
		return ew.err
	}

	if res.Summary != "" {
		ew.printf("%s\n\n", res.Summary)
	}
	if res.OverallScore != nil {
		ew.printf("**Overall score:** %.1f/10\n\n", *res.OverallScore)
	}
	if report.Stats.FilesChanged > 0 {
		ew.printf("*%s*\n\n", statsLine(report.Stats))
	}

	counts, _ := review.CountSeverities(res.Comments)
	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Critical | %d |\n", counts.Critical)
	ew.printf("| Warning | %d |\n", counts.Warning)
	ew.printf("| Info | %d |\n", counts.Info)
	ew.printf("| Suggestion | %d |\n", counts.Suggestion)
	ew.printf("| **Total** | **%d** |\n\n", len(res.Comments))

	grouped := lo.GroupBy(res.Comments, func(c review.Comment) review.Severity { return c.Severity })
	for _, sev := range severityOrder {
		comments := grouped[sev]
		if len(comments) == 0 {
			continue
		}

		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n", mdSeverityIcon(sev), strings.ToUpper(string(sev)), len(comments))

		sort.SliceStable(comments, func(i, j int) bool {
			if comments[i].Path != comments[j].Path {
				return comments[i].Path < comments[j].Path
			}
			return comments[i].Line < comments[j].Line
		})

		for _, c := range comments {
			ew.printf("**`%s`**", location(c))
			if c.Category != "" {
				ew.printf(" | %s", c.Category)
			}
			ew.printf("\n\n%s\n\n", c.Body)
			if c.Suggestion != "" {
				ew.printf("**Suggestion:**\n\n```%s\n%s\n```\n\n", fenceLang(c.Path), c.Suggestion)
			}
			ew.printf("---\n\n")
		}

		ew.printf("</details>\n\n")
	}

	if len(res.Suggestions) > 0 {
		ew.printf("### Suggestions\n\n")
		for _, s := range res.Suggestions {
			if s.Title != "" {
				ew.printf("- **%s**: %s\n", s.Title, s.Description)
			} else {
				ew.printf("- %s\n", s.Description)
			}
		}
		ew.printf("\n")
	}

	if len(res.Comments) == 0 && len(res.Suggestions) == 0 {
		ew.println("No issues found. :white_check_mark:")
		ew.println("")
	}

	ew.printf("*Review `%s` by %s*\n", res.ID, res.Provider)
	return ew.err
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":red_circle:"
	case review.SeverityWarning:
		return ":orange_circle:"
	case review.SeverityInfo:
		return ":large_blue_circle:"
	case review.SeveritySuggestion:
		return ":green_circle:"
	default:
		return ":white_circle:"
	}
}

// fenceLang returns the code fence language for a path, or "".
func fenceLang(path string) string {
	if path == "" {
		return ""
	}
	lang, _ := enry.GetLanguageByExtension(path)
	return strings.ToLower(strings.ReplaceAll(lang, " ", "-"))
}
