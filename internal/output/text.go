package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gertd/go-pluralize"
	"github.com/samber/lo"

	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/review"
)

var plural = pluralize.NewClient()

var severityOrder = []review.Severity{
	review.SeverityCritical,
	review.SeverityWarning,
	review.SeverityInfo,
	review.SeveritySuggestion,
}

// TextWriter outputs a human-readable text report.
type TextWriter struct {
	Color bool
}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}
	p := painter(t.Color)
	res := report.Result

	ew.printf("%s\n", p.paint(titleStyle, "Lyon Code Review: "+report.Source))
	if res.Repository != "" || report.Branch != "" {
		ew.printf("Repository: %s", lo.Ternary(res.Repository != "", res.Repository, "local"))
		if report.Branch != "" {
			ew.printf(" (branch: %s)", report.Branch)
		}
		ew.println("")
	}
	ew.printf("Provider: %s | Status: %s\n", res.Provider, res.Status)
	if report.Stats.FilesChanged > 0 {
		ew.printf("%s\n", statsLine(report.Stats))
	}
	ew.println(strings.Repeat("─", 60))

	if res.Status == review.StatusFailed {
		ew.printf("%s %s\n", p.paint(criticalStyle, "Review failed:"), res.Summary)
		return ew.err
	}

	if res.OverallScore != nil {
		ew.printf("Score: %.1f/10\n", *res.OverallScore)
	}
	if res.Summary != "" {
		ew.println("")
		for _, line := range wrapText(res.Summary, 76) {
			ew.printf("  %s\n", line)
		}
	}

	counts, _ := review.CountSeverities(res.Comments)
	ew.printf("\nComments: %d total", len(res.Comments))
	if len(res.Comments) > 0 {
		ew.printf(" (%d critical, %d warning, %d info, %d suggestion)",
			counts.Critical, counts.Warning, counts.Info, counts.Suggestion)
	}
	ew.println("")

	grouped := lo.GroupBy(res.Comments, func(c review.Comment) review.Severity { return c.Severity })
	for _, sev := range severityOrder {
		comments := grouped[sev]
		if len(comments) == 0 {
			continue
		}

		label := strings.ToUpper(string(sev))
		ew.printf("\n%s\n", p.paint(severityStyle(sev), severityIcon(sev)+" "+label))
		ew.println(strings.Repeat("─", 40))

		sort.SliceStable(comments, func(i, j int) bool {
			if comments[i].Path != comments[j].Path {
				return comments[i].Path < comments[j].Path
			}
			return comments[i].Line < comments[j].Line
		})

		for _, c := range comments {
			ew.printf("\n  %s", location(c))
			if c.Category != "" {
				ew.printf("  [%s]", c.Category)
			}
			ew.println("")
			for _, line := range wrapText(c.Body, 70) {
				ew.printf("    %s\n", line)
			}
			if c.Suggestion != "" {
				ew.println("  Suggestion:")
				for _, line := range strings.Split(c.Suggestion, "\n") {
					ew.printf("    %s\n", line)
				}
			}
		}
	}

	if len(res.Suggestions) > 0 {
		ew.printf("\n%s\n", p.paint(titleStyle, "Suggestions"))
		ew.println(strings.Repeat("─", 40))
		for _, s := range res.Suggestions {
			if s.Title != "" {
				ew.printf("  - %s: %s\n", s.Title, s.Description)
			} else {
				ew.printf("  - %s\n", s.Description)
			}
		}
	}

	if len(res.Comments) == 0 && len(res.Suggestions) == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	if report.Reused {
		ew.printf("Reused review %s from %s\n", res.ID, humanize.Time(res.CreatedAt))
	} else {
		ew.printf("Review %s completed in %s\n", res.ID, report.Elapsed.Round(100*time.Millisecond))
	}
	return ew.err
}

func location(c review.Comment) string {
	switch {
	case c.Path == "":
		return "(general)"
	case c.Line <= 0:
		return c.Path
	case c.Side == diff.SideLeft:
		return fmt.Sprintf("%s:%d (old)", c.Path, c.Line)
	default:
		return fmt.Sprintf("%s:%d", c.Path, c.Line)
	}
}

// statsLine renders "3 files changed, +1,204 -17".
func statsLine(s diff.Stats) string {
	return fmt.Sprintf("%s changed, +%s -%s",
		plural.Pluralize("file", s.FilesChanged, true),
		humanize.Comma(int64(s.Additions)),
		humanize.Comma(int64(s.Deletions)))
}
