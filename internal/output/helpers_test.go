package output

import (
	"time"

	"github.com/dshills/lyon/internal/diff"
	"github.com/dshills/lyon/internal/review"
)

func sampleReport() *Report {
	score := 7.5
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return &Report{
		Source: "PR #42",
		Branch: "feature",
		Stats:  diff.Stats{FilesChanged: 3, Additions: 1204, Deletions: 17},
		Result: review.Result{
			ID:           "r1",
			PRNumber:     42,
			Repository:   "acme/widgets",
			Provider:     "claude",
			Status:       review.StatusCompleted,
			Summary:      "Solid change with one risky spot.",
			OverallScore: &score,
			Comments: []review.Comment{
				{ID: "r1-comment-0", Path: "util.go", Line: 4, Side: diff.SideRight, Severity: review.SeverityWarning, Category: "style", Body: "Name is unclear"},
				{ID: "r1-comment-1", Path: "main.go", Line: 10, Side: diff.SideRight, Severity: review.SeverityCritical, Category: "bug", Body: "x could be nil here", Suggestion: "if x == nil { return }"},
				{ID: "r1-comment-2", Path: "main.go", Line: 3, Side: diff.SideLeft, Severity: review.SeverityInfo, Body: "Removed guard"},
			},
			Suggestions: []review.Suggestion{{ID: "r1-suggestion-0", Title: "Tests", Description: "Cover the nil path"}},
			CreatedAt:   created,
		},
		Elapsed: 2340 * time.Millisecond,
	}
}
