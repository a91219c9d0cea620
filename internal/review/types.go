package review

import (
	"strings"
	"time"

	"github.com/dshills/lyon/internal/anchor"
	"github.com/dshills/lyon/internal/diff"
)

// Status is the lifecycle position of a review result.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Severity represents the severity level of a comment.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeverityInfo       Severity = "info"
	SeveritySuggestion Severity = "suggestion"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityWarning:
		return 3
	case SeverityInfo:
		return 2
	case SeveritySuggestion:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(ParseSeverity(threshold))
}

// ParseSeverity maps free-form model output onto a known severity. Unknown
// values become info.
func ParseSeverity(s string) Severity {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Severity(s) {
	case SeverityCritical, SeverityWarning, SeverityInfo, SeveritySuggestion:
		return Severity(s)
	}
	switch s {
	case "high", "error", "blocker":
		return SeverityCritical
	case "medium", "major":
		return SeverityWarning
	case "low", "minor", "nit":
		return SeveritySuggestion
	}
	return SeverityInfo
}

// Comment is a line-anchored review comment.
type Comment struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Line       int       `json:"line"`
	Side       diff.Side `json:"side"`
	Severity   Severity  `json:"severity"`
	Category   string    `json:"category,omitempty"`
	Body       string    `json:"body"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// Anchor implements anchor.Anchored.
func (c Comment) Anchor() anchor.Position {
	return anchor.Position{Path: c.Path, Line: c.Line, Side: c.Side}
}

// Suggestion is a review-wide recommendation not tied to a line.
type Suggestion struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// Result is the normalized outcome of one AI review.
type Result struct {
	ID           string       `json:"id"`
	PRNumber     int          `json:"prNumber,omitempty"`
	Repository   string       `json:"repository,omitempty"`
	Provider     string       `json:"provider"`
	Status       Status       `json:"status"`
	Summary      string       `json:"summary,omitempty"`
	OverallScore *float64     `json:"overallScore,omitempty"`
	Comments     []Comment    `json:"comments"`
	Suggestions  []Suggestion `json:"suggestions"`
	CreatedAt    time.Time    `json:"createdAt"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}

// Context identifies the review a normalized result belongs to.
type Context struct {
	ID          string
	PRNumber    int
	Repository  string
	Provider    string
	CreatedAt   time.Time
	CompletedAt time.Time
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Critical   int `json:"critical"`
	Warning    int `json:"warning"`
	Info       int `json:"info"`
	Suggestion int `json:"suggestion"`
}

// CountSeverities tallies comments by severity and returns the highest seen.
func CountSeverities(comments []Comment) (SeverityCounts, Severity) {
	var c SeverityCounts
	var highest Severity
	for _, cm := range comments {
		switch cm.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityWarning:
			c.Warning++
		case SeverityInfo:
			c.Info++
		case SeveritySuggestion:
			c.Suggestion++
		}
		if SeverityRank(cm.Severity) > SeverityRank(highest) {
			highest = cm.Severity
		}
	}
	return c, highest
}
