package review

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aquilax/truncate"

	"github.com/dshills/lyon/internal/diff"
)

const (
	// EmptyOutputSummary is used when the model produced no text at all.
	EmptyOutputSummary = "No review output was produced."
	// ParseFailurePrefix starts the summary of a result whose JSON could not
	// be decoded.
	ParseFailurePrefix = "Failed to parse AI response as JSON."

	rawPreviewLen = 500
)

// Normalize turns raw model output and an optional extracted candidate into
// a completed Result. It never fails: missing structure degrades to a
// summary-only result.
func Normalize(raw, candidate string, rc Context) Result {
	res := Result{
		ID:          rc.ID,
		PRNumber:    rc.PRNumber,
		Repository:  rc.Repository,
		Provider:    rc.Provider,
		Status:      StatusCompleted,
		Comments:    []Comment{},
		Suggestions: []Suggestion{},
		CreatedAt:   rc.CreatedAt,
	}
	if !rc.CompletedAt.IsZero() {
		at := rc.CompletedAt
		res.CompletedAt = &at
	}

	if candidate == "" {
		res.Summary = raw
		if strings.TrimSpace(raw) == "" {
			res.Summary = EmptyOutputSummary
		}
		return res
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil || doc == nil {
		res.Summary = ParseFailurePrefix + " Raw response:\n\n" +
			truncate.Truncate(raw, rawPreviewLen, "...", truncate.PositionEnd)
		return res
	}

	res.Summary = stringField(doc, "summary")
	res.OverallScore = numberField(doc, "overallScore", "overall_score", "score")

	if items, ok := doc["comments"].([]any); ok {
		for i, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				continue
			}
			res.Comments = append(res.Comments, toComment(obj, fmt.Sprintf("%s-comment-%d", rc.ID, i)))
		}
	}
	if items, ok := doc["suggestions"].([]any); ok {
		for i, it := range items {
			id := fmt.Sprintf("%s-suggestion-%d", rc.ID, i)
			switch v := it.(type) {
			case string:
				res.Suggestions = append(res.Suggestions, Suggestion{ID: id, Description: v})
			case map[string]any:
				res.Suggestions = append(res.Suggestions, Suggestion{
					ID:          id,
					Title:       stringField(v, "title"),
					Description: stringField(v, "description", "body", "text"),
					Category:    stringField(v, "category"),
				})
			}
		}
	}
	return res
}

// NormalizeOutput extracts and normalizes raw in one step.
func NormalizeOutput(raw string, rc Context) Result {
	candidate, _ := Extract(raw)
	return Normalize(raw, candidate, rc)
}

func toComment(obj map[string]any, id string) Comment {
	c := Comment{
		ID:         id,
		Path:       stringField(obj, "path", "file"),
		Side:       diff.SideRight,
		Severity:   ParseSeverity(stringField(obj, "severity")),
		Category:   stringField(obj, "category"),
		Body:       stringField(obj, "body", "comment", "message"),
		Suggestion: stringField(obj, "suggestion"),
	}
	if n := numberField(obj, "line", "startLine"); n != nil && *n > 0 {
		c.Line = int(*n)
	}
	if strings.EqualFold(stringField(obj, "side"), string(diff.SideLeft)) {
		c.Side = diff.SideLeft
	}
	return c
}

// stringField returns the first key holding a string.
func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}

// numberField returns the first key holding a number or numeric string.
func numberField(obj map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return &v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}
