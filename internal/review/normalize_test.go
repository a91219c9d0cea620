package review

import (
	"strings"
	"testing"
	"time"

	"github.com/dshills/lyon/internal/diff"
)

var testContext = Context{
	ID:          "r1",
	PRNumber:    42,
	Repository:  "acme/widgets",
	Provider:    "claude",
	CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	CompletedAt: time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC),
}

func TestNormalize_FullPayload(t *testing.T) {
	raw := "```json\n" + `{
  "summary": "Looks mostly good",
  "overallScore": 7.5,
  "unknownField": {"ignored": true},
  "comments": [
    {"path": "main.go", "line": 12, "severity": "critical", "category": "bug", "body": "nil deref", "suggestion": "if x != nil {}"},
    {"path": "old.go", "line": "8", "side": "left", "severity": "bogus", "body": "removed check"},
    "not an object",
    {"path": "util.go", "body": "no line"}
  ],
  "suggestions": [
    "Add tests",
    {"title": "Docs", "description": "Document the flag"}
  ]
}` + "\n```"

	res := NormalizeOutput(raw, testContext)

	if res.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", res.Status)
	}
	if res.ID != "r1" || res.PRNumber != 42 || res.Repository != "acme/widgets" || res.Provider != "claude" {
		t.Errorf("context not carried: %+v", res)
	}
	if !res.CreatedAt.Equal(testContext.CreatedAt) {
		t.Errorf("CreatedAt = %v", res.CreatedAt)
	}
	if res.CompletedAt == nil || !res.CompletedAt.Equal(testContext.CompletedAt) {
		t.Errorf("CompletedAt = %v", res.CompletedAt)
	}
	if res.Summary != "Looks mostly good" {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.OverallScore == nil || *res.OverallScore != 7.5 {
		t.Errorf("OverallScore = %v", res.OverallScore)
	}

	if len(res.Comments) != 3 {
		t.Fatalf("got %d comments, want 3", len(res.Comments))
	}
	c := res.Comments[0]
	if c.ID != "r1-comment-0" || c.Path != "main.go" || c.Line != 12 || c.Side != diff.SideRight {
		t.Errorf("comment[0] = %+v", c)
	}
	if c.Severity != SeverityCritical || c.Category != "bug" || c.Suggestion != "if x != nil {}" {
		t.Errorf("comment[0] = %+v", c)
	}
	c = res.Comments[1]
	if c.ID != "r1-comment-1" || c.Line != 8 || c.Side != diff.SideLeft || c.Severity != SeverityInfo {
		t.Errorf("comment[1] = %+v", c)
	}
	c = res.Comments[2]
	if c.ID != "r1-comment-3" || c.Line != 0 || c.Body != "no line" {
		t.Errorf("comment[2] = %+v", c)
	}

	if len(res.Suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(res.Suggestions))
	}
	if res.Suggestions[0] != (Suggestion{ID: "r1-suggestion-0", Description: "Add tests"}) {
		t.Errorf("suggestion[0] = %+v", res.Suggestions[0])
	}
	if res.Suggestions[1] != (Suggestion{ID: "r1-suggestion-1", Title: "Docs", Description: "Document the flag"}) {
		t.Errorf("suggestion[1] = %+v", res.Suggestions[1])
	}
}

func TestNormalize_NoCandidate(t *testing.T) {
	res := Normalize("The change looks fine.", "", testContext)

	if res.Status != StatusCompleted {
		t.Errorf("Status = %q", res.Status)
	}
	if res.Summary != "The change looks fine." {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.Comments == nil || res.Suggestions == nil || len(res.Comments)+len(res.Suggestions) != 0 {
		t.Errorf("expected empty non-nil collections: %+v", res)
	}
}

func TestNormalize_EmptyOutput(t *testing.T) {
	for _, raw := range []string{"", "  \n\t"} {
		res := NormalizeOutput(raw, testContext)
		if res.Status != StatusCompleted || res.Summary != EmptyOutputSummary {
			t.Errorf("NormalizeOutput(%q) = %+v", raw, res)
		}
	}
}

func TestNormalize_UnparseableCandidate(t *testing.T) {
	raw := "noise {\"summary\": \"truncated" + strings.Repeat("x", 1000) + "}"

	res := NormalizeOutput(raw, testContext)

	if res.Status != StatusCompleted {
		t.Errorf("Status = %q", res.Status)
	}
	if !strings.HasPrefix(res.Summary, ParseFailurePrefix) {
		t.Errorf("Summary = %q", res.Summary)
	}
	if !strings.HasSuffix(res.Summary, "...") {
		t.Errorf("expected truncated preview, got %q", res.Summary)
	}
	if !strings.Contains(res.Summary, "noise {") {
		t.Errorf("preview should start at the raw text: %q", res.Summary)
	}
	if len([]rune(res.Summary)) > len(ParseFailurePrefix)+len(" Raw response:\n\n")+rawPreviewLen {
		t.Errorf("preview too long: %d runes", len([]rune(res.Summary)))
	}
}

func TestNormalize_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"plain prose with no structure",
		`{"summary": "missing close"`,
		`{"summary": 5, "comments": "nope", "suggestions": {"a": 1}}`,
		`[1, 2, 3]`,
		"```json\n{}\n```",
		`{"comments":[{"line":-4,"side":7,"severity":null}]}`,
		"{{{{",
		"}}}}",
	}
	for _, in := range inputs {
		res := NormalizeOutput(in, testContext)
		if res.Status != StatusCompleted {
			t.Errorf("NormalizeOutput(%q).Status = %q", in, res.Status)
		}
	}
}

func TestNormalize_StableIDs(t *testing.T) {
	raw := `{"summary":"s","comments":[{"path":"a","line":1},{"path":"a","line":1}]}`
	a := NormalizeOutput(raw, testContext)
	b := NormalizeOutput(raw, testContext)

	if a.Comments[0].ID == a.Comments[1].ID {
		t.Error("comments at different positions must have different ids")
	}
	if a.Comments[0].ID != b.Comments[0].ID || a.Comments[1].ID != b.Comments[1].ID {
		t.Error("ids must be deterministic")
	}
}

func TestNormalize_WrongTypesIgnored(t *testing.T) {
	res := NormalizeOutput(`{"summary": 5, "overallScore": "8", "comments": "nope"}`, testContext)

	if res.Summary != "" {
		t.Errorf("Summary = %q, want empty", res.Summary)
	}
	if res.OverallScore == nil || *res.OverallScore != 8 {
		t.Errorf("OverallScore = %v, want 8", res.OverallScore)
	}
	if len(res.Comments) != 0 {
		t.Errorf("Comments = %+v", res.Comments)
	}
}
