package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/dshills/lyon/internal/diff"
)

const systemPrompt = `You are a strict, expert code reviewer reviewing a pull request diff.

Rules:
1. Only review the changes shown in the diff. Do not comment on unchanged code.
2. Focus on bugs, security issues, performance problems, and correctness. Avoid bikeshedding on style unless it impacts readability significantly.
3. Be concise and actionable.
4. Anchor every comment to a line of the diff: use the new file line number with side "RIGHT" for added or context lines, and the old line number with side "LEFT" for deleted lines.
5. Rate severity as "critical", "warning", "info", or "suggestion".
6. Give an overall score from 0 to 10 for the change.

Respond with a single JSON object and nothing else, using this exact structure:
{
  "summary": "One paragraph overview of the change and its risks",
  "overallScore": 7.5,
  "comments": [
    {
      "path": "relative/file/path",
      "line": 42,
      "side": "RIGHT",
      "severity": "critical|warning|info|suggestion",
      "category": "bug|security|performance|correctness|style|maintainability|testing|docs",
      "body": "What is wrong and why it matters",
      "suggestion": "Optional replacement code"
    }
  ],
  "suggestions": [
    {"title": "Short title", "description": "A change that applies to the whole pull request"}
  ]
}

If there is nothing to comment on, return an empty comments array.`

// SystemPrompt returns the reviewer instructions.
func SystemPrompt() string {
	return systemPrompt
}

// PromptInput is what a review prompt is assembled from.
type PromptInput struct {
	Title  string
	Body   string
	Diff   string
	Parsed diff.ParsedDiff
	Rules  *Rules
}

// BuildPrompt renders the full prompt piped to a provider command.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if in.Title != "" {
		fmt.Fprintf(&b, "Pull request: %s\n", in.Title)
	}
	if body := strings.TrimSpace(in.Body); body != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", body)
	}

	st := in.Parsed.Stats
	fmt.Fprintf(&b, "Files changed: %d (+%d -%d)\n", st.FilesChanged, st.Additions, st.Deletions)
	for _, f := range in.Parsed.Files {
		fmt.Fprintf(&b, "- %s [%s]\n", f.Path, f.Status)
	}

	if langs := detectLanguages(in.Parsed.Paths()); len(langs) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(langs, ", "))
	}

	if section := BuildRulesPromptSection(in.Rules); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(in.Diff)
	b.WriteString("\n--- END DIFF ---\n")

	return b.String()
}

// detectLanguages returns the sorted set of languages enry recognises among
// non-vendored paths.
func detectLanguages(paths []string) []string {
	seen := make(map[string]bool)
	for _, p := range paths {
		if enry.IsVendor(p) {
			continue
		}
		lang, _ := enry.GetLanguageByExtension(p)
		if lang == "" {
			lang, _ = enry.GetLanguageByFilename(p)
		}
		if lang != "" {
			seen[lang] = true
		}
	}
	langs := make([]string, 0, len(seen))
	for l := range seen {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
