package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Rules is a rules pack loaded from a TOML file.
type Rules struct {
	Focus             []string          `toml:"focus"`
	SeverityOverrides map[string]string `toml:"severity_overrides"`
	Required          []RequiredCheck   `toml:"required"`
}

// RequiredCheck is a policy check that should always be enforced.
type RequiredCheck struct {
	ID   string `toml:"id"`
	Text string `toml:"text"`
}

// LoadRules loads a rules file from disk. Returns nil Rules and nil error if path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return nil, nil
	}
	var rules Rules
	md, err := toml.DecodeFile(path, &rules)
	if err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing rules file: unknown key %q", undecoded[0].String())
	}
	for cat, sev := range rules.SeverityOverrides {
		if ParseSeverity(sev) != Severity(strings.ToLower(sev)) {
			return nil, fmt.Errorf("rules file: invalid severity %q for category %q", sev, cat)
		}
	}
	return &rules, nil
}

// BuildRulesPromptSection returns additional prompt instructions derived from rules.
func BuildRulesPromptSection(rules *Rules) string {
	if rules == nil {
		return ""
	}

	var b strings.Builder

	if len(rules.Focus) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s. Prioritize comments in these areas.\n",
			strings.Join(rules.Focus, ", "))
	}

	if len(rules.SeverityOverrides) > 0 {
		b.WriteString("\nSeverity policy:\n")
		cats := make([]string, 0, len(rules.SeverityOverrides))
		for cat := range rules.SeverityOverrides {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&b, "- %s comments should be rated as %s.\n", cat, rules.SeverityOverrides[cat])
		}
	}

	if len(rules.Required) > 0 {
		b.WriteString("\nRequired checks (always evaluate these):\n")
		for _, req := range rules.Required {
			fmt.Fprintf(&b, "- [%s] %s\n", req.ID, req.Text)
		}
	}

	return b.String()
}

// ApplySeverityOverrides rewrites comment severities by category.
func ApplySeverityOverrides(comments []Comment, rules *Rules) []Comment {
	if rules == nil || len(rules.SeverityOverrides) == 0 {
		return comments
	}
	for i := range comments {
		if override, ok := rules.SeverityOverrides[comments[i].Category]; ok {
			comments[i].Severity = ParseSeverity(override)
		}
	}
	return comments
}
