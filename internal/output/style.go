package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/lyon/internal/review"
)

var (
	criticalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	commentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))

	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	stringStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	numberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// painter applies styles only when colour is enabled. Plain output is left
// untouched so tabs and alignment in diff content survive.
type painter bool

func (p painter) paint(s lipgloss.Style, text string) string {
	if !p || text == "" {
		return text
	}
	return s.Render(text)
}

func severityStyle(s review.Severity) lipgloss.Style {
	switch s {
	case review.SeverityCritical:
		return criticalStyle
	case review.SeverityWarning:
		return warningStyle
	case review.SeveritySuggestion:
		return suggestionStyle
	default:
		return infoStyle
	}
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!]"
	case review.SeverityWarning:
		return "[!]"
	case review.SeverityInfo:
		return "[i]"
	case review.SeveritySuggestion:
		return "[-]"
	default:
		return "[?]"
	}
}

// tokenStyle maps a chroma token class to a style by its category prefix.
func tokenStyle(class string) (lipgloss.Style, bool) {
	switch {
	case strings.HasPrefix(class, "Keyword"):
		return keywordStyle, true
	case strings.HasPrefix(class, "LiteralString"):
		return stringStyle, true
	case strings.HasPrefix(class, "LiteralNumber"):
		return numberStyle, true
	case strings.HasPrefix(class, "Comment"):
		return dimStyle, true
	case strings.HasPrefix(class, "NameFunction"), strings.HasPrefix(class, "NameClass"):
		return nameStyle, true
	default:
		return lipgloss.Style{}, false
	}
}

func wrapText(text string, width int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if len(para) <= width {
			lines = append(lines, para)
			continue
		}
		var current strings.Builder
		for _, word := range strings.Fields(para) {
			if current.Len()+len(word)+1 > width && current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(word)
		}
		if current.Len() > 0 {
			lines = append(lines, current.String())
		}
	}
	return lines
}
