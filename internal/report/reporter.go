package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles controls how FormatCLI decorates its output.
type Styles struct {
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Muted   lipgloss.Style
	enabled bool
}

// NewStyles colors pass and fail marks through r. The renderer detects
// whether its output is a terminal and honours NO_COLOR, so redirected
// output stays plain.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Pass:    r.NewStyle().Foreground(lipgloss.Color("2")),
		Fail:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		enabled: true,
	}
}

// PlainStyles renders text unchanged.
func PlainStyles() Styles {
	return Styles{}
}

func (s Styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// FormatCLI formats a report for terminal output.
func FormatCLI(r Report, s Styles) string {
	var sb strings.Builder

	for _, c := range r.Checks {
		mark := s.render(s.Pass, "✓")
		if !c.Passed {
			mark = s.render(s.Fail, "✗")
		}
		fmt.Fprintf(&sb, "%s %s %s\n", mark, c.Name, s.render(s.Muted, "("+c.File+")"))
		for _, f := range c.Findings {
			fmt.Fprintf(&sb, "    %s\n", f.Message)
		}
	}
	sb.WriteString("\n")

	failed := len(r.Failed())
	if failed == 0 {
		fmt.Fprintf(&sb, "✅ All %d checks passed\n", len(r.Checks))
		return sb.String()
	}
	fmt.Fprintf(&sb, "❌ %d of %d checks failed: %d violation(s)\n", failed, len(r.Checks), r.FindingCount())
	return sb.String()
}

// FormatCI formats violations as GitHub Actions error annotations.
func FormatCI(r Report) string {
	var sb strings.Builder

	for _, c := range r.Checks {
		for _, f := range c.Findings {
			fmt.Fprintf(&sb, "::error file=%s::%s\n", EscapeProperty(f.File), EscapeData(f.Message))
		}
	}

	failed := len(r.Failed())
	if failed == 0 {
		fmt.Fprintf(&sb, "✅ All %d checks passed\n", len(r.Checks))
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n❌ %d of %d checks failed: %d violation(s)\n", failed, len(r.Checks), r.FindingCount())
	return sb.String()
}

// FormatJSON formats a report as JSON.
func FormatJSON(r Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Format renders a report in the named format: text, ci or json.
func Format(r Report, format string, s Styles) (string, error) {
	switch format {
	case "", "text":
		return FormatCLI(r, s), nil
	case "ci":
		return FormatCI(r), nil
	case "json":
		out, err := FormatJSON(r)
		if err != nil {
			return "", err
		}
		return out + "\n", nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, ci or json)", format)
	}
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

// EscapeData escapes the message of a workflow command. GitHub decodes
// %0A back to newlines.
func EscapeData(s string) string { return dataEscaper.Replace(s) }

// EscapeProperty escapes a workflow command property such as file=.
func EscapeProperty(s string) string { return propertyEscaper.Replace(s) }
