package drift

import (
	"encoding/json"
	"fmt"
	"strings"

	"labcheck/internal/report"
)

// FormatCLI renders drift grouped by inventory group. It returns "" when
// nothing drifted.
func FormatCLI(r DriftReport) string {
	if !r.HasDrift {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️  Variable drift detected since baseline '%s':\n", r.BaselineName)
	for _, g := range r.ByGroup() {
		fmt.Fprintf(&sb, "  %s:\n", g.Group)
		for _, c := range g.Changes {
			fmt.Fprintf(&sb, "    %s\n", describeCLI(c))
		}
	}

	added, removed, changed := r.Counts()
	fmt.Fprintf(&sb, "\n%d added, %d removed, %d changed. Drift is informational; the check result is unaffected.\n", added, removed, changed)
	return sb.String()
}

func describeCLI(c KeyDrift) string {
	name := c.Variable()
	if c.Secret {
		return fmt.Sprintf("%s %s: (secret %s)", mark(c.Type), name, c.Type)
	}
	switch c.Type {
	case DriftAdded:
		return fmt.Sprintf("+ %s: (new) → %s", name, c.CurrentValue)
	case DriftRemoved:
		return fmt.Sprintf("- %s: %s → (removed)", name, c.BaselineValue)
	default:
		return fmt.Sprintf("~ %s: %s → %s", name, c.BaselineValue, c.CurrentValue)
	}
}

func mark(t DriftType) string {
	switch t {
	case DriftAdded:
		return "+"
	case DriftRemoved:
		return "-"
	}
	return "~"
}

// FormatCI renders drift as GitHub Actions warning annotations. files maps
// a group to its group_vars file; groups without one are annotated against
// fallback.
func FormatCI(r DriftReport, files map[string]string, fallback string) string {
	if !r.HasDrift {
		return ""
	}

	var sb strings.Builder
	for _, c := range r.Changes {
		file, ok := files[c.Group()]
		if !ok {
			file = fallback
		}
		fmt.Fprintf(&sb, "::warning file=%s::Variable drift: %s\n", report.EscapeProperty(file), report.EscapeData(describeCI(c)))
	}

	fmt.Fprintf(&sb, "\n⚠️  Variable drift detected: %d change(s) since baseline '%s'\n", len(r.Changes), r.BaselineName)
	return sb.String()
}

func describeCI(c KeyDrift) string {
	if c.Secret {
		return fmt.Sprintf("%s %s (secret)", c.Key, c.Type)
	}
	switch c.Type {
	case DriftAdded:
		return fmt.Sprintf("%s added (value: %s)", c.Key, c.CurrentValue)
	case DriftRemoved:
		return fmt.Sprintf("%s removed (was: %s)", c.Key, c.BaselineValue)
	default:
		return fmt.Sprintf("%s changed from %s to %s", c.Key, c.BaselineValue, c.CurrentValue)
	}
}

// FormatJSON renders a drift report as indented JSON.
func FormatJSON(r DriftReport) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
