package drift

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() DriftReport {
	return DriftReport{
		HasDrift:     true,
		BaselineName: "release",
		Changes: []KeyDrift{
			{Key: "all.new_key", Type: DriftAdded, CurrentValue: `"x"`},
			{Key: "infra.nfs_export_path", Type: DriftRemoved, BaselineValue: `"/srv/nfs"`},
			{Key: "infra.restic_password", Type: DriftChanged, BaselineValue: testKey.Digest("a"), CurrentValue: testKey.Digest("b"), Secret: true},
			{Key: "runners.gitlab_runner_executor", Type: DriftChanged, BaselineValue: `"shell"`, CurrentValue: `"docker"`},
		},
	}
}

func TestFormatCLI(t *testing.T) {
	want := `⚠️  Variable drift detected since baseline 'release':
  all:
    + new_key: (new) → "x"
  infra:
    - nfs_export_path: "/srv/nfs" → (removed)
    ~ restic_password: (secret changed)
  runners:
    ~ gitlab_runner_executor: "shell" → "docker"

1 added, 1 removed, 2 changed. Drift is informational; the check result is unaffected.
`
	assert.Equal(t, want, FormatCLI(sampleReport()))
}

func TestFormatCI(t *testing.T) {
	out := FormatCI(sampleReport(), map[string]string{
		"all":   "group_vars/all.yml",
		"infra": "group_vars/infra.yml",
	}, "group_vars")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, `::warning file=group_vars/all.yml::Variable drift: all.new_key added (value: "x")`, lines[0])
	assert.Equal(t, `::warning file=group_vars/infra.yml::Variable drift: infra.restic_password changed (secret)`, lines[2])
	assert.Equal(t, `::warning file=group_vars::Variable drift: runners.gitlab_runner_executor changed from "shell" to "docker"`, lines[3])
	assert.Equal(t, "⚠️  Variable drift detected: 4 change(s) since baseline 'release'", lines[5])
}

func TestFormatCI_EscapesFile(t *testing.T) {
	report := Detect(saved("b", map[string]string{}), current(map[string]string{"all.timezone": `"UTC"`}))
	out := FormatCI(report, map[string]string{"all": "C:/lab/group_vars/all,old.yml"}, "group_vars")
	assert.Contains(t, out, "::warning file=C%3A/lab/group_vars/all%2Cold.yml::Variable drift: all.timezone added")
}

func TestFormatEmpty(t *testing.T) {
	assert.Empty(t, FormatCLI(DriftReport{}))
	assert.Empty(t, FormatCI(DriftReport{}, nil, "group_vars"))
}

// No output format ever prints a secret digest, and every key appears.
func TestFormat_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("text and CI name every key and hide digests", prop.ForAll(
		func(key, was, now string) bool {
			if was == now {
				return true
			}
			report := Detect(
				saved("b", map[string]string{key: testKey.Digest(was), "all.plain": `"` + was + `"`}),
				current(map[string]string{key: testKey.Digest(now), "all.plain": `"` + now + `"`}),
			)
			cli := FormatCLI(report)
			ci := FormatCI(report, nil, "group_vars")
			for _, out := range []string{cli, ci} {
				if strings.Contains(out, "hmac-sha256:") {
					return false
				}
			}
			return strings.Contains(ci, key) && strings.Contains(cli, report.Changes[0].Variable())
		},
		genKey(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("JSON keeps every change", prop.ForAll(
		func(before, after map[string]string) bool {
			report := Detect(saved("b", before), current(after))
			out, err := FormatJSON(report)
			if err != nil {
				return false
			}
			var parsed DriftReport
			if err := json.Unmarshal([]byte(out), &parsed); err != nil {
				return false
			}
			return parsed.HasDrift == report.HasDrift && len(parsed.Changes) == len(report.Changes)
		},
		genConfigValues(),
		genConfigValues(),
	))

	properties.TestingRun(t)
}
