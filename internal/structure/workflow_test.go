package structure

import (
	"errors"
	"testing"

	"labcheck/internal/document"
	"labcheck/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodWorkflow = `
name: CI
on:
  push:
    branches: [main]
  pull_request:
jobs:
  lint:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-python@v5
        with:
          python-version: "3.11"
      - name: Install tools
        run: pip install ansible ansible-lint yamllint
      - name: ansible-lint
        run: ansible-lint ansible/
      - name: yamllint
        run: yamllint .
`

func parseWorkflow(t *testing.T, content string) *document.Document {
	t.Helper()
	doc, err := document.ParseYAML(".github/workflows/ci.yml", []byte(content))
	require.NoError(t, err)
	return doc
}

func TestCheckWorkflow_Valid(t *testing.T) {
	errs := CheckWorkflow(parseWorkflow(t, goodWorkflow), schema.WorkflowLint(""))
	assert.Empty(t, errs)
}

func TestCheckWorkflow_UnquotedPythonVersion(t *testing.T) {
	content := `
on: [push, pull_request]
jobs:
  lint:
    steps:
      - uses: actions/setup-python@v5
        with:
          python-version: 3.11
      - name: Install tools
        run: pip install ansible ansible-lint yamllint
      - name: ansible-lint
        run: ansible-lint
      - name: yamllint
        run: yamllint .
`
	assert.Empty(t, CheckWorkflow(parseWorkflow(t, content), schema.WorkflowLint("")))
}

func TestCheckWorkflow_CollectsAllProblems(t *testing.T) {
	content := `
on: push
jobs:
  lint:
    steps:
      - uses: actions/setup-python@v4
        with:
          python-version: "3.10"
      - name: Install tools
        run: pip install ansible yamllint
      - name: yamllint
        run: echo skipped
`
	errs := CheckWorkflow(parseWorkflow(t, content), schema.WorkflowLint(""))
	require.Len(t, errs, 5)

	var mt *MissingTriggerError
	require.True(t, errors.As(errs[0], &mt))
	assert.Equal(t, "pull_request", mt.Trigger)

	var ss *StepSettingError
	require.True(t, errors.As(errs[1], &ss))
	assert.Equal(t, "python-version", ss.Key)
	assert.Equal(t, "3.10", ss.Got)
	assert.Equal(t, "3.11", ss.Want)

	var mi *MissingInvocationError
	require.True(t, errors.As(errs[2], &mi))
	assert.Equal(t, "ansible-lint", mi.Tool)
	assert.Equal(t, "job lint step 'Install tools'", mi.Subject)

	var ms *MissingStepError
	require.True(t, errors.As(errs[3], &ms))
	assert.Equal(t, "lint", ms.Job)
	assert.Equal(t, "ansible-lint", ms.Step)

	require.True(t, errors.As(errs[4], &mi))
	assert.Equal(t, "yamllint", mi.Tool)
}

func TestCheckWorkflow_MissingJob(t *testing.T) {
	errs := CheckWorkflow(parseWorkflow(t, "on: [push, pull_request]\njobs: {}\n"), schema.WorkflowLint(""))
	require.Len(t, errs, 4)
	for _, err := range errs {
		var ms *MissingStepError
		assert.True(t, errors.As(err, &ms), "got %T", err)
	}
}

func TestCheckTriggers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing int
	}{
		{"mapping", "on:\n  push:\n  pull_request:\n", 0},
		{"list", "on: [pull_request, push]\n", 0},
		{"single", "on: pull_request\n", 1},
		{"absent", "name: x\n", 2},
		{"workflow_dispatch only", "on:\n  workflow_dispatch:\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseWorkflow(t, tt.content)
			on, _ := doc.Lookup("on")
			errs := CheckTriggers(doc.Path, on, []string{"push", "pull_request"})
			assert.Len(t, errs, tt.missing)
		})
	}
}

func TestFindStep(t *testing.T) {
	doc := parseWorkflow(t, goodWorkflow)
	steps, ok := doc.Lookup("jobs.lint.steps")
	require.True(t, ok)

	step, ok := FindStep(steps.Items(), schema.StepMatch{Uses: "actions/setup-python"})
	require.True(t, ok)
	uses, _ := step.Get("uses")
	assert.Equal(t, "actions/setup-python@v5", uses.Text())

	_, ok = FindStep(steps.Items(), schema.StepMatch{Name: "Install"})
	assert.False(t, ok, "names must match exactly")

	_, ok = FindStep(nil, schema.StepMatch{Name: "yamllint"})
	assert.False(t, ok)
}
