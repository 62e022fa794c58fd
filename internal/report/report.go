package report

import (
	"errors"
	"strings"
)

// Finding is one violation as it appears in a report.
type Finding struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Message string `json:"message"`
}

// CheckResult is the outcome of one independent check.
type CheckResult struct {
	Name     string    `json:"name"`
	File     string    `json:"file"`
	Passed   bool      `json:"passed"`
	Findings []Finding `json:"findings,omitempty"`
}

// Report collects the results of a validation run.
type Report struct {
	Root   string        `json:"root,omitempty"`
	Passed bool          `json:"passed"`
	Checks []CheckResult `json:"checks"`
}

// violation is implemented by every typed error the checkers return.
type violation interface {
	error
	Kind() string
	Filename() string
}

// NewFinding converts a checker error into a finding. Errors without a
// kind are reported as "error" against the fallback file.
func NewFinding(err error, file string) Finding {
	f := Finding{Kind: "error", File: file, Message: err.Error()}

	var v violation
	if errors.As(err, &v) {
		f.Kind = v.Kind()
		if v.Filename() != "" {
			f.File = v.Filename()
		}
	}

	if f.File != "" {
		f.Message = strings.TrimPrefix(f.Message, f.File+": ")
	}
	return f
}

// New returns an empty report for the given project root.
func New(root string) *Report {
	return &Report{Root: root, Passed: true}
}

// Add records a check and its violations. A check with no errors passes.
func (r *Report) Add(name, file string, errs []error) {
	res := CheckResult{Name: name, File: file, Passed: len(errs) == 0}
	for _, err := range errs {
		res.Findings = append(res.Findings, NewFinding(err, file))
	}
	if !res.Passed {
		r.Passed = false
	}
	r.Checks = append(r.Checks, res)
}

// Failed returns the checks that did not pass.
func (r Report) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// FindingCount is the number of violations across all checks.
func (r Report) FindingCount() int {
	n := 0
	for _, c := range r.Checks {
		n += len(c.Findings)
	}
	return n
}
