package structure

import (
	"fmt"
	"sort"
	"strings"

	"labcheck/internal/document"
	"labcheck/internal/schema"
)

// CheckWorkflow applies a workflow spec to a parsed CI workflow. It checks
// triggers and every required step; all problems are returned together.
func CheckWorkflow(doc *document.Document, spec schema.WorkflowSpec) []error {
	on, _ := doc.Lookup("on")
	errs := CheckTriggers(doc.Path, on, spec.Triggers)

	steps, _ := doc.LookupPath("jobs", spec.Job, "steps")
	errs = append(errs, CheckSteps(doc.Path, spec.Job, steps.Items(), spec.Steps)...)
	return errs
}

// CheckTriggers requires every trigger to appear under `on`, which may be a
// single event name, a list of names or a mapping keyed by event.
func CheckTriggers(file string, on document.Value, triggers []string) []error {
	present := make(map[string]bool)
	switch on.Kind() {
	case document.KindString:
		present[on.Text()] = true
	case document.KindSequence:
		for _, item := range on.Items() {
			present[item.Text()] = true
		}
	case document.KindMapping:
		for _, k := range on.Mapping().Keys() {
			present[k] = true
		}
	}

	var errs []error
	for _, trigger := range triggers {
		if !present[trigger] {
			errs = append(errs, &MissingTriggerError{File: file, Trigger: trigger})
		}
	}
	return errs
}

// FindStep returns the first step whose name equals match.Name or whose
// `uses` contains match.Uses.
func FindStep(steps []document.Value, match schema.StepMatch) (document.Value, bool) {
	for _, step := range steps {
		if match.Name != "" {
			if name, ok := step.Get("name"); ok && name.Text() == match.Name {
				return step, true
			}
			continue
		}
		if match.Uses != "" {
			if uses, ok := step.Get("uses"); ok && strings.Contains(uses.Text(), match.Uses) {
				return step, true
			}
		}
	}
	return document.Value{}, false
}

// CheckSteps verifies each requirement against a job's steps.
func CheckSteps(file, job string, steps []document.Value, reqs []schema.StepRequirement) []error {
	var errs []error
	for _, req := range reqs {
		step, ok := FindStep(steps, req.Match)
		if !ok {
			errs = append(errs, &MissingStepError{File: file, Job: job, Step: req.Match.String()})
			continue
		}
		errs = append(errs, checkWith(file, job, req, step)...)

		if len(req.Invocations) > 0 {
			run, _ := step.Get("run")
			subject := fmt.Sprintf("job %s step '%s'", job, req.Match)
			errs = append(errs, CheckInvocation(file, subject, run.Text(), req.Invocations)...)
		}
	}
	return errs
}

func checkWith(file, job string, req schema.StepRequirement, step document.Value) []error {
	var errs []error
	with, _ := step.Get("with")
	for _, key := range sortedKeys(req.With) {
		want := req.With[key]
		got, ok := with.Get(key)
		if ok && got.Text() == want {
			continue
		}
		errs = append(errs, &StepSettingError{
			File: file,
			Job:  job,
			Step: req.Match.String(),
			Key:  key,
			Want: want,
			Got:  got.Text(),
		})
	}
	return errs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
