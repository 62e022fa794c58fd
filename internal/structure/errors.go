package structure

import (
	"fmt"
	"strings"
)

// SequenceMismatchError reports an ordered list that differs from its spec.
type SequenceMismatchError struct {
	File     string
	Key      string
	Expected []string
	Observed []string
}

func (e *SequenceMismatchError) Error() string {
	idx := firstDifference(e.Expected, e.Observed)
	var at string
	switch {
	case idx >= len(e.Expected):
		at = fmt.Sprintf("unexpected extra phase %q at position %d", e.Observed[idx], idx+1)
	case idx >= len(e.Observed):
		at = fmt.Sprintf("missing phase %q at position %d", e.Expected[idx], idx+1)
	default:
		at = fmt.Sprintf("position %d is %q, expected %q", idx+1, e.Observed[idx], e.Expected[idx])
	}
	return fmt.Sprintf("%s: %s: sequence mismatch, %s (expected [%s], got [%s])",
		e.File, e.Key, at, strings.Join(e.Expected, ", "), strings.Join(e.Observed, ", "))
}

func (e *SequenceMismatchError) Kind() string     { return "sequence_mismatch" }
func (e *SequenceMismatchError) Filename() string { return e.File }

// MissingStepError reports a workflow step that could not be found.
type MissingStepError struct {
	File string
	Job  string
	Step string
}

func (e *MissingStepError) Error() string {
	return fmt.Sprintf("%s: job %s: missing step '%s'", e.File, e.Job, e.Step)
}

func (e *MissingStepError) Kind() string     { return "missing_step" }
func (e *MissingStepError) Filename() string { return e.File }

// StepSettingError reports a step whose `with` setting has the wrong value.
type StepSettingError struct {
	File string
	Job  string
	Step string
	Key  string
	Want string
	Got  string // empty when the setting is absent
}

func (e *StepSettingError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("%s: job %s: step '%s': with.%s is not set, expected '%s'", e.File, e.Job, e.Step, e.Key, e.Want)
	}
	return fmt.Sprintf("%s: job %s: step '%s': with.%s is '%s', expected '%s'", e.File, e.Job, e.Step, e.Key, e.Got, e.Want)
}

func (e *StepSettingError) Kind() string     { return "step_setting" }
func (e *StepSettingError) Filename() string { return e.File }

// MissingInvocationError reports a command that does not run a required tool.
type MissingInvocationError struct {
	File    string
	Subject string // what holds the command, e.g. "lint" or "step 'Install tools'"
	Tool    string
}

func (e *MissingInvocationError) Error() string {
	return fmt.Sprintf("%s: %s does not invoke %s", e.File, e.Subject, e.Tool)
}

func (e *MissingInvocationError) Kind() string     { return "missing_invocation" }
func (e *MissingInvocationError) Filename() string { return e.File }

// MissingTargetError reports a required phony target that is not declared.
type MissingTargetError struct {
	File   string
	Target string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("%s: missing phony target '%s'", e.File, e.Target)
}

func (e *MissingTargetError) Kind() string     { return "missing_target" }
func (e *MissingTargetError) Filename() string { return e.File }

// MissingTriggerError reports a workflow that is not started by an event.
type MissingTriggerError struct {
	File    string
	Trigger string
}

func (e *MissingTriggerError) Error() string {
	return fmt.Sprintf("%s: on: missing '%s' trigger", e.File, e.Trigger)
}

func (e *MissingTriggerError) Kind() string     { return "missing_trigger" }
func (e *MissingTriggerError) Filename() string { return e.File }

func firstDifference(a, b []string) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}
