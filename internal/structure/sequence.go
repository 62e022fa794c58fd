package structure

import (
	"strings"

	"labcheck/internal/document"
	"labcheck/internal/schema"
)

// CheckSequence requires observed to equal spec exactly, repeated phases
// included. It returns nil on a match.
func CheckSequence(file, key string, observed []string, spec schema.SequenceSpec) error {
	if len(observed) == len(spec) && firstDifference(spec, observed) == len(spec) {
		return nil
	}
	return &SequenceMismatchError{
		File:     file,
		Key:      key,
		Expected: append([]string(nil), spec...),
		Observed: append([]string(nil), observed...),
	}
}

// CheckInvocation requires command to mention every tool as a substring.
// One error is returned per missing tool.
func CheckInvocation(file, subject, command string, tools []string) []error {
	var errs []error
	for _, tool := range tools {
		if !strings.Contains(command, tool) {
			errs = append(errs, &MissingInvocationError{File: file, Subject: subject, Tool: tool})
		}
	}
	return errs
}

// Strings converts a sequence of scalars to their text. It reports false
// when v is not a sequence or holds a collection.
func Strings(v document.Value) ([]string, bool) {
	if v.Kind() != document.KindSequence {
		return nil, false
	}
	out := make([]string, 0, len(v.Items()))
	for _, item := range v.Items() {
		if item.Kind() == document.KindSequence || item.Kind() == document.KindMapping {
			return nil, false
		}
		out = append(out, item.Text())
	}
	return out, true
}
