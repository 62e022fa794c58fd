package structure

import (
	"fmt"
	"os"
	"strings"

	"labcheck/internal/schema"
)

const phonyPrefix = ".PHONY:"

// PhonyTargets returns the targets declared on `.PHONY:` lines, in order.
// A declaration ending in a backslash continues on the next line.
func PhonyTargets(content string) []string {
	var targets []string
	continued := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")

		var rest string
		switch {
		case continued:
			rest = line
		case strings.HasPrefix(line, phonyPrefix):
			rest = line[len(phonyPrefix):]
		default:
			continue
		}

		trimmed := strings.TrimRight(rest, " \t")
		continued = strings.HasSuffix(trimmed, "\\")
		if continued {
			trimmed = strings.TrimSuffix(trimmed, "\\")
		}
		targets = append(targets, strings.Fields(trimmed)...)
	}

	return targets
}

// LoadPhonyTargets reads a Makefile and returns its phony targets.
func LoadPhonyTargets(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return PhonyTargets(string(content)), nil
}

// CheckTargets requires every rule key to be among the declared targets.
func CheckTargets(file string, targets []string, rules []schema.Rule) []error {
	declared := make(map[string]bool, len(targets))
	for _, t := range targets {
		declared[t] = true
	}

	var errs []error
	for _, r := range rules {
		if !declared[r.Key] {
			errs = append(errs, &MissingTargetError{File: file, Target: r.Key})
		}
	}
	return errs
}
