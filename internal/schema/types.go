package schema

import (
	"fmt"
	"strings"
)

// Domain names a family of configuration files sharing one rule table.
type Domain string

const (
	DomainGlobal      Domain = "global"
	DomainWorkstation Domain = "workstation"
	DomainRunner      Domain = "runner"
	DomainInfra       Domain = "infra"
	DomainInventory   Domain = "inventory"
	DomainWorkflow    Domain = "workflow"
	DomainMakefile    Domain = "makefile"
	DomainMolecule    Domain = "molecule"
)

// ValueType is the primitive type a rule expects.
type ValueType string

const (
	TypeAny      ValueType = "any"
	TypeString   ValueType = "string"
	TypeBool     ValueType = "bool"
	TypeInt      ValueType = "int"
	TypeNumber   ValueType = "number"
	TypeSequence ValueType = "sequence"
	TypeMapping  ValueType = "mapping"
)

var valueTypes = []ValueType{TypeAny, TypeString, TypeBool, TypeInt, TypeNumber, TypeSequence, TypeMapping}

// ParseValueType validates a type name.
func ParseValueType(s string) (ValueType, error) {
	for _, t := range valueTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown type '%s'", s)
}

// Rule describes one required key of a domain.
type Rule struct {
	Key    string    // dotted path, e.g. "driver.name"
	Type   ValueType // expected type of the value
	Elem   ValueType // element type for sequences; empty means unchecked
	Format *Format   // optional predicate on string values (or string elements)
	Secret bool      // value must not be printed or stored in clear text
}

// String renders the rule as shown by `labcheck schema`.
func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(r.Key)
	if r.Type != "" {
		sb.WriteString(" (")
		sb.WriteString(string(r.Type))
		if r.Elem != "" {
			sb.WriteString(" of ")
			sb.WriteString(string(r.Elem))
		}
		sb.WriteString(")")
	}
	if r.Format != nil {
		sb.WriteString(": ")
		sb.WriteString(r.Format.Description)
	}
	if r.Secret {
		sb.WriteString(" [secret]")
	}
	return sb.String()
}

// SequenceSpec is an ordered list of expected phase names.
type SequenceSpec []string

// StepMatch identifies a workflow step by its name or by a substring of its
// `uses` reference.
type StepMatch struct {
	Name string
	Uses string
}

func (m StepMatch) String() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Uses
}

// StepRequirement is a step that must exist in a workflow job.
type StepRequirement struct {
	Match       StepMatch
	With        map[string]string // required `with` settings, compared as text
	Invocations []string          // substrings the step's `run` must contain
}

// WorkflowSpec describes the shape a CI workflow must have.
type WorkflowSpec struct {
	Job      string
	Triggers []string
	Steps    []StepRequirement
}

// GroupVarsFile binds a group_vars file to the domain that validates it.
type GroupVarsFile struct {
	File   string
	Group  string
	Domain Domain
}
