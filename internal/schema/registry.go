package schema

import (
	"fmt"
	"strings"
)

// UnknownDomainError is returned when no rule table exists for a domain.
type UnknownDomainError struct {
	Domain string
}

func (e *UnknownDomainError) Error() string {
	names := make([]string, 0, len(domainOrder))
	for _, d := range domainOrder {
		names = append(names, string(d))
	}
	return fmt.Sprintf("unknown schema domain %q (known: %s)", e.Domain, strings.Join(names, ", "))
}

// Kind returns the error category used in reports.
func (e *UnknownDomainError) Kind() string { return "unknown_domain" }

var domainOrder = []Domain{
	DomainGlobal,
	DomainWorkstation,
	DomainRunner,
	DomainInfra,
	DomainInventory,
	DomainWorkflow,
	DomainMakefile,
	DomainMolecule,
}

// registry is built once and never mutated; Rules hands out copies.
var registry = map[Domain][]Rule{
	DomainGlobal: {
		{Key: "timezone", Type: TypeString, Format: Timezone()},
		{Key: "admin_user", Type: TypeString, Format: Username()},
		{Key: "ssh_public_keys", Type: TypeSequence, Elem: TypeString, Format: SSHPublicKey()},
		{Key: "packages_common", Type: TypeSequence, Elem: TypeString},
		{Key: "unattended_upgrades", Type: TypeBool},
	},
	DomainWorkstation: {
		{Key: "vscode_server", Type: TypeBool},
		{Key: "jupyter_install", Type: TypeBool},
	},
	DomainRunner: {
		{Key: "gitlab_runner_registration_token", Type: TypeString, Format: NonEmpty(), Secret: true},
		{Key: "gitlab_runner_executor", Type: TypeString, Format: OneOf("docker", "shell", "kubernetes")},
	},
	DomainInfra: {
		{Key: "gitlab_external_url", Type: TypeString, Format: HTTPURL()},
		{Key: "nfs_export_path", Type: TypeString, Format: AbsolutePath()},
		{Key: "restic_repo", Type: TypeString, Format: AbsolutePath()},
		{Key: "restic_password", Type: TypeString, Format: NonEmpty(), Secret: true},
	},
	DomainInventory: {
		{Key: "workstations", Type: TypeMapping},
		{Key: "lab_nodes", Type: TypeMapping},
		{Key: "runners", Type: TypeMapping},
		{Key: "infra", Type: TypeMapping},
	},
	DomainWorkflow: {
		{Key: "on", Type: TypeAny},
		{Key: "jobs.lint.steps", Type: TypeSequence, Elem: TypeMapping},
	},
	DomainMakefile: {
		{Key: "setup"},
		{Key: "lint"},
		{Key: "test"},
		{Key: "bootstrap"},
		{Key: "harden"},
		{Key: "dev-tools"},
		{Key: "network"},
		{Key: "storage"},
		{Key: "monitoring"},
		{Key: "dr-test"},
		{Key: "ping"},
	},
	DomainMolecule: {
		{Key: "driver.name", Type: TypeString, Format: OneOf("docker")},
		{Key: "scenario.test_sequence", Type: TypeSequence, Elem: TypeString},
		{Key: "verifier.name", Type: TypeString, Format: OneOf("testinfra")},
		{Key: "lint", Type: TypeString},
	},
}

// Rules returns the rule table of a domain in declaration order.
func Rules(d Domain) ([]Rule, error) {
	rules, ok := registry[d]
	if !ok {
		return nil, &UnknownDomainError{Domain: string(d)}
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		r.Format = r.Format.clone()
		out[i] = r
	}
	return out, nil
}

// ParseDomain converts a user-supplied name into a Domain.
func ParseDomain(name string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[d]; !ok {
		return "", &UnknownDomainError{Domain: name}
	}
	return d, nil
}

// Domains lists every registered domain.
func Domains() []Domain {
	out := make([]Domain, len(domainOrder))
	copy(out, domainOrder)
	return out
}

// GroupVars lists the group_vars files and the domains that validate them.
func GroupVars() []GroupVarsFile {
	return []GroupVarsFile{
		{File: "all.yml", Group: "all", Domain: DomainGlobal},
		{File: "workstations.yml", Group: "workstations", Domain: DomainWorkstation},
		{File: "runners.yml", Group: "runners", Domain: DomainRunner},
		{File: "infra.yml", Group: "infra", Domain: DomainInfra},
	}
}

// MoleculeTestSequence is the full Molecule test sequence, including the
// cleanup and destroy phases that run both before and after convergence.
func MoleculeTestSequence() SequenceSpec {
	return SequenceSpec{
		"dependency",
		"cleanup",
		"destroy",
		"syntax",
		"create",
		"prepare",
		"converge",
		"idempotence",
		"side_effect",
		"verify",
		"cleanup",
		"destroy",
	}
}

// MoleculeLintTools are the linters a scenario's lint command must run.
func MoleculeLintTools() []string {
	return []string{"ansible-lint", "yamllint"}
}

// DefaultPythonVersion is the interpreter the lint job must set up.
const DefaultPythonVersion = "3.11"

// WorkflowLint describes the CI lint job. pythonVersion overrides
// DefaultPythonVersion when non-empty.
func WorkflowLint(pythonVersion string) WorkflowSpec {
	if pythonVersion == "" {
		pythonVersion = DefaultPythonVersion
	}
	return WorkflowSpec{
		Job:      "lint",
		Triggers: []string{"push", "pull_request"},
		Steps: []StepRequirement{
			{
				Match: StepMatch{Uses: "actions/setup-python"},
				With:  map[string]string{"python-version": pythonVersion},
			},
			{
				Match:       StepMatch{Name: "Install tools"},
				Invocations: []string{"ansible", "ansible-lint", "yamllint"},
			},
			{
				Match:       StepMatch{Name: "ansible-lint"},
				Invocations: []string{"ansible-lint"},
			},
			{
				Match:       StepMatch{Name: "yamllint"},
				Invocations: []string{"yamllint"},
			},
		},
	}
}
