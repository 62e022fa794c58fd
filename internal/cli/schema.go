package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"labcheck/internal/schema"
)

func newSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [DOMAIN]",
		Short: "Show the rules of every domain, or of one",
		Long: `Show the required keys of each domain with their types and formats.
With --json-schema the rules of one document domain are printed as a JSON
Schema (draft 2020-12) for editors and other validators.

Examples:
  labcheck schema
  labcheck schema molecule
  labcheck schema infra --json-schema > infra.schema.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json-schema")
			return a.runSchema(args, asJSON)
		},
	}

	cmd.Flags().Bool("json-schema", false, "print the domain as a JSON Schema")
	return cmd
}

func (a *app) runSchema(args []string, asJSON bool) error {
	if len(args) == 0 {
		if asJSON {
			return usageError("--json-schema needs a domain")
		}
		for i, d := range schema.Domains() {
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
			if err := writeDomain(a.stdout, d); err != nil {
				return failure("%w", err)
			}
		}
		return nil
	}

	d, err := schema.ParseDomain(args[0])
	if err != nil {
		return usageError("%w", err)
	}

	if !asJSON {
		if err := writeDomain(a.stdout, d); err != nil {
			return failure("%w", err)
		}
		return nil
	}

	s, err := schema.JSONSchema(d)
	if err != nil {
		return usageError("%w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return failure("cannot serialize schema: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}

// writeDomain prints a domain's rules followed by its structural
// requirements, if any.
func writeDomain(w io.Writer, d schema.Domain) error {
	rules, err := schema.Rules(d)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s:\n", d)
	for _, r := range rules {
		fmt.Fprintf(w, "  %s\n", r)
	}

	switch d {
	case schema.DomainMolecule:
		fmt.Fprintf(w, "  scenario.test_sequence = %s\n", strings.Join(schema.MoleculeTestSequence(), " → "))
		fmt.Fprintf(w, "  lint runs %s\n", strings.Join(schema.MoleculeLintTools(), ", "))
	case schema.DomainWorkflow:
		spec := schema.WorkflowLint("")
		fmt.Fprintf(w, "  on: %s\n", strings.Join(spec.Triggers, ", "))
		for _, step := range spec.Steps {
			fmt.Fprintf(w, "  job %s step '%s'", spec.Job, step.Match)
			keys := make([]string, 0, len(step.With))
			for k := range step.With {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, " with %s=%s", k, step.With[k])
			}
			if len(step.Invocations) > 0 {
				fmt.Fprintf(w, " runs %s", strings.Join(step.Invocations, ", "))
			}
			fmt.Fprintln(w)
		}
	case schema.DomainInventory:
		for _, gv := range schema.GroupVars() {
			fmt.Fprintf(w, "  group_vars/%s → %s\n", gv.File, gv.Domain)
		}
	}
	return nil
}
