package cli

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"labcheck/internal/document"
	"labcheck/internal/report"
	"labcheck/internal/schema"
	"labcheck/internal/suite"
)

func newValidateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a single file against a domain or a rule file",
		Long: `Validate one file outside the project layout, either against a built-in
domain or against the rules of a YAML rule file. Run 'labcheck schema' to
list the domains.

Examples:
  labcheck validate --domain runner group_vars/runners.yml
  labcheck validate --domain inventory inventories/staging.ini
  labcheck validate --rules rules/site.yml group_vars/site.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, _ := cmd.Flags().GetString("domain")
			rulesFile, _ := cmd.Flags().GetString("rules")
			return a.runValidate(args[0], domain, rulesFile)
		},
	}

	cmd.Flags().StringP("domain", "d", "", "built-in domain to validate against")
	cmd.Flags().String("rules", "", "YAML rule file to validate against instead of a domain")
	cmd.Flags().Bool("strict", false, "reject inventory groups declared more than once")
	cmd.MarkFlagsMutuallyExclusive("domain", "rules")
	cmd.MarkFlagsOneRequired("domain", "rules")
	return cmd
}

func (a *app) runValidate(path, domain, rulesFile string) error {
	var name string
	var errs []error

	if rulesFile != "" {
		rules, err := schema.LoadRuleFile(rulesFile)
		if errors.Is(err, fs.ErrNotExist) {
			return failure("rule file not found: %s", rulesFile)
		}
		if err != nil {
			return failure("invalid rule file %s: %w", rulesFile, err)
		}
		name = "rules " + filepath.Base(rulesFile)
		errs = suite.CheckRules(path, rules)
	} else {
		d, err := schema.ParseDomain(domain)
		if err != nil {
			return usageError("%w", err)
		}
		name = string(d)
		errs = suite.CheckFile(path, d, document.INIOptions{Strict: a.cfg.Inventory.Strict})
	}

	rep := report.New("")
	rep.Add(name, path, errs)
	return a.printReport(rep)
}
