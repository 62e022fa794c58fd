package suite

import (
	"labcheck/internal/document"
	"labcheck/internal/inventory"
	"labcheck/internal/schema"
	"labcheck/internal/structure"
	"labcheck/internal/validator"
)

// CheckFile runs the checks of one domain against a single file. Load and
// parse failures are returned as violations.
func CheckFile(path string, d schema.Domain, opts document.INIOptions) []error {
	switch d {
	case schema.DomainMakefile:
		targets, err := structure.LoadPhonyTargets(path)
		if err != nil {
			return []error{loadError(path, err)}
		}
		rules, _ := schema.Rules(schema.DomainMakefile)
		return structure.CheckTargets(path, targets, rules)

	case schema.DomainMolecule:
		return checkScenario(path)

	case schema.DomainInventory:
		doc, err := document.LoadINI(path, opts)
		if err != nil {
			return []error{loadError(path, err)}
		}
		rules, _ := schema.Rules(schema.DomainInventory)
		errs := validator.Validate(doc, rules).Errors
		return append(errs, inventory.FromDocument(doc).Validate()...)
	}

	doc, err := document.LoadYAML(path)
	if err != nil {
		return []error{loadError(path, err)}
	}
	errs, err := validateDomain(doc, d)
	if err != nil {
		return []error{err}
	}
	if d == schema.DomainWorkflow {
		errs = append(errs, structure.CheckWorkflow(doc, schema.WorkflowLint(""))...)
	}
	return errs
}

// CheckRules validates a single file against an explicit rule list. The
// format follows the file extension.
func CheckRules(path string, rules []schema.Rule) []error {
	format, err := document.DetectFormat(path)
	if err != nil {
		return []error{err}
	}
	doc, err := document.Load(path, format)
	if err != nil {
		return []error{loadError(path, err)}
	}
	return validator.Validate(doc, rules).Errors
}

func checkScenario(path string) []error {
	doc, err := document.LoadYAML(path)
	if err != nil {
		return []error{loadError(path, err)}
	}

	errs, err := validateDomain(doc, schema.DomainMolecule)
	if err != nil {
		return []error{err}
	}

	if v, ok := doc.Lookup("scenario.test_sequence"); ok {
		if seq, ok := structure.Strings(v); ok {
			if err := structure.CheckSequence(path, "scenario.test_sequence", seq, schema.MoleculeTestSequence()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if v, ok := doc.Lookup("lint"); ok {
		if cmd, ok := v.AsString(); ok {
			errs = append(errs, structure.CheckInvocation(path, "lint", cmd, schema.MoleculeLintTools())...)
		}
	}
	return errs
}

func validateDomain(doc *document.Document, d schema.Domain) ([]error, error) {
	res, err := validator.ValidateDomain(doc, d)
	if err != nil {
		return nil, err
	}
	return res.Errors, nil
}
