package validator

import (
	"fmt"

	"labcheck/internal/document"
	"labcheck/internal/schema"
)

// Result holds every violation found in one document.
type Result struct {
	File   string
	Valid  bool
	Errors []error // *MissingKeyError, *TypeMismatchError or *FormatViolationError
}

// Validate checks a document against a rule list.
// It collects all violations rather than stopping at the first one.
func Validate(doc *document.Document, rules []schema.Rule) Result {
	var errs []error

	for _, rule := range rules {
		value, ok := doc.Lookup(rule.Key)
		if !ok {
			errs = append(errs, &MissingKeyError{File: doc.Path, Key: rule.Key})
			continue
		}

		if !typeMatches(value, rule.Type) {
			errs = append(errs, &TypeMismatchError{
				File: doc.Path,
				Key:  rule.Key,
				Want: rule.Type,
				Got:  value.Kind(),
			})
			continue
		}

		if value.Kind() == document.KindSequence {
			errs = append(errs, checkElements(doc.Path, rule, value.Items())...)
			continue
		}

		if s, isString := value.AsString(); isString && !rule.Format.Check(s) {
			errs = append(errs, formatViolation(doc.Path, rule.Key, s, rule))
		}
	}

	return Result{
		File:   doc.Path,
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// ValidateDomain looks up the rules of a domain and validates doc against them.
func ValidateDomain(doc *document.Document, d schema.Domain) (Result, error) {
	rules, err := schema.Rules(d)
	if err != nil {
		return Result{}, err
	}
	return Validate(doc, rules), nil
}

// checkElements applies the element type and format of a sequence rule to
// each item. Offending items are reported as key[index].
func checkElements(file string, rule schema.Rule, items []document.Value) []error {
	var errs []error
	for i, item := range items {
		key := fmt.Sprintf("%s[%d]", rule.Key, i)
		if rule.Elem != "" && !typeMatches(item, rule.Elem) {
			errs = append(errs, &TypeMismatchError{File: file, Key: key, Want: rule.Elem, Got: item.Kind()})
			continue
		}
		if s, isString := item.AsString(); isString && !rule.Format.Check(s) {
			errs = append(errs, formatViolation(file, key, s, rule))
		}
	}
	return errs
}

func formatViolation(file, key, value string, rule schema.Rule) *FormatViolationError {
	return &FormatViolationError{
		File:        file,
		Key:         key,
		Value:       value,
		Format:      rule.Format.Name,
		Description: rule.Format.Description,
		Allowed:     rule.Format.Values,
		Secret:      rule.Secret,
	}
}

func typeMatches(v document.Value, t schema.ValueType) bool {
	switch t {
	case schema.TypeAny, "":
		return true
	case schema.TypeString:
		return v.Kind() == document.KindString
	case schema.TypeBool:
		return v.Kind() == document.KindBool
	case schema.TypeInt:
		return v.Kind() == document.KindInt
	case schema.TypeNumber:
		return v.Kind() == document.KindInt || v.Kind() == document.KindFloat
	case schema.TypeSequence:
		return v.Kind() == document.KindSequence
	case schema.TypeMapping:
		return v.Kind() == document.KindMapping
	}
	return false
}
