package validator

import (
	"fmt"

	"labcheck/internal/document"
	"labcheck/internal/schema"
)

const redacted = "<redacted>"

// MissingKeyError reports a required key that is absent.
type MissingKeyError struct {
	File string
	Key  string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: %s: required key is missing", e.File, e.Key)
}

func (e *MissingKeyError) Kind() string     { return "missing_key" }
func (e *MissingKeyError) Filename() string { return e.File }

// TypeMismatchError reports a key whose value has the wrong type.
type TypeMismatchError struct {
	File string
	Key  string
	Want schema.ValueType
	Got  document.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: expected %s, got %s", e.File, e.Key, e.Want, e.Got)
}

func (e *TypeMismatchError) Kind() string     { return "type_mismatch" }
func (e *TypeMismatchError) Filename() string { return e.File }

// FormatViolationError reports a string value rejected by a format predicate.
type FormatViolationError struct {
	File        string
	Key         string
	Value       string
	Format      string   // format name
	Description string   // e.g. "must start with /"
	Allowed     []string // for enumerations
	Secret      bool     // Value is withheld from messages
}

func (e *FormatViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, FormatError(e))
}

func (e *FormatViolationError) Kind() string     { return "format_violation" }
func (e *FormatViolationError) Filename() string { return e.File }

// DisplayValue returns the offending value, or a placeholder for secrets.
func (e *FormatViolationError) DisplayValue() string {
	if e.Secret {
		return redacted
	}
	return e.Value
}

// FormatError renders a violation without its file prefix.
func FormatError(err error) string {
	switch e := err.(type) {
	case *MissingKeyError:
		return fmt.Sprintf("%s: required but not set", e.Key)
	case *TypeMismatchError:
		return fmt.Sprintf("%s: expected %s, got %s", e.Key, e.Want, e.Got)
	case *FormatViolationError:
		return fmt.Sprintf("%s: '%s' is not valid, %s", e.Key, e.DisplayValue(), e.Description)
	}
	return err.Error()
}

// FormatErrors renders every violation of a result.
func FormatErrors(result Result) []string {
	messages := make([]string, len(result.Errors))
	for i, err := range result.Errors {
		messages[i] = FormatError(err)
	}
	return messages
}
