package document

import "fmt"

// ParseError reports a source file that could not be parsed.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind returns the error category used in reports.
func (e *ParseError) Kind() string { return "parse" }

func (e *ParseError) Filename() string { return e.File }
