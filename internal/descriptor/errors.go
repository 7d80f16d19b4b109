package descriptor

import "fmt"

// ParseError reports a malformed descriptor. Field is a slash separated path
// to the offending element when one is known.
type ParseError struct {
	File    string
	Line    int
	Field   string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("descriptor %s: %s: %s", loc, e.Field, msg)
	}
	return fmt.Sprintf("descriptor %s: %s", loc, msg)
}

// Unwrap returns the underlying cause
func (e *ParseError) Unwrap() error {
	return e.Err
}
