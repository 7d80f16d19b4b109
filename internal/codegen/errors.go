package codegen

import "fmt"

// UnsupportedTypeError is returned when a target cannot express a resolved
// type or name
type UnsupportedTypeError struct {
	Target string
	Entity string
	Field  string
	Type   string
	Reason string
}

func (e *UnsupportedTypeError) Error() string {
	where := e.Entity
	if e.Field != "" {
		where += "." + e.Field
	}
	return fmt.Sprintf("%s target cannot render %s (type %s): %s", e.Target, where, e.Type, e.Reason)
}
