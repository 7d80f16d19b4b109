package descriptor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	integerLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	decimalLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
)

var errNotScalar = errors.New("default values are only supported on scalar fields")

// CheckDefault reports whether value can initialise a field of type t.
// Numbers must be plain decimal literals that fit the type, so every target
// can copy them into source unchanged.
func CheckDefault(t *TypeExpr, value string) error {
	if t == nil || !t.IsScalar() {
		return errNotScalar
	}
	switch t.Name {
	case "String":
		return nil
	case "Boolean":
		if value != "true" && value != "false" {
			return fmt.Errorf("%q is not true or false", value)
		}
		return nil
	case "Int":
		return checkInteger(value, 32)
	case "Long":
		return checkInteger(value, 64)
	case "Float":
		return checkFloat(value, 32)
	case "Double":
		return checkFloat(value, 64)
	case "BigDecimal":
		if !decimalLiteral.MatchString(value) {
			return fmt.Errorf("%q is not a decimal literal", value)
		}
		return nil
	default:
		return fmt.Errorf("default values are not supported on %s fields", t.Name)
	}
}

func checkInteger(value string, bits int) error {
	if !integerLiteral.MatchString(value) {
		return fmt.Errorf("%q is not a decimal integer literal", value)
	}
	if _, err := strconv.ParseInt(value, 10, bits); err != nil {
		return fmt.Errorf("%q does not fit in a %d-bit integer", value, bits)
	}
	return nil
}

func checkFloat(value string, bits int) error {
	if !decimalLiteral.MatchString(value) {
		return fmt.Errorf("%q is not a decimal literal", value)
	}
	f, err := strconv.ParseFloat(value, bits)
	if err != nil {
		return fmt.Errorf("%q does not fit in a %d-bit float", value, bits)
	}
	// ParseFloat rounds underflow to zero without an error
	mantissa, _, _ := strings.Cut(strings.ToLower(value), "e")
	if f == 0 && strings.ContainsAny(mantissa, "123456789") {
		return fmt.Errorf("%q is too small for a %d-bit float", value, bits)
	}
	return nil
}
