package descriptor

import (
	"fmt"
	"strings"
)

// TypeKind is the shape of a type expression
type TypeKind int

const (
	TypeNamed TypeKind = iota
	TypeList
	TypeMap
)

// Scalars lists the built-in type keywords
var Scalars = []string{"String", "Int", "Long", "Float", "Double", "Boolean", "BigDecimal", "Time", "Bytes", "Any"}

// TypeExpr is a parsed type expression: a name, [Elem] or {Elem}
type TypeExpr struct {
	Kind TypeKind
	Name string
	Elem *TypeExpr
}

// IsScalar reports whether a named expression refers to a built-in type
func (t *TypeExpr) IsScalar() bool {
	return t.Kind == TypeNamed && IsScalar(t.Name)
}

// String renders the expression in descriptor syntax
func (t *TypeExpr) String() string {
	switch t.Kind {
	case TypeList:
		return "[" + t.Elem.String() + "]"
	case TypeMap:
		return "{" + t.Elem.String() + "}"
	default:
		return t.Name
	}
}

// MarshalText lets models serialise expressions in descriptor syntax
func (t *TypeExpr) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsScalar reports whether name is a built-in type keyword
func IsScalar(name string) bool {
	for _, s := range Scalars {
		if s == name {
			return true
		}
	}
	return false
}

// ParseTypeExpr parses descriptor type syntax
func ParseTypeExpr(s string) (*TypeExpr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type expression")
	}
	expr, rest, err := parseTypeExpr(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, fmt.Errorf("unexpected %q after type expression %q", rest, expr.String())
	}
	return expr, nil
}

func parseTypeExpr(s string) (*TypeExpr, string, error) {
	if s == "" {
		return nil, "", fmt.Errorf("missing type")
	}

	switch s[0] {
	case '[', '{':
		closer := byte(']')
		kind := TypeList
		if s[0] == '{' {
			closer = '}'
			kind = TypeMap
		}
		elem, rest, err := parseTypeExpr(strings.TrimSpace(s[1:]))
		if err != nil {
			return nil, "", err
		}
		rest = strings.TrimSpace(rest)
		if rest == "" || rest[0] != closer {
			return nil, "", fmt.Errorf("missing %q", string(closer))
		}
		return &TypeExpr{Kind: kind, Elem: elem}, strings.TrimSpace(rest[1:]), nil
	}

	end := 0
	for end < len(s) && isNameByte(s[end]) {
		end++
	}
	name := s[:end]
	if err := validateQualifiedName(name); err != nil {
		return nil, "", err
	}
	return &TypeExpr{Kind: TypeNamed, Name: name}, s[end:], nil
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func validateQualifiedName(name string) error {
	if name == "" {
		return fmt.Errorf("missing type name")
	}
	for _, part := range strings.Split(name, ".") {
		if !IsIdentifier(part) {
			return fmt.Errorf("invalid type name %q", name)
		}
	}
	return nil
}

// IsIdentifier reports whether s is a letter or underscore followed by
// letters, digits or underscores
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
