package java

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jxapi/jxgen/internal/model"
	"github.com/jxapi/jxgen/internal/naming"
)

var keywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "record": true, "var": true, "yield": true,
}

// fieldName returns the camelCase Java identifier for a descriptor field
func fieldName(name string) string {
	n := naming.Camel(name)
	if keywords[n] {
		return n + "_"
	}
	return n
}

// imports tracks the classes a compilation unit refers to. Simple names
// are reserved on first use; later classes with the same simple name are
// referenced by their fully-qualified name. java.lang classes are never
// imported, so a same-package class with the same simple name forces the
// fully-qualified form.
type imports struct {
	pkg    string
	local  map[string]bool
	byName map[string]string
}

func newImports(pkg string, local map[string]bool, reserved ...string) *imports {
	im := &imports{pkg: pkg, local: local, byName: make(map[string]string)}
	for _, r := range reserved {
		im.byName[r] = pkg + "." + r
	}
	return im
}

// use returns the name to write for a fully-qualified class
func (im *imports) use(fqcn string) string {
	pkg, simple := "", fqcn
	if i := strings.LastIndex(fqcn, "."); i >= 0 {
		pkg, simple = fqcn[:i], fqcn[i+1:]
	}
	if pkg == "java.lang" && im.local[simple] {
		return fqcn
	}
	if prev, ok := im.byName[simple]; ok {
		if prev == fqcn {
			return simple
		}
		return fqcn
	}
	im.byName[simple] = fqcn
	return simple
}

// list returns import lines in sorted order, skipping java.lang and the
// unit's own package
func (im *imports) list() []string {
	var out []string
	for _, fqcn := range im.byName {
		pkg := fqcn[:max(strings.LastIndex(fqcn, "."), 0)]
		if pkg == im.pkg || pkg == "java.lang" || pkg == "" {
			continue
		}
		out = append(out, fqcn)
	}
	sort.Strings(out)
	return out
}

var scalarClasses = map[string]string{
	"String":     "java.lang.String",
	"Int":        "java.lang.Integer",
	"Long":       "java.lang.Long",
	"Float":      "java.lang.Float",
	"Double":     "java.lang.Double",
	"Boolean":    "java.lang.Boolean",
	"BigDecimal": "java.math.BigDecimal",
	"Time":       "java.time.Instant",
	"Any":        "java.lang.Object",
}

// typeName renders a resolved type as a Java type, registering imports
func typeName(t *model.Type, im *imports) string {
	switch t.Kind {
	case model.KindList:
		return im.use("java.util.List") + "<" + typeName(t.Elem, im) + ">"
	case model.KindMap:
		return im.use("java.util.Map") + "<String, " + typeName(t.Elem, im) + ">"
	case model.KindEntity:
		return im.use(t.Entity.Package + "." + t.Entity.SimpleName)
	}
	if t.Scalar == "Bytes" {
		return "byte[]"
	}
	return im.use(scalarClasses[t.Scalar])
}

func isBytes(t *model.Type) bool {
	return t.Kind == model.KindScalar && t.Scalar == "Bytes"
}

// stringLiteral quotes s as a Java string literal
func stringLiteral(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == utf8.RuneError {
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// defaultLiteral converts a descriptor default into a Java expression.
// Defaults are checked by the descriptor loader, so numeric values are
// already plain decimal literals in range. Types without a literal form
// report false.
func defaultLiteral(t *model.Type, value string, im *imports) (string, bool) {
	if value == "" || t.Kind != model.KindScalar {
		return "", false
	}
	switch t.Scalar {
	case "String":
		return stringLiteral(value), true
	case "Int", "Boolean":
		return value, true
	case "Long":
		return value + "L", true
	case "Float":
		return value + "f", true
	case "Double":
		return value + "d", true
	case "BigDecimal":
		return "new " + im.use("java.math.BigDecimal") + "(" + stringLiteral(value) + ")", true
	}
	return "", false
}

// sampleValue produces a non-null expression of type t for test skeletons
func sampleValue(t *model.Type, im *imports) string {
	switch t.Kind {
	case model.KindList:
		return im.use("java.util.List") + ".of()"
	case model.KindMap:
		return im.use("java.util.Map") + ".of()"
	case model.KindEntity:
		return im.use(t.Entity.Package+"."+t.Entity.SimpleName) + ".builder()" + requiredSetters(t.Entity, im) + ".build()"
	}
	switch t.Scalar {
	case "String", "Any":
		return `"value"`
	case "Int":
		return "1"
	case "Long":
		return "1L"
	case "Float":
		return "1f"
	case "Double":
		return "1d"
	case "Boolean":
		return "true"
	case "BigDecimal":
		return im.use("java.math.BigDecimal") + ".ONE"
	case "Time":
		return im.use("java.time.Instant") + ".EPOCH"
	case "Bytes":
		return "new byte[] {1}"
	}
	return "null"
}

// requiredSetters chains builder calls for every required property
func requiredSetters(e *model.Entity, im *imports) string {
	var sb strings.Builder
	for _, p := range e.Properties {
		if !p.Required {
			continue
		}
		fmt.Fprintf(&sb, ".%s(%s)", fieldName(p.Name), sampleValue(p.Type, im))
	}
	return sb.String()
}
