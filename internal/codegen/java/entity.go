package java

import (
	"fmt"
	"strings"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/codegen/writer"
	"github.com/jxapi/jxgen/internal/model"
	"github.com/jxapi/jxgen/internal/naming"
)

type javaField struct {
	prop  *model.Property
	name  string
	pasc  string
	typ   string
	init  string
	bytes bool
}

func (g *Generator) fields(e *model.Entity, im *imports) ([]javaField, error) {
	seen := make(map[string]string)
	out := make([]javaField, 0, len(e.Properties))
	for _, p := range e.Properties {
		name := fieldName(p.Name)
		if prev, ok := seen[name]; ok {
			return nil, &codegen.UnsupportedTypeError{
				Target: g.Language(),
				Entity: e.Name,
				Field:  p.Name,
				Type:   p.Type.String(),
				Reason: fmt.Sprintf("Java field name %q collides with field %q", name, prev),
			}
		}
		seen[name] = p.Name

		f := javaField{
			prop:  p,
			name:  name,
			pasc:  naming.Pascal(p.Name),
			typ:   typeName(p.Type, im),
			bytes: isBytes(p.Type),
		}
		if f.pasc == "Class" {
			// getClass is final on Object
			f.pasc = "Class_"
		}
		if lit, ok := defaultLiteral(p.Type, p.Default, im); ok {
			f.init = lit
		}
		out = append(out, f)
	}
	return out, nil
}

// renderEntity produces a plain Java class with accessors, a builder and
// value semantics
func (g *Generator) renderEntity(e *model.Entity, opts codegen.Options) ([]byte, error) {
	im := g.newImports(e.Package, e.SimpleName, "Builder")
	objects := im.use("java.util.Objects")
	override := "@" + im.use("java.lang.Override")
	object := im.use("java.lang.Object")

	fields, err := g.fields(e, im)
	if err != nil {
		return nil, err
	}
	var arrays string
	for _, f := range fields {
		if f.bytes {
			arrays = im.use("java.util.Arrays")
		}
	}
	generated := im.use("javax.annotation.processing.Generated")

	body := writer.New(indent)
	body.DocBlock(e.Description, sourceLink(e.Source, opts))
	body.Linef("@%s(%s)", generated, stringLiteral(generatorName))
	body.Block(fmt.Sprintf("public class %s {", e.SimpleName), "}", func() {
		body.BlankLine()
		for _, f := range fields {
			if f.init != "" {
				body.Linef("private %s %s = %s;", f.typ, f.name, f.init)
			} else {
				body.Linef("private %s %s;", f.typ, f.name)
			}
		}
		body.BlankLine()
		body.Block(fmt.Sprintf("public %s() {", e.SimpleName), "}", func() {})

		for _, f := range fields {
			body.BlankLine()
			doc := f.prop.Description
			if f.prop.Required {
				doc = strings.TrimSpace(doc + "\nRequired.")
			}
			body.DocBlock(doc, "@return the "+f.prop.Name)
			body.Block(fmt.Sprintf("public %s get%s() {", f.typ, f.pasc), "}", func() {
				body.Linef("return %s;", f.name)
			})
			body.BlankLine()
			body.Block(fmt.Sprintf("public void set%s(%s %s) {", f.pasc, f.typ, f.name), "}", func() {
				body.Linef("this.%s = %s;", f.name, f.name)
			})
		}

		body.BlankLine()
		body.Block("public static Builder builder() {", "}", func() {
			body.Line("return new Builder();")
		})

		body.BlankLine()
		body.Line(override)
		body.Block(fmt.Sprintf("public boolean equals(%s o) {", object), "}", func() {
			body.Block("if (this == o) {", "}", func() { body.Line("return true;") })
			body.Block("if (o == null || getClass() != o.getClass()) {", "}", func() { body.Line("return false;") })
			if len(fields) == 0 {
				body.Line("return true;")
				return
			}
			body.Linef("%s that = (%s) o;", e.SimpleName, e.SimpleName)
			for i, f := range fields {
				cmp := fmt.Sprintf("%s.equals(%s, that.%s)", objects, f.name, f.name)
				if f.bytes {
					cmp = fmt.Sprintf("%s.equals(%s, that.%s)", arrays, f.name, f.name)
				}
				switch {
				case i == 0 && len(fields) == 1:
					body.Linef("return %s;", cmp)
				case i == 0:
					body.Linef("return %s", cmp)
				case i == len(fields)-1:
					body.Linef("    && %s;", cmp)
				default:
					body.Linef("    && %s", cmp)
				}
			}
		})

		body.BlankLine()
		body.Line(override)
		body.Block("public int hashCode() {", "}", func() {
			args := make([]string, len(fields))
			for i, f := range fields {
				args[i] = f.name
				if f.bytes {
					args[i] = fmt.Sprintf("%s.hashCode(%s)", arrays, f.name)
				}
			}
			body.Linef("return %s.hash(%s);", objects, strings.Join(args, ", "))
		})

		body.BlankLine()
		body.Line(override)
		body.Block("public String toString() {", "}", func() {
			if len(fields) == 0 {
				body.Linef("return %s;", stringLiteral(e.SimpleName+"{}"))
				return
			}
			body.Linef("return %s", stringLiteral(e.SimpleName+"{"))
			for i, f := range fields {
				sep := ", "
				if i == 0 {
					sep = ""
				}
				value := f.name
				if f.bytes {
					value = fmt.Sprintf("%s.toString(%s)", arrays, f.name)
				}
				body.Linef("    + %s + %s", stringLiteral(sep+f.prop.Name+"="), value)
			}
			body.Line(`    + "}";`)
		})

		body.BlankLine()
		body.Block("public static final class Builder {", "}", func() {
			body.BlankLine()
			for _, f := range fields {
				if f.init != "" {
					body.Linef("private %s %s = %s;", f.typ, f.name, f.init)
				} else {
					body.Linef("private %s %s;", f.typ, f.name)
				}
			}
			body.BlankLine()
			body.Block("private Builder() {", "}", func() {})
			for _, f := range fields {
				body.BlankLine()
				body.Block(fmt.Sprintf("public Builder %s(%s %s) {", f.name, f.typ, f.name), "}", func() {
					body.Linef("this.%s = %s;", f.name, f.name)
					body.Line("return this;")
				})
			}
			body.BlankLine()
			body.Block(fmt.Sprintf("public %s build() {", e.SimpleName), "}", func() {
				for _, f := range fields {
					if f.prop.Required {
						body.Linef("%s.requireNonNull(%s, %s);", objects, f.name, stringLiteral(f.prop.Name+" is required"))
					}
				}
				body.Linef("%s result = new %s();", e.SimpleName, e.SimpleName)
				for _, f := range fields {
					body.Linef("result.%s = %s;", f.name, f.name)
				}
				body.Line("return result;")
			})
		})
	})

	return assemble(e.Package, im, body), nil
}

// renderEntityTest produces a JUnit 5 skeleton exercising the builder and
// value semantics of an entity
func (g *Generator) renderEntityTest(e *model.Entity) []byte {
	im := g.newImports(e.Package, e.SimpleName, e.SimpleName+"Test")
	assertions := im.use("org.junit.jupiter.api.Assertions")
	test := im.use("org.junit.jupiter.api.Test")
	sample := sampleValue(&model.Type{Kind: model.KindEntity, Entity: e}, im)

	body := writer.New(indent)
	body.Block(fmt.Sprintf("class %sTest {", e.SimpleName), "}", func() {
		body.BlankLine()
		body.Linef("@%s", test)
		body.Block("void testBuilderAndEquality() {", "}", func() {
			body.Linef("%s first = %s;", e.SimpleName, sample)
			body.Linef("%s second = %s;", e.SimpleName, sample)
			body.Linef("%s.assertEquals(first, second);", assertions)
			body.Linef("%s.assertEquals(first.hashCode(), second.hashCode());", assertions)
			body.Linef("%s.assertTrue(first.toString().startsWith(%s));", assertions, stringLiteral(e.SimpleName+"{"))
		})
	})
	return assemble(e.Package, im, body)
}

// assemble prefixes a rendered body with its package and imports
func assemble(pkg string, im *imports, body *writer.Writer) []byte {
	w := writer.New(indent)
	w.Linef("package %s;", pkg)
	w.BlankLine()
	if lines := im.list(); len(lines) > 0 {
		for _, imp := range lines {
			w.Linef("import %s;", imp)
		}
		w.BlankLine()
	}
	w.Write(body.String())
	return w.Bytes()
}

// classPath maps a package and class to its source path
func classPath(pkg, class string) string {
	if pkg == "" {
		return class + ".java"
	}
	return naming.PackagePath(pkg) + "/" + class + ".java"
}
