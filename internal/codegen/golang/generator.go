// Package golang renders resolved models into a single flat Go package:
// structs with JSON tags for entities and interfaces for exchange APIs.
package golang

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/codegen/writer"
	"github.com/jxapi/jxgen/internal/model"
	"github.com/jxapi/jxgen/internal/naming"
)

// DefaultPackage is used when no package name is configured
const DefaultPackage = "jxapi"

const header = "// Code generated by jxgen. DO NOT EDIT."

// Generator generates Go code from a resolved model
type Generator struct {
	packageName string
	imports     map[string]bool
}

// NewGenerator creates a new Go code generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Language returns the name of the target language
func (g *Generator) Language() string {
	return "go"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".go"
}

// Generate renders one file per entity and one per exchange into a single
// package. Go has no shared classpath, so in exchange mode external entities
// reachable from the exchange are rendered alongside it.
func (g *Generator) Generate(m *model.Model, opts codegen.Options) ([]codegen.Unit, error) {
	g.packageName = opts.PackageName
	if g.packageName == "" {
		g.packageName = DefaultPackage
	}

	entities := renderedEntities(m)
	if err := g.checkNames(m, entities); err != nil {
		return nil, err
	}

	var units []codegen.Unit
	for _, e := range entities {
		content, err := g.format(entityFile(e), func(w *writer.Writer) {
			g.generateStruct(w, e)
		})
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", e.Name, err)
		}
		units = append(units, codegen.Unit{
			Path:    g.packageName + "/" + entityFile(e),
			Root:    codegen.MainRoot,
			Content: content,
			Origin:  e.Name,
		})
	}

	if m.Mode == model.ModeExchange {
		for _, x := range m.Exchanges {
			content, err := g.format(exchangeFile(x), func(w *writer.Writer) {
				g.generateExchange(w, x)
			})
			if err != nil {
				return nil, fmt.Errorf("rendering %s: %w", x.Name, err)
			}
			units = append(units, codegen.Unit{
				Path:    g.packageName + "/" + exchangeFile(x),
				Root:    codegen.MainRoot,
				Content: content,
				Origin:  x.Name,
			})

			if !opts.IncludeTests {
				continue
			}
			content, err = g.format(exchangeTestFile(x), func(w *writer.Writer) {
				g.generateExchangeTest(w, x)
			})
			if err != nil {
				return nil, fmt.Errorf("rendering %s test: %w", x.Name, err)
			}
			units = append(units, codegen.Unit{
				Path:    g.packageName + "/" + exchangeTestFile(x),
				Root:    codegen.TestRoot,
				Content: content,
				Origin:  x.Name,
			})
		}
	}

	codegen.SortUnits(units)
	return units, nil
}

// renderedEntities returns emitted entities plus, in exchange mode, the
// external entities they transitively reference
func renderedEntities(m *model.Model) []*model.Entity {
	seen := make(map[*model.Entity]bool)
	var out []*model.Entity
	var visit func(e *model.Entity)
	visit = func(e *model.Entity) {
		if seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
		for _, p := range e.Properties {
			for _, dep := range p.Type.Entities() {
				visit(dep)
			}
		}
	}

	for _, e := range m.EmittedEntities() {
		visit(e)
	}
	for _, x := range m.Exchanges {
		for _, api := range x.Apis {
			for _, ep := range api.Endpoints() {
				for _, t := range []*model.Type{ep.Request, ep.Response} {
					if t == nil {
						continue
					}
					for _, e := range t.Entities() {
						visit(e)
					}
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// checkNames rejects models whose entities cannot share one Go package,
// either because two Go identifiers or two file names would collide
func (g *Generator) checkNames(m *model.Model, entities []*model.Entity) error {
	owners := make(map[string]string)
	files := make(map[string]string)
	claim := func(goName, file, owner string) error {
		if prev, ok := owners[goName]; ok {
			return &codegen.UnsupportedTypeError{
				Target: g.Language(),
				Entity: owner,
				Type:   goName,
				Reason: fmt.Sprintf("Go name collides with %s in package %s", prev, g.packageName),
			}
		}
		if prev, ok := files[file]; ok {
			return &codegen.UnsupportedTypeError{
				Target: g.Language(),
				Entity: owner,
				Type:   goName,
				Reason: fmt.Sprintf("file %s/%s is also generated for %s", g.packageName, file, prev),
			}
		}
		owners[goName] = owner
		if file != "" {
			files[file] = owner
		}
		return nil
	}

	for _, e := range entities {
		if err := claim(typeName(e), entityFile(e), e.Name); err != nil {
			return err
		}
		fields := make(map[string]string)
		for _, p := range e.Properties {
			name := naming.Pascal(p.Name)
			if prev, ok := fields[name]; ok {
				return &codegen.UnsupportedTypeError{
					Target: g.Language(),
					Entity: e.Name,
					Field:  p.Name,
					Type:   p.Type.String(),
					Reason: fmt.Sprintf("Go field name %s collides with field %s", name, prev),
				}
			}
			fields[name] = p.Name
		}
	}
	if m.Mode != model.ModeExchange {
		return nil
	}
	for _, x := range m.Exchanges {
		if err := claim(exchangeName(x), exchangeFile(x), x.Name); err != nil {
			return err
		}
		for _, api := range x.Apis {
			if err := claim(apiName(x, api), "", x.Name+"."+api.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// format renders a file body, prepends the header, package clause and the
// collected imports, then runs goimports over the result
func (g *Generator) format(filename string, body func(w *writer.Writer)) ([]byte, error) {
	g.imports = make(map[string]bool)

	content := writer.New("\t")
	body(content)

	w := writer.New("\t")
	w.Line(header)
	w.BlankLine()
	w.Linef("package %s", g.packageName)
	w.BlankLine()

	if len(g.imports) > 0 {
		paths := make([]string, 0, len(g.imports))
		for imp := range g.imports {
			paths = append(paths, imp)
		}
		sort.Strings(paths)
		w.Block("import (", ")", func() {
			for _, imp := range paths {
				w.Linef("%q", imp)
			}
		})
		w.BlankLine()
	}
	w.Write(content.String())

	return imports.Process(filename, w.Bytes(), nil)
}

// goFile names a generated file. The _gen suffix keeps descriptor names
// such as SpeedTest or FeedLinux clear of the _test and GOOS/GOARCH file
// name rules of the go tool.
func goFile(base string) string {
	return base + "_gen.go"
}

func entityFile(e *model.Entity) string {
	return goFile(naming.Snake(e.SimpleName))
}

func exchangeFile(x *model.Exchange) string {
	return goFile(naming.Snake(x.ID) + "_exchange")
}

func exchangeTestFile(x *model.Exchange) string {
	return naming.Snake(x.ID) + "_exchange_test.go"
}

func typeName(e *model.Entity) string {
	return naming.Pascal(e.SimpleName)
}

func exchangeName(x *model.Exchange) string {
	return model.ExchangeInterface(x.ID)
}

func apiName(x *model.Exchange, api *model.Api) string {
	return model.ApiInterface(x.ID, api.Name)
}

// generateStruct generates a Go struct for an entity
func (g *Generator) generateStruct(w *writer.Writer, e *model.Entity) {
	name := typeName(e)
	if e.Description != "" {
		w.LineComment("//", e.Description)
	} else {
		w.Linef("// %s is generated from %s", name, e.Name)
	}

	w.Block(fmt.Sprintf("type %s struct {", name), "}", func() {
		for _, p := range e.Properties {
			w.LineComment("//", p.Description)
			w.Linef("%s %s `json:\"%s\"`", naming.Pascal(p.Name), g.mapToGoType(p.Type, p.Required), jsonTag(p))
		}
	})
}

// generateExchange generates the exchange interface, one interface per API
// and the endpoint metadata constants
func (g *Generator) generateExchange(w *writer.Writer, x *model.Exchange) {
	for _, api := range x.Apis {
		if len(api.Endpoints()) > 0 {
			g.imports["context"] = true
		}
	}

	name := exchangeName(x)
	if x.Description != "" {
		w.LineComment("//", x.Description)
	} else {
		w.Linef("// %s is the %s exchange", name, x.ID)
	}
	if x.DocURL != "" {
		w.Line("//")
		w.Linef("// Documentation: %s", x.DocURL)
	}
	w.Block(fmt.Sprintf("type %s interface {", name), "}", func() {
		for _, api := range x.Apis {
			w.Linef("%s() %s", naming.Pascal(api.Name), apiName(x, api))
		}
	})
	w.BlankLine()

	w.Linef("// %sID identifies the %s exchange", name, x.ID)
	w.Linef("const %sID = %s", name, strconv.Quote(x.ID))

	for _, api := range x.Apis {
		w.BlankLine()
		g.generateApi(w, x, api)
	}
}

func (g *Generator) generateApi(w *writer.Writer, x *model.Exchange, api *model.Api) {
	prefix := naming.Pascal(x.ID) + naming.Pascal(api.Name)

	w.Block("const (", ")", func() {
		w.Linef("%sName = %s", prefix, strconv.Quote(api.Name))
		if api.BaseURL != "" {
			w.Linef("%sBaseURL = %s", prefix, strconv.Quote(api.BaseURL))
		}
		for _, c := range endpointConstants(prefix, api) {
			w.Linef("%s = %s", c.name, strconv.Quote(c.value))
		}
	})
	w.BlankLine()

	name := apiName(x, api)
	if api.Description != "" {
		w.LineComment("//", api.Description)
	} else {
		w.Linef("// %s defines the %s API", name, api.Name)
	}
	w.Block(fmt.Sprintf("type %s interface {", name), "}", func() {
		for i, ep := range api.Endpoints() {
			if i > 0 {
				w.BlankLine()
			}
			w.LineComment("//", ep.Description)
			if ep.DocURL != "" {
				w.Linef("// Documentation: %s", ep.DocURL)
			}

			params := []string{"ctx context.Context"}
			if ep.Request != nil {
				params = append(params, "request "+g.paramType(ep.Request))
			}

			if ep.Kind == model.EndpointRest {
				result := "error"
				if ep.Response != nil {
					result = fmt.Sprintf("(%s, error)", g.paramType(ep.Response))
				}
				w.Linef("%s(%s) %s", naming.Pascal(ep.Name), strings.Join(params, ", "), result)
				continue
			}

			message := "any"
			if ep.Response != nil {
				message = g.mapToGoType(ep.Response, true)
			}
			params = append(params, fmt.Sprintf("handler func(%s)", message))
			w.Linef("Subscribe%s(%s) (unsubscribe func(), err error)", naming.Pascal(ep.Name), strings.Join(params, ", "))
		}
	})
}

type constant struct {
	name  string
	value string
}

func endpointConstants(prefix string, api *model.Api) []constant {
	var out []constant
	for _, ep := range api.Endpoints() {
		base := prefix + naming.Pascal(ep.Name)
		if ep.Kind == model.EndpointRest {
			out = append(out, constant{base + "Method", ep.Method}, constant{base + "Path", ep.Path})
		} else {
			out = append(out, constant{base + "Topic", ep.Topic})
		}
	}
	return out
}

// generateExchangeTest checks the endpoint metadata constants
func (g *Generator) generateExchangeTest(w *writer.Writer, x *model.Exchange) {
	g.imports["testing"] = true

	for i, api := range x.Apis {
		if i > 0 {
			w.BlankLine()
		}
		prefix := naming.Pascal(x.ID) + naming.Pascal(api.Name)
		w.Block(fmt.Sprintf("func Test%sApiMetadata(t *testing.T) {", prefix), "}", func() {
			w.Block("tests := []struct {", "}{", func() {
				w.Line("name string")
				w.Line("got  string")
				w.Line("want string")
			})
			w.Indent()
			w.Linef("{%s, %sName, %s},", strconv.Quote(prefix+"Name"), prefix, strconv.Quote(api.Name))
			for _, c := range endpointConstants(prefix, api) {
				w.Linef("{%s, %s, %s},", strconv.Quote(c.name), c.name, strconv.Quote(c.value))
			}
			w.Dedent()
			w.Line("}")
			w.BlankLine()
			w.Block("for _, tt := range tests {", "}", func() {
				w.Block("if tt.got != tt.want {", "}", func() {
					w.Line(`t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)`)
				})
			})
		})
	}
}

// paramType is the Go type used for endpoint parameters and results;
// entities are passed by pointer
func (g *Generator) paramType(t *model.Type) string {
	if t.Kind == model.KindEntity {
		return "*" + typeName(t.Entity)
	}
	return g.mapToGoType(t, true)
}

// mapToGoType maps resolved types to Go types. Optional scalars and
// entities become pointers; slices, maps and byte slices are already
// nil-able.
func (g *Generator) mapToGoType(t *model.Type, required bool) string {
	switch t.Kind {
	case model.KindList:
		return "[]" + g.mapToGoType(t.Elem, true)
	case model.KindMap:
		return "map[string]" + g.mapToGoType(t.Elem, true)
	case model.KindEntity:
		if !required {
			return "*" + typeName(t.Entity)
		}
		return typeName(t.Entity)
	}

	var goType string
	switch t.Scalar {
	case "String":
		goType = "string"
	case "Int":
		goType = "int32"
	case "Long":
		goType = "int64"
	case "Float":
		goType = "float32"
	case "Double":
		goType = "float64"
	case "Boolean":
		goType = "bool"
	case "BigDecimal":
		g.imports["encoding/json"] = true
		goType = "json.Number"
	case "Time":
		g.imports["time"] = true
		goType = "time.Time"
	case "Bytes":
		return "[]byte"
	case "Any":
		return "any"
	}
	if !required {
		return "*" + goType
	}
	return goType
}

// jsonTag keeps the descriptor field name on the wire
func jsonTag(p *model.Property) string {
	tag := p.Name
	if !p.Required {
		tag += ",omitempty"
	}
	return tag
}
