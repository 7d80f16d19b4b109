// Package java renders resolved models into Java sources: value classes for
// entities, interfaces for exchanges and their APIs, and JUnit 5 skeletons.
package java

import (
	"fmt"
	"strings"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/model"
	"github.com/jxapi/jxgen/internal/naming"
)

const (
	indent        = "    "
	generatorName = "jxgen"
)

// Generator generates Java code from a resolved model
type Generator struct {
	// locals holds the simple class names declared in each package
	locals map[string]map[string]bool
}

// NewGenerator creates a new Java code generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Language returns the name of the target language
func (g *Generator) Language() string {
	return "java"
}

// FileExtension returns the file extension for generated files
func (g *Generator) FileExtension() string {
	return ".java"
}

// Generate renders one class per emitted entity. In exchange mode it also
// renders the exchange and API interfaces and, when requested, test
// skeletons under the test root. POJO mode never produces test units.
func (g *Generator) Generate(m *model.Model, opts codegen.Options) ([]codegen.Unit, error) {
	tests := opts.IncludeTests && m.Mode == model.ModeExchange
	g.locals = make(map[string]map[string]bool)
	for _, e := range m.Entities {
		if g.locals[e.Package] == nil {
			g.locals[e.Package] = make(map[string]bool)
		}
		g.locals[e.Package][e.SimpleName] = true
	}

	var units []codegen.Unit
	for _, e := range m.EmittedEntities() {
		if err := g.checkClassName(e); err != nil {
			return nil, err
		}
		content, err := g.renderEntity(e, opts)
		if err != nil {
			return nil, err
		}
		units = append(units, codegen.Unit{
			Path:    classPath(e.Package, e.SimpleName),
			Root:    codegen.MainRoot,
			Content: content,
			Origin:  e.Name,
		})
		if tests {
			units = append(units, codegen.Unit{
				Path:    classPath(e.Package, e.SimpleName+"Test"),
				Root:    codegen.TestRoot,
				Content: g.renderEntityTest(e),
				Origin:  e.Name,
			})
		}
	}

	if m.Mode == model.ModeExchange {
		for _, x := range m.Exchanges {
			units = append(units, codegen.Unit{
				Path:    classPath(x.Package, exchangeClass(x)),
				Root:    codegen.MainRoot,
				Content: g.renderExchange(x, opts),
				Origin:  x.Name,
			})
			if tests {
				units = append(units, codegen.Unit{
					Path:    classPath(x.Package, exchangeClass(x)+"Test"),
					Root:    codegen.TestRoot,
					Content: g.renderExchangeTest(x),
					Origin:  x.Name,
				})
			}

			for _, api := range x.Apis {
				units = append(units, codegen.Unit{
					Path:    classPath(x.Package, apiClass(x, api)),
					Root:    codegen.MainRoot,
					Content: g.renderApi(x, api, opts),
					Origin:  x.Name,
				})
				if tests {
					units = append(units, codegen.Unit{
						Path:    classPath(x.Package, apiClass(x, api)+"Test"),
						Root:    codegen.TestRoot,
						Content: g.renderApiTest(x, api),
						Origin:  x.Name,
					})
				}
			}
		}
	}

	codegen.SortUnits(units)
	return units, nil
}

// checkClassName rejects entities that cannot be declared as a Java class
func (g *Generator) checkClassName(e *model.Entity) error {
	unsupported := func(reason string) error {
		return &codegen.UnsupportedTypeError{Target: g.Language(), Entity: e.Name, Type: e.SimpleName, Reason: reason}
	}
	if keywords[e.SimpleName] {
		return unsupported(fmt.Sprintf("%q is a Java keyword", e.SimpleName))
	}
	if e.SimpleName == "Builder" {
		return unsupported("Builder is the name of the nested builder class")
	}
	for _, segment := range strings.Split(e.Package, ".") {
		if keywords[segment] {
			return unsupported(fmt.Sprintf("package segment %q is a Java keyword", segment))
		}
	}
	return nil
}

func (g *Generator) newImports(pkg string, reserved ...string) *imports {
	return newImports(pkg, g.locals[pkg], reserved...)
}

func exchangeClass(x *model.Exchange) string {
	return model.ExchangeInterface(x.ID)
}

func apiClass(x *model.Exchange, api *model.Api) string {
	return model.ApiInterface(x.ID, api.Name)
}

// sourceLink points generated javadoc back at the descriptor it came from
func sourceLink(src descriptor.Source, opts codegen.Options) string {
	if opts.BaseSrcURL == "" || src.File == "" {
		return ""
	}
	url := strings.TrimRight(opts.BaseSrcURL, "/") + "/" + src.File
	if src.Line > 0 {
		url += fmt.Sprintf("#L%d", src.Line)
	}
	return fmt.Sprintf(`@see <a href="%s">Descriptor source</a>`, url)
}

// javadocLink links to the published javadoc page of an entity
func javadocLink(e *model.Entity, opts codegen.Options) string {
	if opts.BaseJavaDocURL == "" {
		return ""
	}
	return fmt.Sprintf(`<a href="%s/%s/%s.html">%s</a>`,
		strings.TrimRight(opts.BaseJavaDocURL, "/"), naming.PackagePath(e.Package), e.SimpleName, e.SimpleName)
}

func docLink(url, label string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf(`@see <a href="%s">%s</a>`, url, label)
}
