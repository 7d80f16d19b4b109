package java

import (
	"fmt"
	"strings"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/codegen/writer"
	"github.com/jxapi/jxgen/internal/model"
	"github.com/jxapi/jxgen/internal/naming"
)

func (g *Generator) renderExchange(x *model.Exchange, opts codegen.Options) []byte {
	class := exchangeClass(x)
	im := g.newImports(x.Package, class)
	generated := im.use("javax.annotation.processing.Generated")

	body := writer.New(indent)
	body.DocBlock(x.Description, docLink(x.DocURL, "API documentation"), sourceLink(x.Source, opts))
	body.Linef("@%s(%s)", generated, stringLiteral(generatorName))
	body.Block(fmt.Sprintf("public interface %s {", class), "}", func() {
		body.BlankLine()
		body.DocBlock("Exchange identifier.")
		body.Linef("String ID = %s;", stringLiteral(x.ID))
		for _, api := range x.Apis {
			body.BlankLine()
			body.DocBlock(api.Description, "@return the "+api.Name+" API")
			body.Linef("%s get%sApi();", apiClass(x, api), naming.Pascal(api.Name))
		}
	})
	return assemble(x.Package, im, body)
}

func (g *Generator) renderApi(x *model.Exchange, api *model.Api, opts codegen.Options) []byte {
	class := apiClass(x, api)
	im := g.newImports(x.Package, class)
	generated := im.use("javax.annotation.processing.Generated")

	body := writer.New(indent)
	body.DocBlock(api.Description, docLink(api.DocURL, "API documentation"), sourceLink(api.Source, opts))
	body.Linef("@%s(%s)", generated, stringLiteral(generatorName))
	body.Block(fmt.Sprintf("public interface %s {", class), "}", func() {
		body.BlankLine()
		body.Linef("String NAME = %s;", stringLiteral(api.Name))
		if api.BaseURL != "" {
			body.Linef("String BASE_URL = %s;", stringLiteral(api.BaseURL))
		}

		for _, ep := range api.Endpoints() {
			body.BlankLine()
			prefix := naming.Constant(ep.Name)
			if ep.Kind == model.EndpointRest {
				body.Linef("String %s_METHOD = %s;", prefix, stringLiteral(ep.Method))
				body.Linef("String %s_PATH = %s;", prefix, stringLiteral(ep.Path))
			} else {
				body.Linef("String %s_TOPIC = %s;", prefix, stringLiteral(ep.Topic))
			}
			if ep.DocURL != "" {
				body.Linef("String %s_DOC_URL = %s;", prefix, stringLiteral(ep.DocURL))
			}
		}

		for _, ep := range api.Endpoints() {
			body.BlankLine()
			body.DocBlock(ep.Description, typeLinks(ep, opts), docLink(ep.DocURL, "Endpoint documentation"), sourceLink(ep.Source, opts))

			method := naming.Camel(ep.Name)
			var params []string
			if ep.Request != nil {
				params = append(params, typeName(ep.Request, im)+" request")
			}

			if ep.Kind == model.EndpointRest {
				result := "void"
				if ep.Response != nil {
					result = typeName(ep.Response, im)
				}
				body.Linef("%s %s(%s);", result, method, strings.Join(params, ", "))
				continue
			}

			message := im.use("java.lang.Object")
			if ep.Response != nil {
				message = typeName(ep.Response, im)
			}
			params = append(params, fmt.Sprintf("%s<%s> listener", im.use("java.util.function.Consumer"), message))
			body.Linef("String subscribe%s(%s);", naming.Pascal(ep.Name), strings.Join(params, ", "))
			body.BlankLine()
			body.Linef("void unsubscribe%s(String subscriptionId);", naming.Pascal(ep.Name))
		}
	})
	return assemble(x.Package, im, body)
}

// typeLinks lists javadoc links for the entities an endpoint exchanges
func typeLinks(ep *model.Endpoint, opts codegen.Options) string {
	var links []string
	seen := make(map[string]bool)
	for _, t := range []*model.Type{ep.Request, ep.Response} {
		if t == nil {
			continue
		}
		for _, e := range t.Entities() {
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			if link := javadocLink(e, opts); link != "" {
				links = append(links, link)
			}
		}
	}
	if len(links) == 0 {
		return ""
	}
	return "Types: " + strings.Join(links, ", ")
}

func (g *Generator) renderExchangeTest(x *model.Exchange) []byte {
	class := exchangeClass(x)
	im := g.newImports(x.Package, class, class+"Test")
	assertions := im.use("org.junit.jupiter.api.Assertions")
	test := im.use("org.junit.jupiter.api.Test")

	body := writer.New(indent)
	body.Block(fmt.Sprintf("class %sTest {", class), "}", func() {
		body.BlankLine()
		body.Linef("@%s", test)
		body.Block("void testId() {", "}", func() {
			body.Linef("%s.assertEquals(%s, %s.ID);", assertions, stringLiteral(x.ID), class)
		})
	})
	return assemble(x.Package, im, body)
}

func (g *Generator) renderApiTest(x *model.Exchange, api *model.Api) []byte {
	class := apiClass(x, api)
	im := g.newImports(x.Package, class, class+"Test")
	assertions := im.use("org.junit.jupiter.api.Assertions")
	test := im.use("org.junit.jupiter.api.Test")

	body := writer.New(indent)
	body.Block(fmt.Sprintf("class %sTest {", class), "}", func() {
		body.BlankLine()
		body.Linef("@%s", test)
		body.Block("void testName() {", "}", func() {
			body.Linef("%s.assertEquals(%s, %s.NAME);", assertions, stringLiteral(api.Name), class)
		})

		for _, ep := range api.Endpoints() {
			prefix := naming.Constant(ep.Name)
			body.BlankLine()
			body.Linef("@%s", test)
			body.Block(fmt.Sprintf("void test%sMetadata() {", naming.Pascal(ep.Name)), "}", func() {
				if ep.Kind == model.EndpointRest {
					body.Linef("%s.assertEquals(%s, %s.%s_METHOD);", assertions, stringLiteral(ep.Method), class, prefix)
					body.Linef("%s.assertEquals(%s, %s.%s_PATH);", assertions, stringLiteral(ep.Path), class, prefix)
				} else {
					body.Linef("%s.assertEquals(%s, %s.%s_TOPIC);", assertions, stringLiteral(ep.Topic), class, prefix)
				}
			})
		}
	})
	return assemble(x.Package, im, body)
}
