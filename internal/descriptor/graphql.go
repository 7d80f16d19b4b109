package descriptor

import (
	"fmt"
	"strings"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"
)

// parseGraphQL reads POJO descriptors written as GraphQL SDL object types
func parseGraphQL(file string, input string) ([]*Descriptor, error) {
	preprocessed := PreprocessGraphQL(input)

	doc, report := astparser.ParseGraphqlDocumentString(preprocessed)
	if report.HasErrors() {
		return nil, &ParseError{File: file, Message: "invalid GraphQL", Err: fmt.Errorf("%s", report.Error())}
	}

	pkg := ""
	var pojos []*Pojo

	for i := range doc.RootNodes {
		node := &doc.RootNodes[i]
		switch node.Kind {
		case ast.NodeKindObjectTypeDefinition:
			typeDef := doc.ObjectTypeDefinitions[node.Ref]
			typeName := doc.Input.ByteSliceString(typeDef.Name)

			if typeName == metadataTypeName {
				pkg = parseHeader(&doc, typeDef)
				continue
			}

			pojo, err := parseGraphQLType(&doc, file, preprocessed, typeDef)
			if err != nil {
				return nil, err
			}
			pojos = append(pojos, pojo)
		case ast.NodeKindEnumTypeDefinition, ast.NodeKindInputObjectTypeDefinition,
			ast.NodeKindInterfaceTypeDefinition, ast.NodeKindUnionTypeDefinition:
			return nil, &ParseError{File: file, Message: "only object type definitions are supported in POJO descriptors"}
		}
	}

	if pkg == "" {
		return nil, &ParseError{File: file, Line: 1, Field: "package", Message: `missing @jxapi(package: "...") header`}
	}
	for _, part := range strings.Split(pkg, ".") {
		if !IsIdentifier(part) {
			return nil, &ParseError{File: file, Line: 1, Field: "package", Message: fmt.Sprintf("invalid package %q", pkg)}
		}
	}

	descriptors := make([]*Descriptor, 0, len(pojos))
	for _, pojo := range pojos {
		descriptors = append(descriptors, &Descriptor{
			Kind:        KindPojo,
			Name:        Qualify(pkg, pojo.Name),
			Package:     pkg,
			Description: pojo.Description,
			Pojo:        pojo,
			Source:      pojo.Source,
		})
	}
	return descriptors, nil
}

func parseHeader(doc *ast.Document, typeDef ast.ObjectTypeDefinition) string {
	for _, fieldRef := range typeDef.FieldsDefinition.Refs {
		fieldDef := doc.FieldDefinitions[fieldRef]
		for _, directiveRef := range fieldDef.Directives.Refs {
			directive := doc.Directives[directiveRef]
			if doc.Input.ByteSliceString(directive.Name) != "jxapi" {
				continue
			}
			for _, argRef := range directive.Arguments.Refs {
				arg := doc.Arguments[argRef]
				if doc.Input.ByteSliceString(arg.Name) != "package" {
					continue
				}
				value := doc.ArgumentValue(argRef)
				if value.Kind == ast.ValueKindString {
					return doc.StringValueContentString(value.Ref)
				}
			}
		}
	}
	return ""
}

func parseGraphQLType(doc *ast.Document, file, input string, typeDef ast.ObjectTypeDefinition) (*Pojo, error) {
	name := doc.Input.ByteSliceString(typeDef.Name)
	pojo := &Pojo{
		Name:        name,
		Description: getDescription(doc, typeDef.Description),
		Source:      Source{File: file, Line: lineOf(input, name)},
	}

	seen := make(map[string]bool)
	for _, fieldRef := range typeDef.FieldsDefinition.Refs {
		fieldDef := doc.FieldDefinitions[fieldRef]
		fieldName := doc.Input.ByteSliceString(fieldDef.Name)
		if seen[fieldName] {
			return nil, &ParseError{File: file, Line: pojo.Source.Line, Field: name + "." + fieldName, Message: fmt.Sprintf("duplicate field %q", fieldName)}
		}
		seen[fieldName] = true

		typeStr, required := parseGraphQLFieldType(doc, fieldDef.Type)
		expr, err := ParseTypeExpr(typeStr)
		if err != nil {
			return nil, &ParseError{File: file, Line: pojo.Source.Line, Field: name + "." + fieldName, Message: "invalid type expression", Err: err}
		}

		pojo.Fields = append(pojo.Fields, Field{
			Name:        fieldName,
			Type:        expr,
			Description: getDescription(doc, fieldDef.Description),
			Required:    required,
			Source:      pojo.Source,
		})
	}
	return pojo, nil
}

// parseGraphQLFieldType converts a GraphQL type reference into descriptor
// type syntax. The boolean reports a non-null outer type.
func parseGraphQLFieldType(doc *ast.Document, typeRef int) (string, bool) {
	required := false
	currentRef := typeRef

	if doc.Types[currentRef].TypeKind == ast.TypeKindNonNull {
		required = true
		currentRef = doc.Types[currentRef].OfType
	}

	if doc.Types[currentRef].TypeKind == ast.TypeKindList {
		innerType, _ := parseGraphQLFieldType(doc, doc.Types[currentRef].OfType)
		return "[" + innerType + "]", required
	}

	if doc.Types[currentRef].TypeKind == ast.TypeKindNamed {
		typeName := doc.Input.ByteSliceString(doc.Types[currentRef].Name)
		if typeName == "ID" {
			typeName = "String"
		}
		return typeName, required
	}

	return "", required
}

func getDescription(doc *ast.Document, desc ast.Description) string {
	if !desc.IsDefined {
		return ""
	}
	content := strings.TrimSpace(doc.Input.ByteSliceString(desc.Content))
	return strings.TrimSpace(strings.Trim(content, `"`))
}

// lineOf finds the 1-based line declaring `type <name>`
func lineOf(input, name string) int {
	for i, line := range strings.Split(input, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "type" && strings.TrimSuffix(fields[1], "{") == name {
			return i + 1
		}
	}
	return 0
}
