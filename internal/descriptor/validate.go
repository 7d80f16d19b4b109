package descriptor

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://jxapi.org/schemas/"

var (
	schemasOnce sync.Once
	schemas     map[Kind]*jsonschema.Schema
	schemasErr  error
)

// compiledSchemas compiles the embedded descriptor schemas once per process
func compiledSchemas() (map[Kind]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft7

		for _, name := range []string{"pojo.schema.json", "exchange.schema.json"} {
			data, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = fmt.Errorf("failed to read embedded schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader(data)); err != nil {
				schemasErr = fmt.Errorf("failed to add schema resource %s: %w", name, err)
				return
			}
		}

		schemas = make(map[Kind]*jsonschema.Schema, 2)
		for kind, name := range map[Kind]string{KindPojo: "pojo.schema.json", KindExchange: "exchange.schema.json"} {
			s, err := compiler.Compile(schemaBaseURL + name)
			if err != nil {
				schemasErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			schemas[kind] = s
		}
	})
	return schemas, schemasErr
}

// validateDocument checks a decoded YAML document against the schema for kind.
// Violations are reported as a ParseError located at the offending node.
func validateDocument(file string, kind Kind, root *yaml.Node) error {
	all, err := compiledSchemas()
	if err != nil {
		return err
	}

	var value interface{}
	if err := root.Decode(&value); err != nil {
		return &ParseError{File: file, Line: root.Line, Message: "invalid document", Err: err}
	}

	err = all[kind].Validate(value)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ParseError{File: file, Message: "schema validation failed", Err: err}
	}

	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	line := root.Line
	if n := lookupPointer(root, leaf.InstanceLocation); n != nil {
		line = n.Line
	}
	return &ParseError{File: file, Line: line, Field: field, Message: leaf.Message}
}

// lookupPointer resolves a JSON pointer against a YAML node tree
func lookupPointer(root *yaml.Node, pointer string) *yaml.Node {
	node := root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if pointer == "" || pointer == "/" {
		return node
	}

	for _, token := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		token = strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
		switch node.Kind {
		case yaml.MappingNode:
			var next *yaml.Node
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == token {
					next = node.Content[i+1]
					break
				}
			}
			if next == nil {
				return node
			}
			node = next
		case yaml.SequenceNode:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node.Content) {
				return node
			}
			node = node.Content[idx]
		default:
			return node
		}
	}
	return node
}
