package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type rawPojoFile struct {
	Package     string    `yaml:"package"`
	Description string    `yaml:"description"`
	Pojos       []rawPojo `yaml:"pojos"`
}

type rawExchangeFile struct {
	ID          string    `yaml:"id"`
	Package     string    `yaml:"package"`
	Description string    `yaml:"description"`
	DocURL      string    `yaml:"docUrl"`
	Types       []rawPojo `yaml:"types"`
	Apis        []rawApi  `yaml:"apis"`
}

type rawPojo struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Fields      []rawField `yaml:"fields"`
	line        int
}

func (p *rawPojo) UnmarshalYAML(n *yaml.Node) error {
	type plain rawPojo
	if err := n.Decode((*plain)(p)); err != nil {
		return err
	}
	p.line = n.Line
	return nil
}

type rawField struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Description string     `yaml:"description"`
	Required    bool       `yaml:"required"`
	Default     string     `yaml:"default"`
	Properties  []rawField `yaml:"properties"`
	line        int
}

func (f *rawField) UnmarshalYAML(n *yaml.Node) error {
	type plain rawField
	if err := n.Decode((*plain)(f)); err != nil {
		return err
	}
	f.line = n.Line
	return nil
}

type rawApi struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	BaseURL     string        `yaml:"baseUrl"`
	DocURL      string        `yaml:"docUrl"`
	Rest        []rawEndpoint `yaml:"rest"`
	Websocket   []rawEndpoint `yaml:"websocket"`
	line        int
}

func (a *rawApi) UnmarshalYAML(n *yaml.Node) error {
	type plain rawApi
	if err := n.Decode((*plain)(a)); err != nil {
		return err
	}
	a.line = n.Line
	return nil
}

type rawEndpoint struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Method      string      `yaml:"method"`
	Path        string      `yaml:"path"`
	Topic       string      `yaml:"topic"`
	DocURL      string      `yaml:"docUrl"`
	Request     *rawMessage `yaml:"request"`
	Response    *rawMessage `yaml:"response"`
	Message     *rawMessage `yaml:"message"`
	line        int
}

func (e *rawEndpoint) UnmarshalYAML(n *yaml.Node) error {
	type plain rawEndpoint
	if err := n.Decode((*plain)(e)); err != nil {
		return err
	}
	e.line = n.Line
	return nil
}

// rawMessage accepts either a type reference scalar or a mapping with fields
type rawMessage struct {
	Ref         string
	Description string     `yaml:"description"`
	Fields      []rawField `yaml:"fields"`
	line        int
}

func (m *rawMessage) UnmarshalYAML(n *yaml.Node) error {
	m.line = n.Line
	if n.Kind == yaml.ScalarNode {
		m.Ref = n.Value
		return nil
	}
	var body struct {
		Description string     `yaml:"description"`
		Fields      []rawField `yaml:"fields"`
	}
	if err := n.Decode(&body); err != nil {
		return err
	}
	m.Description = body.Description
	m.Fields = body.Fields
	return nil
}

// parseYAML decodes a YAML or JSON descriptor file of the given kind
func parseYAML(file string, kind Kind, data []byte) ([]*Descriptor, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{File: file, Message: "empty descriptor"}
		}
		return nil, yamlParseError(file, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, &ParseError{File: file, Message: "empty descriptor"}
	}

	if err := validateDocument(file, kind, &root); err != nil {
		return nil, err
	}

	switch kind {
	case KindPojo:
		var raw rawPojoFile
		if err := root.Decode(&raw); err != nil {
			return nil, yamlParseError(file, err)
		}
		return convertPojoFile(file, &raw)
	case KindExchange:
		var raw rawExchangeFile
		if err := root.Decode(&raw); err != nil {
			return nil, yamlParseError(file, err)
		}
		d, err := convertExchangeFile(file, &raw, root.Content[0].Line)
		if err != nil {
			return nil, err
		}
		return []*Descriptor{d}, nil
	default:
		return nil, fmt.Errorf("unknown descriptor kind %q", kind)
	}
}

func yamlParseError(file string, err error) *ParseError {
	pe := &ParseError{File: file, Message: "invalid YAML", Err: err}
	// yaml.v3 messages look like "yaml: line 4: ..."
	var line int
	if _, scanErr := fmt.Sscanf(strings.TrimPrefix(err.Error(), "yaml: "), "line %d:", &line); scanErr == nil {
		pe.Line = line
	}
	return pe
}

func convertPojoFile(file string, raw *rawPojoFile) ([]*Descriptor, error) {
	descriptors := make([]*Descriptor, 0, len(raw.Pojos))
	for i := range raw.Pojos {
		pojo, err := convertPojo(file, fmt.Sprintf("pojos/%d", i), &raw.Pojos[i])
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, &Descriptor{
			Kind:        KindPojo,
			Name:        Qualify(raw.Package, pojo.Name),
			Package:     raw.Package,
			Description: pojo.Description,
			Pojo:        pojo,
			Source:      pojo.Source,
		})
	}
	return descriptors, nil
}

func convertExchangeFile(file string, raw *rawExchangeFile, line int) (*Descriptor, error) {
	ex := &Exchange{
		ID:          raw.ID,
		Description: raw.Description,
		DocURL:      raw.DocURL,
	}

	for i := range raw.Types {
		pojo, err := convertPojo(file, fmt.Sprintf("types/%d", i), &raw.Types[i])
		if err != nil {
			return nil, err
		}
		ex.Types = append(ex.Types, *pojo)
	}

	for i, ra := range raw.Apis {
		api := Api{
			Name:        ra.Name,
			Description: ra.Description,
			BaseURL:     ra.BaseURL,
			DocURL:      ra.DocURL,
			Source:      Source{File: file, Line: ra.line},
		}
		for j := range ra.Rest {
			ep, err := convertEndpoint(file, fmt.Sprintf("apis/%d/rest/%d", i, j), &ra.Rest[j], false)
			if err != nil {
				return nil, err
			}
			api.Rest = append(api.Rest, *ep)
		}
		for j := range ra.Websocket {
			ep, err := convertEndpoint(file, fmt.Sprintf("apis/%d/websocket/%d", i, j), &ra.Websocket[j], true)
			if err != nil {
				return nil, err
			}
			api.Websocket = append(api.Websocket, *ep)
		}
		ex.Apis = append(ex.Apis, api)
	}

	return &Descriptor{
		Kind:        KindExchange,
		Name:        Qualify(raw.Package, raw.ID),
		Package:     raw.Package,
		Description: raw.Description,
		Exchange:    ex,
		Source:      Source{File: file, Line: line},
	}, nil
}

func convertPojo(file, path string, raw *rawPojo) (*Pojo, error) {
	fields, err := convertFields(file, path+"/fields", raw.Fields)
	if err != nil {
		return nil, err
	}
	return &Pojo{
		Name:        raw.Name,
		Description: raw.Description,
		Fields:      fields,
		Source:      Source{File: file, Line: raw.line},
	}, nil
}

func convertFields(file, path string, raw []rawField) ([]Field, error) {
	fields := make([]Field, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, rf := range raw {
		fieldPath := fmt.Sprintf("%s/%d", path, i)
		if seen[rf.Name] {
			return nil, &ParseError{File: file, Line: rf.line, Field: fieldPath + "/name", Message: fmt.Sprintf("duplicate field %q", rf.Name)}
		}
		seen[rf.Name] = true

		field := Field{
			Name:        rf.Name,
			Description: rf.Description,
			Required:    rf.Required,
			Default:     rf.Default,
			Source:      Source{File: file, Line: rf.line},
		}
		if len(rf.Properties) > 0 {
			props, err := convertFields(file, fieldPath+"/properties", rf.Properties)
			if err != nil {
				return nil, err
			}
			field.Properties = props
		} else {
			expr, err := ParseTypeExpr(rf.Type)
			if err != nil {
				return nil, &ParseError{File: file, Line: rf.line, Field: fieldPath + "/type", Message: "invalid type expression", Err: err}
			}
			field.Type = expr
		}
		if rf.Default != "" {
			if err := CheckDefault(field.Type, rf.Default); err != nil {
				return nil, &ParseError{File: file, Line: rf.line, Field: fieldPath + "/default", Message: "invalid default value", Err: err}
			}
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func convertEndpoint(file, path string, raw *rawEndpoint, websocket bool) (*Endpoint, error) {
	ep := &Endpoint{
		Name:        raw.Name,
		Description: raw.Description,
		Method:      raw.Method,
		Path:        raw.Path,
		Topic:       raw.Topic,
		DocURL:      raw.DocURL,
		Source:      Source{File: file, Line: raw.line},
	}
	if !websocket && ep.Method == "" {
		ep.Method = "GET"
	}

	var err error
	if ep.Request, err = convertMessage(file, path+"/request", raw.Request); err != nil {
		return nil, err
	}
	response, responsePath := raw.Response, path+"/response"
	if websocket {
		response, responsePath = raw.Message, path+"/message"
	}
	if ep.Response, err = convertMessage(file, responsePath, response); err != nil {
		return nil, err
	}
	return ep, nil
}

func convertMessage(file, path string, raw *rawMessage) (*Message, error) {
	if raw == nil {
		return nil, nil
	}
	msg := &Message{
		Description: raw.Description,
		Source:      Source{File: file, Line: raw.line},
	}
	if raw.Ref != "" {
		expr, err := ParseTypeExpr(raw.Ref)
		if err != nil {
			return nil, &ParseError{File: file, Line: raw.line, Field: path, Message: "invalid type expression", Err: err}
		}
		msg.Type = expr
		return msg, nil
	}
	fields, err := convertFields(file, path+"/fields", raw.Fields)
	if err != nil {
		return nil, err
	}
	msg.Fields = fields
	return msg, nil
}
