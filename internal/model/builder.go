package model

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/naming"
)

// Builder resolves descriptors into a Model
type Builder struct {
	logger zerolog.Logger
}

// NewBuilder creates a model builder
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{
		logger: logger.With().Str("component", "model-builder").Logger(),
	}
}

// pendingEntity is an entity whose field types are not resolved yet
type pendingEntity struct {
	entity *Entity
	fields []descriptor.Field
}

// pendingMessage is an endpoint message slot waiting for resolution
type pendingMessage struct {
	target  **Type
	inline  *Entity
	message *descriptor.Message
	pkg     string
	ref     Referrer
}

type build struct {
	entities map[string]*Entity
	bySimple map[string][]*Entity
	// reserved holds the interface names generated for exchanges and APIs
	reserved map[string]descriptor.Source
	pending  []pendingEntity
	messages []pendingMessage
}

// Build resolves descriptors for one mode. External descriptors take part
// in reference resolution but their entities are not emitted. The first
// error in a deterministic order is returned and no partial model is
// produced.
func (b *Builder) Build(mode Mode, descriptors, external []*descriptor.Descriptor) (*Model, error) {
	bd := &build{
		entities: make(map[string]*Entity),
		bySimple: make(map[string][]*Entity),
		reserved: make(map[string]descriptor.Source),
	}

	for _, d := range external {
		if d.Pojo == nil {
			continue
		}
		if _, err := bd.declarePojo(d.Package, *d.Pojo, true, ""); err != nil {
			return nil, err
		}
	}

	var exchanges []*Exchange
	for _, d := range descriptors {
		switch {
		case d.Pojo != nil:
			if _, err := bd.declarePojo(d.Package, *d.Pojo, false, ""); err != nil {
				return nil, err
			}
		case d.Exchange != nil:
			x, err := bd.declareExchange(d)
			if err != nil {
				return nil, err
			}
			exchanges = append(exchanges, x)
		}
	}

	// Field types resolve in entity name order, endpoint messages after
	sort.SliceStable(bd.pending, func(i, j int) bool {
		return bd.pending[i].entity.Name < bd.pending[j].entity.Name
	})
	for _, p := range bd.pending {
		if err := bd.resolveFields(p); err != nil {
			return nil, err
		}
	}
	for _, m := range bd.messages {
		if err := bd.resolveMessage(m); err != nil {
			return nil, err
		}
	}

	entities := make([]*Entity, 0, len(bd.entities))
	for _, e := range bd.entities {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })
	sort.Slice(exchanges, func(i, j int) bool { return exchanges[i].Name < exchanges[j].Name })

	if err := detectCycle(entities); err != nil {
		return nil, err
	}

	b.logger.Debug().
		Str("mode", string(mode)).
		Int("entities", len(entities)).
		Int("exchanges", len(exchanges)).
		Msg("Model resolved")

	return &Model{
		Mode:      mode,
		Entities:  entities,
		Exchanges: exchanges,
		byName:    bd.entities,
	}, nil
}

func (bd *build) declare(e *Entity) error {
	if descriptor.IsScalar(e.SimpleName) {
		return &DuplicateDefinitionError{Name: e.Name, Source: e.Source}
	}
	if prev, ok := bd.entities[e.Name]; ok {
		return &DuplicateDefinitionError{Name: e.Name, First: prev.Source, Source: e.Source}
	}
	if src, ok := bd.reserved[e.Name]; ok {
		return &DuplicateDefinitionError{Name: e.Name, First: src, Source: e.Source}
	}
	bd.entities[e.Name] = e
	bd.bySimple[e.SimpleName] = append(bd.bySimple[e.SimpleName], e)
	return nil
}

func (bd *build) declarePojo(pkg string, pojo descriptor.Pojo, external bool, exchange string) (*Entity, error) {
	e := &Entity{
		Name:        descriptor.Qualify(pkg, pojo.Name),
		Package:     pkg,
		SimpleName:  pojo.Name,
		Description: pojo.Description,
		Source:      pojo.Source,
		External:    external,
		Exchange:    exchange,
	}
	return e, bd.declareWithFields(e, pojo.Fields)
}

// declareWithFields registers e and, recursively, the inline entities its
// fields declare. Inline entity names are the parent simple name followed
// by the field name in PascalCase.
func (bd *build) declareWithFields(e *Entity, fields []descriptor.Field) error {
	if err := bd.declare(e); err != nil {
		return err
	}
	bd.pending = append(bd.pending, pendingEntity{entity: e, fields: fields})

	for _, f := range fields {
		if !f.Inline() {
			continue
		}
		simple := e.SimpleName + naming.Pascal(f.Name)
		nested := &Entity{
			Name:        descriptor.Qualify(e.Package, simple),
			Package:     e.Package,
			SimpleName:  simple,
			Description: f.Description,
			Source:      f.Source,
			External:    e.External,
			Exchange:    e.Exchange,
			Inline:      true,
		}
		if err := bd.declareWithFields(nested, f.Properties); err != nil {
			return err
		}
	}
	return nil
}

// reserve claims a generated interface name so no entity can take it
func (bd *build) reserve(name string, src descriptor.Source) error {
	if prev, ok := bd.entities[name]; ok {
		return &DuplicateDefinitionError{Name: name, First: prev.Source, Source: src}
	}
	if prev, ok := bd.reserved[name]; ok {
		return &DuplicateDefinitionError{Name: name, First: prev, Source: src}
	}
	bd.reserved[name] = src
	return nil
}

// ExchangeInterface is the simple name of the interface generated for an
// exchange
func ExchangeInterface(id string) string {
	return naming.Pascal(id) + "Exchange"
}

// ApiInterface is the simple name of the interface generated for an API
func ApiInterface(id, api string) string {
	return naming.Pascal(id) + naming.Pascal(api) + "Api"
}

func (bd *build) declareExchange(d *descriptor.Descriptor) (*Exchange, error) {
	src := d.Exchange
	x := &Exchange{
		Name:        d.Name,
		ID:          src.ID,
		Package:     d.Package,
		Description: src.Description,
		DocURL:      src.DocURL,
		Source:      d.Source,
	}

	if err := bd.reserve(descriptor.Qualify(d.Package, ExchangeInterface(src.ID)), d.Source); err != nil {
		return nil, err
	}
	named := make(map[string]bool)
	for _, a := range src.Apis {
		// a repeated API name is reported below with its own message
		if named[a.Name] {
			continue
		}
		named[a.Name] = true
		if err := bd.reserve(descriptor.Qualify(d.Package, ApiInterface(src.ID, a.Name)), a.Source); err != nil {
			return nil, err
		}
	}

	for _, t := range src.Types {
		if _, err := bd.declarePojo(d.Package, t, false, x.Name); err != nil {
			return nil, err
		}
	}

	apiSeen := make(map[string]descriptor.Source)
	for _, a := range src.Apis {
		if prev, ok := apiSeen[a.Name]; ok {
			return nil, &DuplicateDefinitionError{Name: x.Name + "." + a.Name, First: prev, Source: a.Source}
		}
		apiSeen[a.Name] = a.Source

		api := &Api{
			Name:        a.Name,
			Description: a.Description,
			BaseURL:     a.BaseURL,
			DocURL:      a.DocURL,
			Source:      a.Source,
		}

		epSeen := make(map[string]descriptor.Source)
		add := func(kind EndpointKind, eps []descriptor.Endpoint) error {
			for _, ep := range eps {
				if prev, ok := epSeen[ep.Name]; ok {
					return &DuplicateDefinitionError{Name: x.Name + "." + a.Name + "." + ep.Name, First: prev, Source: ep.Source}
				}
				epSeen[ep.Name] = ep.Source

				endpoint, err := bd.declareEndpoint(x, api, kind, ep)
				if err != nil {
					return err
				}
				if kind == EndpointRest {
					api.Rest = append(api.Rest, endpoint)
				} else {
					api.Websocket = append(api.Websocket, endpoint)
				}
			}
			return nil
		}
		if err := add(EndpointRest, a.Rest); err != nil {
			return nil, err
		}
		if err := add(EndpointWebsocket, a.Websocket); err != nil {
			return nil, err
		}
		x.Apis = append(x.Apis, api)
	}
	return x, nil
}

func (bd *build) declareEndpoint(x *Exchange, api *Api, kind EndpointKind, ep descriptor.Endpoint) (*Endpoint, error) {
	endpoint := &Endpoint{
		Name:        ep.Name,
		Kind:        kind,
		Description: ep.Description,
		Method:      ep.Method,
		Path:        ep.Path,
		Topic:       ep.Topic,
		DocURL:      ep.DocURL,
		Source:      ep.Source,
	}

	responseSlot := "response"
	responseSuffix := "Response"
	if kind == EndpointWebsocket {
		responseSlot = "message"
		responseSuffix = "Message"
	}

	slots := []struct {
		message *descriptor.Message
		target  **Type
		field   string
		suffix  string
	}{
		{ep.Request, &endpoint.Request, "request", "Request"},
		{ep.Response, &endpoint.Response, responseSlot, responseSuffix},
	}

	for _, s := range slots {
		if s.message == nil {
			continue
		}
		pm := pendingMessage{
			target:  s.target,
			message: s.message,
			pkg:     x.Package,
			ref: Referrer{
				Exchange: x.Name,
				Endpoint: api.Name + "." + ep.Name,
				Field:    s.field,
				Source:   s.message.Source,
			},
		}
		if s.message.Inline() {
			simple := naming.Pascal(api.Name) + naming.Pascal(ep.Name) + s.suffix
			inline := &Entity{
				Name:        descriptor.Qualify(x.Package, simple),
				Package:     x.Package,
				SimpleName:  simple,
				Description: s.message.Description,
				Source:      s.message.Source,
				Exchange:    x.Name,
				Inline:      true,
			}
			if err := bd.declareWithFields(inline, s.message.Fields); err != nil {
				return nil, err
			}
			pm.inline = inline
		}
		bd.messages = append(bd.messages, pm)
	}
	return endpoint, nil
}

func (bd *build) resolveFields(p pendingEntity) error {
	e := p.entity
	e.Properties = make([]*Property, 0, len(p.fields))
	for _, f := range p.fields {
		prop := &Property{
			Name:        f.Name,
			Description: f.Description,
			Required:    f.Required,
			Default:     f.Default,
			Source:      f.Source,
		}
		if f.Inline() {
			nested := bd.entities[descriptor.Qualify(e.Package, e.SimpleName+naming.Pascal(f.Name))]
			prop.Type = &Type{Kind: KindEntity, Entity: nested}
		} else {
			ref := Referrer{Exchange: e.Exchange, Entity: e.Name, Field: f.Name, Source: f.Source}
			t, err := bd.resolve(f.Type, e.Package, ref)
			if err != nil {
				return err
			}
			prop.Type = t
		}
		e.Properties = append(e.Properties, prop)
	}
	return nil
}

func (bd *build) resolveMessage(m pendingMessage) error {
	if m.inline != nil {
		*m.target = &Type{Kind: KindEntity, Entity: m.inline}
		return nil
	}
	t, err := bd.resolve(m.message.Type, m.pkg, m.ref)
	if err != nil {
		return err
	}
	*m.target = t
	return nil
}

func (bd *build) resolve(expr *descriptor.TypeExpr, pkg string, ref Referrer) (*Type, error) {
	switch expr.Kind {
	case descriptor.TypeList, descriptor.TypeMap:
		elem, err := bd.resolve(expr.Elem, pkg, ref)
		if err != nil {
			return nil, err
		}
		kind := KindList
		if expr.Kind == descriptor.TypeMap {
			kind = KindMap
		}
		return &Type{Kind: kind, Elem: elem}, nil
	}

	if expr.IsScalar() {
		return &Type{Kind: KindScalar, Scalar: expr.Name}, nil
	}
	e, err := bd.lookup(expr.Name, pkg, ref)
	if err != nil {
		return nil, err
	}
	return &Type{Kind: KindEntity, Entity: e}, nil
}

// lookup finds the entity a name refers to. Qualified names must match
// exactly. Simple names prefer the referencing package, then fall back to a
// unique match across all packages.
func (bd *build) lookup(name, pkg string, ref Referrer) (*Entity, error) {
	if strings.Contains(name, ".") {
		if e, ok := bd.entities[name]; ok {
			return e, nil
		}
		return nil, &UnresolvedReferenceError{Type: name, Referrer: ref}
	}

	if e, ok := bd.entities[descriptor.Qualify(pkg, name)]; ok {
		return e, nil
	}

	candidates := bd.bySimple[name]
	switch len(candidates) {
	case 0:
		return nil, &UnresolvedReferenceError{Type: name, Referrer: ref}
	case 1:
		return candidates[0], nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	sort.Strings(names)
	return nil, &AmbiguousReferenceError{Type: name, Candidates: names, Referrer: ref}
}
