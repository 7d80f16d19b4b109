// Package model holds the resolved descriptor graph that code generators
// consume. A Model is produced by a Builder and is immutable afterwards.
package model

import (
	"sort"

	"github.com/jxapi/jxgen/internal/descriptor"
)

// Mode selects which descriptors a run processes and what it emits
type Mode string

const (
	ModeExchange Mode = "exchange"
	ModePojo     Mode = "pojo"
)

// ParseMode accepts the mode name or its plural CLI spelling
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "exchange", "exchanges":
		return ModeExchange, true
	case "pojo", "pojos":
		return ModePojo, true
	}
	return "", false
}

// TypeKind distinguishes resolved type shapes
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindList
	KindMap
	KindEntity
)

// Type is a resolved type expression. Entity references point directly at
// the target entity.
type Type struct {
	Kind   TypeKind
	Scalar string
	Elem   *Type
	Entity *Entity
}

// String renders the type in descriptor syntax using fully-qualified entity
// names
func (t *Type) String() string {
	switch t.Kind {
	case KindList:
		return "[" + t.Elem.String() + "]"
	case KindMap:
		return "{" + t.Elem.String() + "}"
	case KindEntity:
		return t.Entity.Name
	default:
		return t.Scalar
	}
}

// MarshalText keeps serialised models flat; entities are referenced by name
func (t *Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Entities lists every entity referenced anywhere inside the type
func (t *Type) Entities() []*Entity {
	switch t.Kind {
	case KindEntity:
		return []*Entity{t.Entity}
	case KindList, KindMap:
		return t.Elem.Entities()
	}
	return nil
}

// Property is a resolved entity field
type Property struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Type        *Type             `json:"type" yaml:"type"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Default     string            `json:"default,omitempty" yaml:"default,omitempty"`
	Source      descriptor.Source `json:"source" yaml:"source"`
}

// Entity is a data type: a POJO, an exchange-local type, or a synthesised
// inline type
type Entity struct {
	Name        string            `json:"name" yaml:"name"`
	Package     string            `json:"package" yaml:"package"`
	SimpleName  string            `json:"simpleName" yaml:"simpleName"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  []*Property       `json:"properties" yaml:"properties"`
	Source      descriptor.Source `json:"source" yaml:"source"`

	// External entities take part in resolution but are not emitted
	External bool `json:"external,omitempty" yaml:"external,omitempty"`
	// Exchange is the fully-qualified name of the owning exchange, if any
	Exchange string `json:"exchange,omitempty" yaml:"exchange,omitempty"`
	// Inline marks entities synthesised from nested properties or messages
	Inline bool `json:"inline,omitempty" yaml:"inline,omitempty"`
}

// EndpointKind separates REST calls from websocket subscriptions
type EndpointKind string

const (
	EndpointRest      EndpointKind = "rest"
	EndpointWebsocket EndpointKind = "websocket"
)

// Endpoint is a resolved REST call or websocket subscription. For websocket
// endpoints Response holds the pushed message type.
type Endpoint struct {
	Name        string            `json:"name" yaml:"name"`
	Kind        EndpointKind      `json:"kind" yaml:"kind"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Method      string            `json:"method,omitempty" yaml:"method,omitempty"`
	Path        string            `json:"path,omitempty" yaml:"path,omitempty"`
	Topic       string            `json:"topic,omitempty" yaml:"topic,omitempty"`
	DocURL      string            `json:"docUrl,omitempty" yaml:"docUrl,omitempty"`
	Request     *Type             `json:"request,omitempty" yaml:"request,omitempty"`
	Response    *Type             `json:"response,omitempty" yaml:"response,omitempty"`
	Source      descriptor.Source `json:"source" yaml:"source"`
}

// Api groups endpoints sharing a base URL
type Api struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	BaseURL     string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	DocURL      string            `json:"docUrl,omitempty" yaml:"docUrl,omitempty"`
	Rest        []*Endpoint       `json:"rest,omitempty" yaml:"rest,omitempty"`
	Websocket   []*Endpoint       `json:"websocket,omitempty" yaml:"websocket,omitempty"`
	Source      descriptor.Source `json:"source" yaml:"source"`
}

// Endpoints returns REST endpoints followed by websocket endpoints
func (a *Api) Endpoints() []*Endpoint {
	out := make([]*Endpoint, 0, len(a.Rest)+len(a.Websocket))
	out = append(out, a.Rest...)
	return append(out, a.Websocket...)
}

// Exchange is a resolved exchange descriptor
type Exchange struct {
	Name        string            `json:"name" yaml:"name"`
	ID          string            `json:"id" yaml:"id"`
	Package     string            `json:"package" yaml:"package"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	DocURL      string            `json:"docUrl,omitempty" yaml:"docUrl,omitempty"`
	Apis        []*Api            `json:"apis" yaml:"apis"`
	Source      descriptor.Source `json:"source" yaml:"source"`
}

// Model is the resolved graph for one generation mode. Entities and
// Exchanges are sorted by fully-qualified name.
type Model struct {
	Mode      Mode        `json:"mode" yaml:"mode"`
	Entities  []*Entity   `json:"entities" yaml:"entities"`
	Exchanges []*Exchange `json:"exchanges,omitempty" yaml:"exchanges,omitempty"`

	byName map[string]*Entity
}

// Entity looks up an entity by fully-qualified name
func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// EmittedEntities returns the entities generators should render
func (m *Model) EmittedEntities() []*Entity {
	var out []*Entity
	for _, e := range m.Entities {
		if !e.External {
			out = append(out, e)
		}
	}
	return out
}

// Packages returns the sorted set of packages holding emitted entities
func (m *Model) Packages() []string {
	seen := make(map[string]bool)
	for _, e := range m.EmittedEntities() {
		seen[e.Package] = true
	}
	for _, x := range m.Exchanges {
		seen[x.Package] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
