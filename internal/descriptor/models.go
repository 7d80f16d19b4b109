package descriptor

// Kind identifies which generation mode a descriptor belongs to
type Kind string

const (
	KindExchange Kind = "exchange"
	KindPojo     Kind = "pojo"
)

// Source locates a descriptor element in its file. File is relative to the
// base project directory.
type Source struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// Descriptor is a named exchange or POJO definition read from one file.
// Exactly one of Pojo and Exchange is set, matching Kind.
type Descriptor struct {
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Package     string    `json:"package"`
	Description string    `json:"description,omitempty"`
	Pojo        *Pojo     `json:"pojo,omitempty"`
	Exchange    *Exchange `json:"exchange,omitempty"`
	Source      Source    `json:"source"`
}

// SimpleName returns the last segment of the fully-qualified name
func (d *Descriptor) SimpleName() string {
	return SimpleName(d.Name)
}

// Pojo is a plain data schema
type Pojo struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
	Source      Source  `json:"source"`
}

// Field is a named, typed member of a Pojo. When Properties is non-empty the
// field declares an inline nested type and Type is unset.
type Field struct {
	Name        string    `json:"name"`
	Type        *TypeExpr `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`
	Default     string    `json:"default,omitempty"`
	Properties  []Field   `json:"properties,omitempty"`
	Source      Source    `json:"source"`
}

// Inline reports whether the field declares a nested type
func (f *Field) Inline() bool {
	return len(f.Properties) > 0
}

// Exchange describes an API provider: its own types and its APIs
type Exchange struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	DocURL      string `json:"docUrl,omitempty"`
	Types       []Pojo `json:"types,omitempty"`
	Apis        []Api  `json:"apis"`
}

// Api groups endpoints that share a base URL
type Api struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	BaseURL     string     `json:"baseUrl,omitempty"`
	DocURL      string     `json:"docUrl,omitempty"`
	Rest        []Endpoint `json:"rest,omitempty"`
	Websocket   []Endpoint `json:"websocket,omitempty"`
	Source      Source     `json:"source"`
}

// Endpoint is a REST call or a websocket subscription
type Endpoint struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Method      string   `json:"method,omitempty"`
	Path        string   `json:"path,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	DocURL      string   `json:"docUrl,omitempty"`
	Request     *Message `json:"request,omitempty"`
	Response    *Message `json:"response,omitempty"`
	Source      Source   `json:"source"`
}

// Message is either a reference to a type (Type set) or an inline field list
type Message struct {
	Type        *TypeExpr `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Fields      []Field   `json:"fields,omitempty"`
	Source      Source    `json:"source"`
}

// Inline reports whether the message declares its own fields
func (m *Message) Inline() bool {
	return m.Type == nil
}

// SimpleName returns the part of a dotted name after the last dot
func SimpleName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// Qualify joins a package and a simple name
func Qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
