package model

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxapi/jxgen/internal/descriptor"
)

func parse(t *testing.T, file string, kind descriptor.Kind, content string) []*descriptor.Descriptor {
	t.Helper()
	descriptors, err := descriptor.Parse(file, kind, []byte(content))
	require.NoError(t, err)
	return descriptors
}

func newBuilder() *Builder {
	return NewBuilder(zerolog.Nop())
}

const sharedPojos = `package: com.example.model
pojos:
  - name: Trade
    fields:
      - name: price
        type: BigDecimal
      - name: quantity
        type: BigDecimal
  - name: Person
    fields:
      - name: name
        type: String
      - name: contact
        properties:
          - name: email
            type: String
          - name: address
            properties:
              - name: city
                type: String
`

const exchangeYAML = `id: Binance
package: com.example.binance
types:
  - name: Ticker
    fields:
      - name: symbol
        type: String
      - name: prices
        type: "{BigDecimal}"
apis:
  - name: spot
    rest:
      - name: getTicker
        path: /api/v3/ticker/price
        request:
          fields:
            - name: symbol
              type: String
        response: Ticker
      - name: ping
        path: /api/v3/ping
    websocket:
      - name: trades
        topic: "<symbol>@trade"
        message: "[Trade]"
`

func TestBuilder_Pojos(t *testing.T) {
	// Test: POJO fields resolve and inline properties become nested entities
	descriptors := parse(t, "pojos/model.yaml", descriptor.KindPojo, sharedPojos)

	m, err := newBuilder().Build(ModePojo, descriptors, nil)
	require.NoError(t, err)
	assert.Equal(t, ModePojo, m.Mode)

	var names []string
	for _, e := range m.Entities {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		"com.example.model.Person",
		"com.example.model.PersonContact",
		"com.example.model.PersonContactAddress",
		"com.example.model.Trade",
	}, names)

	person, ok := m.Entity("com.example.model.Person")
	require.True(t, ok)
	require.Len(t, person.Properties, 2)
	assert.Equal(t, "String", person.Properties[0].Type.String())

	contact := person.Properties[1].Type
	require.Equal(t, KindEntity, contact.Kind)
	assert.Equal(t, "PersonContact", contact.Entity.SimpleName)
	assert.True(t, contact.Entity.Inline)
	assert.Equal(t, "com.example.model.PersonContactAddress", contact.Entity.Properties[1].Type.String())

	assert.Len(t, m.EmittedEntities(), 4)
	assert.Equal(t, []string{"com.example.model"}, m.Packages())
}

func TestBuilder_Exchange(t *testing.T) {
	// Test: Exchange types, inline messages and external POJO references resolve
	external := parse(t, "pojos/model.yaml", descriptor.KindPojo, sharedPojos)
	descriptors := parse(t, "exchanges/binance.yaml", descriptor.KindExchange, exchangeYAML)

	m, err := newBuilder().Build(ModeExchange, descriptors, external)
	require.NoError(t, err)
	require.Len(t, m.Exchanges, 1)

	x := m.Exchanges[0]
	assert.Equal(t, "com.example.binance.Binance", x.Name)
	assert.Equal(t, "Binance", x.ID)
	require.Len(t, x.Apis, 1)

	api := x.Apis[0]
	require.Len(t, api.Rest, 2)
	require.Len(t, api.Websocket, 1)
	assert.Len(t, api.Endpoints(), 3)

	getTicker := api.Rest[0]
	assert.Equal(t, EndpointRest, getTicker.Kind)
	assert.Equal(t, "com.example.binance.SpotGetTickerRequest", getTicker.Request.String())
	assert.Equal(t, "com.example.binance.Ticker", getTicker.Response.String())

	ping := api.Rest[1]
	assert.Nil(t, ping.Request)
	assert.Nil(t, ping.Response)

	trades := api.Websocket[0]
	assert.Equal(t, EndpointWebsocket, trades.Kind)
	assert.Equal(t, "[com.example.model.Trade]", trades.Response.String())

	ticker, ok := m.Entity("com.example.binance.Ticker")
	require.True(t, ok)
	assert.Equal(t, "com.example.binance.Binance", ticker.Exchange)
	assert.Equal(t, "{BigDecimal}", ticker.Properties[1].Type.String())

	trade, ok := m.Entity("com.example.model.Trade")
	require.True(t, ok)
	assert.True(t, trade.External)

	var emitted []string
	for _, e := range m.EmittedEntities() {
		emitted = append(emitted, e.Name)
	}
	assert.Equal(t, []string{"com.example.binance.SpotGetTickerRequest", "com.example.binance.Ticker"}, emitted)
}

func TestBuilder_UnresolvedInExchange(t *testing.T) {
	// Test: A missing type names the exchange, the endpoint and the type
	descriptors := parse(t, "exchanges/x.yaml", descriptor.KindExchange, `id: Kraken
package: com.example.kraken
apis:
  - name: Spot
    rest:
      - name: getBalance
        path: /balance
        response: Balance
`)

	m, err := newBuilder().Build(ModeExchange, descriptors, nil)
	require.Error(t, err)
	assert.Nil(t, m)

	var ure *UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "Balance", ure.Type)
	assert.Equal(t, "com.example.kraken.Kraken", ure.Exchange)
	assert.Equal(t, "Spot.getBalance", ure.Endpoint)
	assert.Equal(t, "response", ure.Field)
	assert.Equal(t, "exchanges/x.yaml", ure.Source.File)
	assert.Contains(t, err.Error(), `"Balance"`)
	assert.Contains(t, err.Error(), "exchange com.example.kraken.Kraken")
}

func TestBuilder_UnresolvedField(t *testing.T) {
	// Test: A missing field type names the entity and field
	descriptors := parse(t, "pojos/a.yaml", descriptor.KindPojo, `package: a
pojos:
  - name: Order
    fields:
      - name: lines
        type: "[OrderLine]"
`)

	_, err := newBuilder().Build(ModePojo, descriptors, nil)
	var ure *UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "OrderLine", ure.Type)
	assert.Equal(t, "a.Order", ure.Entity)
	assert.Equal(t, "lines", ure.Field)
	assert.Equal(t, 5, ure.Source.Line)
	assert.Empty(t, ure.Exchange)
}

func TestBuilder_ReferenceResolution(t *testing.T) {
	pkgA := `package: a
pojos:
  - name: Address
    fields: []
`
	pkgB := `package: b
pojos:
  - name: Address
    fields: []
`

	tests := []struct {
		name      string
		user      string
		wantType  string
		wantError any
	}{
		{
			name:     "same package wins",
			user:     "package: a\npojos:\n  - name: User\n    fields:\n      - name: home\n        type: Address\n",
			wantType: "a.Address",
		},
		{
			name:     "qualified name",
			user:     "package: c\npojos:\n  - name: User\n    fields:\n      - name: home\n        type: b.Address\n",
			wantType: "b.Address",
		},
		{
			name:      "ambiguous simple name",
			user:      "package: c\npojos:\n  - name: User\n    fields:\n      - name: home\n        type: Address\n",
			wantError: &AmbiguousReferenceError{},
		},
		{
			name:      "unknown qualified name",
			user:      "package: c\npojos:\n  - name: User\n    fields:\n      - name: home\n        type: z.Address\n",
			wantError: &UnresolvedReferenceError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var descriptors []*descriptor.Descriptor
			descriptors = append(descriptors, parse(t, "a.yaml", descriptor.KindPojo, pkgA)...)
			descriptors = append(descriptors, parse(t, "b.yaml", descriptor.KindPojo, pkgB)...)
			descriptors = append(descriptors, parse(t, "user.yaml", descriptor.KindPojo, tt.user)...)

			m, err := newBuilder().Build(ModePojo, descriptors, nil)
			if tt.wantError != nil {
				require.Error(t, err)
				switch tt.wantError.(type) {
				case *AmbiguousReferenceError:
					var are *AmbiguousReferenceError
					require.ErrorAs(t, err, &are)
					assert.Equal(t, []string{"a.Address", "b.Address"}, are.Candidates)
				case *UnresolvedReferenceError:
					var ure *UnresolvedReferenceError
					require.ErrorAs(t, err, &ure)
				}
				return
			}
			require.NoError(t, err)
			var user *Entity
			for _, e := range m.Entities {
				if e.SimpleName == "User" {
					user = e
				}
			}
			require.NotNil(t, user)
			assert.Equal(t, tt.wantType, user.Properties[0].Type.String())
		})
	}
}

func TestBuilder_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantPath []string
	}{
		{
			name:     "self reference",
			content:  "package: a\npojos:\n  - name: Node\n    fields:\n      - name: next\n        type: Node\n",
			wantPath: []string{"a.Node", "a.Node"},
		},
		{
			name: "two entities",
			content: `package: a
pojos:
  - name: A
    fields:
      - name: b
        type: B
  - name: B
    fields:
      - name: a
        type: A
`,
			wantPath: []string{"a.A", "a.B", "a.A"},
		},
		{
			name: "through a list and a map",
			content: `package: a
pojos:
  - name: Tree
    fields:
      - name: children
        type: "[Branch]"
  - name: Branch
    fields:
      - name: leaves
        type: "{Tree}"
`,
			wantPath: []string{"a.Branch", "a.Tree", "a.Branch"},
		},
		{
			name: "through an inline entity",
			content: `package: a
pojos:
  - name: Doc
    fields:
      - name: meta
        properties:
          - name: parent
            type: Doc
`,
			wantPath: []string{"a.Doc", "a.DocMeta", "a.Doc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptors := parse(t, "pojos/a.yaml", descriptor.KindPojo, tt.content)
			_, err := newBuilder().Build(ModePojo, descriptors, nil)

			var cre *CyclicReferenceError
			require.ErrorAs(t, err, &cre)
			assert.Equal(t, tt.wantPath, cre.Path)
			assert.Equal(t, "pojos/a.yaml", cre.Source.File)
		})
	}
}

func TestBuilder_DuplicateDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		kind    descriptor.Kind
		content string
		want    string
	}{
		{
			name: "inline name collides with declared entity",
			kind: descriptor.KindPojo,
			content: `package: a
pojos:
  - name: Person
    fields:
      - name: contact
        properties:
          - name: email
            type: String
  - name: PersonContact
    fields: []
`,
			want: "a.PersonContact",
		},
		{
			name:    "entity named like a scalar",
			kind:    descriptor.KindPojo,
			content: "package: a\npojos:\n  - name: String\n    fields: []\n",
			want:    "a.String",
		},
		{
			name: "duplicate endpoint",
			kind: descriptor.KindExchange,
			content: `id: X
package: a
apis:
  - name: Spot
    rest:
      - name: ping
        path: /ping
      - name: ping
        path: /ping2
`,
			want: "a.X.Spot.ping",
		},
		{
			name: "duplicate api",
			kind: descriptor.KindExchange,
			content: `id: X
package: a
apis:
  - name: Spot
  - name: Spot
`,
			want: "a.X.Spot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptors := parse(t, "d.yaml", tt.kind, tt.content)
			_, err := newBuilder().Build(ModePojo, descriptors, nil)

			var dde *DuplicateDefinitionError
			require.ErrorAs(t, err, &dde)
			assert.Equal(t, tt.want, dde.Name)
		})
	}
}

func TestBuilder_ExternalCollision(t *testing.T) {
	// Test: An exchange type may not redefine a shared POJO
	external := parse(t, "pojos/model.yaml", descriptor.KindPojo, "package: a\npojos:\n  - name: Trade\n    fields: []\n")
	descriptors := parse(t, "exchanges/x.yaml", descriptor.KindExchange, "id: X\npackage: a\ntypes:\n  - name: Trade\n    fields: []\napis: []\n")

	_, err := newBuilder().Build(ModeExchange, descriptors, external)
	var dde *DuplicateDefinitionError
	require.ErrorAs(t, err, &dde)
	assert.Equal(t, "pojos/model.yaml", dde.First.File)
	assert.Equal(t, "exchanges/x.yaml", dde.Source.File)
}

func TestBuilder_ReservedInterfaceNames(t *testing.T) {
	// Test: Entities may not take the names of generated exchange and API interfaces
	tests := []struct {
		name      string
		exchange  string
		external  string
		want      string
		wantFirst int
		wantLine  int
	}{
		{
			name: "type named like the exchange",
			exchange: `id: Binance
package: a
types:
  - name: BinanceExchange
    fields: []
apis: []
`,
			want:      "a.BinanceExchange",
			wantFirst: 1,
			wantLine:  4,
		},
		{
			name: "type named like an api",
			exchange: `id: Binance
package: a
types:
  - name: BinanceSpotApi
    fields: []
apis:
  - name: spot
`,
			want:      "a.BinanceSpotApi",
			wantFirst: 7,
			wantLine:  4,
		},
		{
			name: "inline entity named like an api",
			exchange: `id: Binance
package: a
types:
  - name: BinanceSpot
    fields:
      - name: api
        properties:
          - {name: v, type: String}
apis:
  - name: Spot
`,
			want:      "a.BinanceSpotApi",
			wantFirst: 10,
			wantLine:  6,
		},
		{
			name: "apis differing only in case",
			exchange: `id: Binance
package: a
apis:
  - name: spot
  - name: Spot
`,
			want:      "a.BinanceSpotApi",
			wantFirst: 4,
			wantLine:  5,
		},
		{
			name:     "shared pojo in the exchange package",
			exchange: "id: Binance\npackage: a\napis: []\n",
			external: "package: a\npojos:\n  - name: BinanceExchange\n    fields: []\n",
			want:     "a.BinanceExchange",
			// the shared POJO is declared first, the exchange second
			wantFirst: 3,
			wantLine:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var external []*descriptor.Descriptor
			if tt.external != "" {
				external = parse(t, "pojos/model.yaml", descriptor.KindPojo, tt.external)
			}
			descriptors := parse(t, "exchanges/binance.yaml", descriptor.KindExchange, tt.exchange)

			_, err := newBuilder().Build(ModeExchange, descriptors, external)
			var dde *DuplicateDefinitionError
			require.ErrorAs(t, err, &dde)
			assert.Equal(t, tt.want, dde.Name)
			assert.Equal(t, tt.wantFirst, dde.First.Line)
			assert.Equal(t, tt.wantLine, dde.Source.Line)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	src := descriptor.Source{File: "x.yaml", Line: 3}

	err := error(&CyclicReferenceError{Path: []string{"a.A", "a.B", "a.A"}, Source: src})
	assert.Equal(t, "cyclic reference: a.A -> a.B -> a.A (x.yaml:3)", err.Error())

	err = &DuplicateDefinitionError{Name: "a.String", Source: src}
	assert.Equal(t, `duplicate definition of "a.String", already defined at a built-in type (x.yaml:3)`, err.Error())

	err = &DuplicateDefinitionError{Name: "a.B", First: descriptor.Source{File: "y.yaml", Line: 1}, Source: src}
	assert.Equal(t, `duplicate definition of "a.B", already defined at y.yaml:1 (x.yaml:3)`, err.Error())

	err = &UnresolvedReferenceError{Type: "T", Referrer: Referrer{Entity: "a.B", Field: "t", Source: src}}
	assert.Equal(t, `unresolved reference to type "T" in entity a.B, field t (x.yaml:3)`, err.Error())

	var ure *UnresolvedReferenceError
	assert.True(t, errors.As(err, &ure))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode("exchanges")
	assert.True(t, ok)
	assert.Equal(t, ModeExchange, mode)

	mode, ok = ParseMode("pojo")
	assert.True(t, ok)
	assert.Equal(t, ModePojo, mode)

	_, ok = ParseMode("classes")
	assert.False(t, ok)
}
