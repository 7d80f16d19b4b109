package descriptor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, base, rel, content string) {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const personYAML = `package: com.example.model
pojos:
  - name: Person
    description: A person.
    fields:
      - name: name
        type: String
        required: true
      - name: age
        type: Int
      - name: contact
        properties:
          - name: email
            type: String
`

const binanceYAML = `id: Binance
package: com.example.binance
description: Binance wrapper
docUrl: https://binance-docs.github.io/apidocs
types:
  - name: Ticker
    fields:
      - name: symbol
        type: String
      - name: price
        type: BigDecimal
apis:
  - name: Spot
    baseUrl: https://api.binance.com
    rest:
      - name: getTicker
        path: /api/v3/ticker/price
        request:
          fields:
            - name: symbol
              type: String
        response: Ticker
    websocket:
      - name: trades
        topic: "<symbol>@trade"
        message: "[Ticker]"
`

func TestLoader_LoadPojos(t *testing.T) {
	// Test: POJO descriptors are discovered under the conventional directory and parsed
	base := t.TempDir()
	writeFile(t, base, PojosDir+"/person.yaml", personYAML)

	l := NewLoader(2, zerolog.Nop())
	descriptors, err := l.Load(context.Background(), base, KindPojo)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, KindPojo, d.Kind)
	assert.Equal(t, "com.example.model.Person", d.Name)
	assert.Equal(t, "Person", d.SimpleName())
	assert.Equal(t, "com.example.model", d.Package)
	assert.Equal(t, PojosDir+"/person.yaml", d.Source.File)
	assert.Equal(t, 3, d.Source.Line)

	require.NotNil(t, d.Pojo)
	require.Len(t, d.Pojo.Fields, 3)
	assert.Equal(t, "name", d.Pojo.Fields[0].Name)
	assert.Equal(t, "String", d.Pojo.Fields[0].Type.String())
	assert.True(t, d.Pojo.Fields[0].Required)
	assert.Equal(t, "Int", d.Pojo.Fields[1].Type.String())
	assert.True(t, d.Pojo.Fields[2].Inline())
	assert.Equal(t, "email", d.Pojo.Fields[2].Properties[0].Name)
}

func TestLoader_LoadExchange(t *testing.T) {
	// Test: Exchange descriptors carry types, APIs and endpoint messages
	base := t.TempDir()
	writeFile(t, base, ExchangesDir+"/binance.yaml", binanceYAML)

	l := NewLoader(0, zerolog.Nop())
	descriptors, err := l.Load(context.Background(), base, KindExchange)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	d := descriptors[0]
	assert.Equal(t, "com.example.binance.Binance", d.Name)
	require.NotNil(t, d.Exchange)
	assert.Equal(t, "https://binance-docs.github.io/apidocs", d.Exchange.DocURL)
	require.Len(t, d.Exchange.Types, 1)
	require.Len(t, d.Exchange.Apis, 1)

	api := d.Exchange.Apis[0]
	require.Len(t, api.Rest, 1)
	rest := api.Rest[0]
	assert.Equal(t, "GET", rest.Method, "method defaults to GET")
	require.NotNil(t, rest.Request)
	assert.True(t, rest.Request.Inline())
	require.NotNil(t, rest.Response)
	assert.Equal(t, "Ticker", rest.Response.Type.String())

	require.Len(t, api.Websocket, 1)
	ws := api.Websocket[0]
	assert.Equal(t, "<symbol>@trade", ws.Topic)
	require.NotNil(t, ws.Response)
	assert.Equal(t, "[Ticker]", ws.Response.Type.String())
}

func TestLoader_MissingDirectory(t *testing.T) {
	// Test: A project without descriptors loads nothing and does not fail
	l := NewLoader(1, zerolog.Nop())
	descriptors, err := l.Load(context.Background(), t.TempDir(), KindExchange)
	require.NoError(t, err)
	assert.Empty(t, descriptors)
}

func TestLoader_JSONDescriptor(t *testing.T) {
	// Test: JSON files are accepted with the same schema
	base := t.TempDir()
	writeFile(t, base, PojosDir+"/order.json", `{
  "package": "com.example.model",
  "pojos": [
    {"name": "Order", "fields": [{"name": "id", "type": "Long"}, {"name": "lines", "type": "[String]"}]}
  ]
}`)

	descriptors, err := NewLoader(1, zerolog.Nop()).Load(context.Background(), base, KindPojo)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "com.example.model.Order", descriptors[0].Name)
	assert.Equal(t, "[String]", descriptors[0].Pojo.Fields[1].Type.String())
}

func TestLoader_SortedAcrossFiles(t *testing.T) {
	// Test: Descriptors from several files come back ordered by name
	base := t.TempDir()
	writeFile(t, base, PojosDir+"/z.yaml", "package: a.b\npojos:\n  - name: Alpha\n    fields: []\n")
	writeFile(t, base, PojosDir+"/a.yaml", "package: a.b\npojos:\n  - name: Zulu\n    fields: []\n  - name: Mike\n    fields: []\n")
	writeFile(t, base, PojosDir+"/.hidden/skip.yaml", "not: valid")
	writeFile(t, base, PojosDir+"/readme.txt", "ignored")

	descriptors, err := NewLoader(3, zerolog.Nop()).Load(context.Background(), base, KindPojo)
	require.NoError(t, err)

	var names []string
	for _, d := range descriptors {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"a.b.Alpha", "a.b.Mike", "a.b.Zulu"}, names)
}

func TestLoader_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLine  int
		wantField string
		contains  string
	}{
		{
			name:     "invalid yaml",
			content:  "package: a\npojos:\n  - name: [\n",
			contains: "invalid YAML",
		},
		{
			name:      "missing required name",
			content:   "package: a\npojos:\n  - fields: []\n",
			wantLine:  3,
			wantField: "pojos/0",
		},
		{
			name:      "unknown property",
			content:   "package: a\npojos:\n  - name: A\n    fields: []\n    colour: red\n",
			wantLine:  3,
			wantField: "pojos/0",
		},
		{
			name:      "invalid identifier",
			content:   "package: a\npojos:\n  - name: 9lives\n    fields: []\n",
			wantLine:  3,
			wantField: "pojos/0/name",
		},
		{
			name:      "bad type expression",
			content:   "package: a\npojos:\n  - name: A\n    fields:\n      - name: x\n        type: \"[String\"\n",
			wantLine:  5,
			wantField: "pojos/0/fields/0/type",
			contains:  "invalid type expression",
		},
		{
			name:      "duplicate field",
			content:   "package: a\npojos:\n  - name: A\n    fields:\n      - name: x\n        type: String\n      - name: x\n        type: Int\n",
			wantLine:  7,
			wantField: "pojos/0/fields/1/name",
			contains:  "duplicate field",
		},
		{
			name:     "empty file",
			content:  "",
			contains: "empty descriptor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			writeFile(t, base, PojosDir+"/bad.yaml", tt.content)

			_, err := NewLoader(1, zerolog.Nop()).Load(context.Background(), base, KindPojo)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError, got %T", err)
			assert.Equal(t, PojosDir+"/bad.yaml", pe.File)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, pe.Line)
			}
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, pe.Field)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLoader_InvalidDefaults(t *testing.T) {
	// Test: defaults that no target can render fail at load time with the field path
	tests := []struct {
		name     string
		field    string
		contains string
	}{
		{name: "NaN double", field: `{name: ratio, type: Double, default: "NaN"}`, contains: "not a decimal literal"},
		{name: "Inf big decimal", field: `{name: big, type: BigDecimal, default: "Inf"}`, contains: "not a decimal literal"},
		{name: "leading zero int", field: `{name: count, type: Int, default: "08"}`, contains: "not a decimal integer literal"},
		{name: "word on int", field: `{name: bad, type: Int, default: "abc"}`, contains: "not a decimal integer literal"},
		{name: "float overflow", field: `{name: huge, type: Float, default: "1e100"}`, contains: "does not fit"},
		{name: "int overflow", field: `{name: wide, type: Int, default: "2147483648"}`, contains: "does not fit"},
		{name: "yes on boolean", field: `{name: flag, type: Boolean, default: "yes"}`, contains: "not true or false"},
		{name: "list", field: `{name: tags, type: "[String]", default: "a"}`, contains: "only supported on scalar fields"},
		{name: "time", field: `{name: at, type: Time, default: "2024-01-01T00:00:00Z"}`, contains: "not supported on Time fields"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			writeFile(t, base, PojosDir+"/cfg.yaml", "package: a\npojos:\n  - name: Cfg\n    fields:\n      - {name: ok, type: String}\n      - "+tt.field+"\n")

			_, err := NewLoader(1, zerolog.Nop()).Load(context.Background(), base, KindPojo)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 6, pe.Line)
			assert.Equal(t, "pojos/0/fields/1/default", pe.Field)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoader_InlineFieldDefault(t *testing.T) {
	base := t.TempDir()
	writeFile(t, base, PojosDir+"/a.yaml", `package: a
pojos:
  - name: A
    fields:
      - name: inner
        default: x
        properties:
          - {name: v, type: String}
`)

	_, err := NewLoader(1, zerolog.Nop()).Load(context.Background(), base, KindPojo)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "pojos/0/fields/0/default", pe.Field)
}

func TestLoader_DuplicateDescriptor(t *testing.T) {
	// Test: The same fully-qualified name in two files is rejected
	base := t.TempDir()
	writeFile(t, base, PojosDir+"/a.yaml", "package: x\npojos:\n  - name: Dup\n    fields: []\n")
	writeFile(t, base, PojosDir+"/b.yaml", "package: x\npojos:\n  - name: Dup\n    fields: []\n")

	_, err := NewLoader(2, zerolog.Nop()).Load(context.Background(), base, KindPojo)
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PojosDir+"/b.yaml", pe.File)
	assert.Contains(t, pe.Error(), `duplicate descriptor "x.Dup"`)
}

func TestLoader_FirstErrorInFileOrder(t *testing.T) {
	// Test: With several broken files the reported error is always the first by path
	base := t.TempDir()
	for _, name := range []string{"c.yaml", "a.yaml", "b.yaml"} {
		writeFile(t, base, PojosDir+"/"+name, "package: x\n")
	}

	for i := 0; i < 10; i++ {
		_, err := NewLoader(3, zerolog.Nop()).Load(context.Background(), base, KindPojo)
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, PojosDir+"/a.yaml", pe.File)
	}
}

func TestLoader_ExchangeSchemaErrors(t *testing.T) {
	// Test: Exchange-specific schema rules are enforced
	base := t.TempDir()
	writeFile(t, base, ExchangesDir+"/bad.yaml", `id: X
package: com.x
apis:
  - name: Spot
    rest:
      - name: ping
        method: FETCH
        path: /ping
`)

	_, err := NewLoader(1, zerolog.Nop()).Load(context.Background(), base, KindExchange)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 7, pe.Line)
	assert.Equal(t, "apis/0/rest/0/method", pe.Field)
}

func TestLoader_GraphQLOnlyForPojos(t *testing.T) {
	// Test: GraphQL files are not discovered for exchanges and rejected by Parse
	base := t.TempDir()
	writeFile(t, base, ExchangesDir+"/x.graphql", "type A { b: String }")

	files, err := Discover(base, KindExchange)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = Parse("x.graphql", KindExchange, []byte("type A { b: String }"))
	assert.Error(t, err)
}

func TestLoader_Cancelled(t *testing.T) {
	// Test: A cancelled context stops loading
	base := t.TempDir()
	writeFile(t, base, PojosDir+"/person.yaml", personYAML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(1, zerolog.Nop()).Load(ctx, base, KindPojo)
	assert.ErrorIs(t, err, context.Canceled)
}
