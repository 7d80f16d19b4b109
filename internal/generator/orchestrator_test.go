package generator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/codegen/targets"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/emit"
	"github.com/jxapi/jxgen/internal/model"
)

const personPojo = `package: com.example.model
pojos:
  - name: Person
    fields:
      - name: name
        type: String
      - name: age
        type: Int
`

const tradePojo = `package: com.example.model
pojos:
  - name: Trade
    fields:
      - name: price
        type: BigDecimal
`

const binanceExchange = `id: Binance
package: com.example.binance
types:
  - name: Ticker
    fields:
      - name: symbol
        type: String
apis:
  - name: Spot
    rest:
      - name: getTicker
        path: /api/v3/ticker/price
        response: Ticker
    websocket:
      - name: trades
        topic: "<symbol>@trade"
        message: Trade
`

const brokenExchange = `id: Kraken
package: com.example.kraken
apis:
  - name: Spot
    rest:
      - name: getBalance
        path: /balance
        response: Balance
`

func newOrchestrator() *Orchestrator {
	return New(targets.DefaultRegistry, zerolog.Nop())
}

func writeDescriptor(t *testing.T, base string, kind descriptor.Kind, name, content string) {
	t.Helper()
	path := filepath.Join(base, descriptor.Dir(kind), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// snapshot returns every regular file under dir with its content
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if os.IsNotExist(err) {
		return files
	}
	require.NoError(t, err)
	return files
}

func unitPaths(units []codegen.Unit) []string {
	paths := make([]string, len(units))
	for i, u := range units {
		paths[i] = string(u.Root) + ":" + u.Path
	}
	sort.Strings(paths)
	return paths
}

func TestGeneratePojos_SinglePerson(t *testing.T) {
	// Test: one POJO with two fields produces exactly one main unit
	base := t.TempDir()
	writeDescriptor(t, base, descriptor.KindPojo, "person.yaml", personPojo)

	result, err := newOrchestrator().GeneratePojos(context.Background(), Request{BaseDir: base})
	require.NoError(t, err)

	require.Len(t, result.Units, 1)
	assert.Equal(t, codegen.MainRoot, result.Units[0].Root)
	assert.Equal(t, "com/example/model/Person.java", result.Units[0].Path)
	assert.Equal(t, emit.Stats{Written: 1}, result.Stats)
	assert.Equal(t, filepath.Join(base, DefaultPojoMainDir), result.MainDir)
	assert.Empty(t, result.TestDir)

	content, err := os.ReadFile(filepath.Join(base, DefaultPojoMainDir, "com", "example", "model", "Person.java"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "public class Person")
	assert.Contains(t, string(content), "private String name;")
	assert.Contains(t, string(content), "private Integer age;")
}

func TestGenerate_Idempotent(t *testing.T) {
	tests := []struct {
		name string
		mode model.Mode
	}{
		{name: "pojos", mode: model.ModePojo},
		{name: "exchanges", mode: model.ModeExchange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Test: a second run over unchanged descriptors rewrites nothing
			base := t.TempDir()
			writeDescriptor(t, base, descriptor.KindPojo, "trade.yaml", tradePojo)
			writeDescriptor(t, base, descriptor.KindExchange, "binance.yaml", binanceExchange)

			o := newOrchestrator()
			first, err := o.Generate(context.Background(), tt.mode, Request{BaseDir: base})
			require.NoError(t, err)
			require.NotEmpty(t, first.Units)
			before := snapshot(t, base)

			second, err := o.Generate(context.Background(), tt.mode, Request{BaseDir: base})
			require.NoError(t, err)
			assert.Equal(t, 0, second.Stats.Written)
			assert.Equal(t, len(first.Units), second.Stats.Unchanged)
			assert.Equal(t, before, snapshot(t, base))

			for i := range first.Units {
				assert.Equal(t, first.Units[i].Path, second.Units[i].Path)
				assert.Equal(t, first.Units[i].Content, second.Units[i].Content)
			}
		})
	}
}

func TestGenerateExchangeWrappers(t *testing.T) {
	// Test: exchange mode writes wrappers and tests but not the shared POJOs it references
	base := t.TempDir()
	writeDescriptor(t, base, descriptor.KindPojo, "trade.yaml", tradePojo)
	writeDescriptor(t, base, descriptor.KindExchange, "binance.yaml", binanceExchange)

	result, err := newOrchestrator().GenerateExchangeWrappers(context.Background(), Request{BaseDir: base})
	require.NoError(t, err)

	assert.Equal(t, model.ModeExchange, result.Mode)
	assert.Equal(t, "java", result.Target)
	for _, p := range unitPaths(result.Units) {
		assert.NotContains(t, p, "com/example/model/Trade")
	}
	assert.Contains(t, unitPaths(result.Units), "main:com/example/binance/BinanceExchange.java")
	assert.Contains(t, unitPaths(result.Units), "test:com/example/binance/BinanceExchangeTest.java")

	_, err = os.Stat(filepath.Join(base, DefaultExchangeTestDir, "com", "example", "binance", "BinanceExchangeTest.java"))
	assert.NoError(t, err)
}

func TestGenerate_RootsCreatedAndUnrelatedFilesKept(t *testing.T) {
	// Test: missing roots are created and files the run does not produce survive
	base := t.TempDir()
	writeDescriptor(t, base, descriptor.KindPojo, "trade.yaml", tradePojo)
	writeDescriptor(t, base, descriptor.KindExchange, "binance.yaml", binanceExchange)

	mainDir := filepath.Join(base, "out", "main")
	testDir := filepath.Join(base, "out", "test")
	unrelated := filepath.Join(mainDir, "handwritten", "Keep.java")
	require.NoError(t, os.MkdirAll(filepath.Dir(unrelated), 0755))
	require.NoError(t, os.WriteFile(unrelated, []byte("class Keep {}"), 0644))

	_, err := newOrchestrator().GenerateExchangeWrappers(context.Background(), Request{
		BaseDir: base,
		MainDir: "out/main",
		TestDir: testDir,
	})
	require.NoError(t, err)

	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := os.ReadFile(unrelated)
	require.NoError(t, err)
	assert.Equal(t, "class Keep {}", string(data))
}

func TestGenerate_EmptyProject(t *testing.T) {
	// Test: no descriptor directory is not an error and still creates the roots
	base := t.TempDir()

	result, err := newOrchestrator().GenerateExchangeWrappers(context.Background(), Request{BaseDir: base})
	require.NoError(t, err)
	assert.Empty(t, result.Units)

	for _, dir := range []string{DefaultExchangeMainDir, DefaultExchangeTestDir} {
		_, err := os.Stat(filepath.Join(base, dir))
		assert.NoError(t, err, dir)
	}
}

func TestGenerate_UnresolvedReferenceWritesNothing(t *testing.T) {
	// Test: an undefined type aborts the run with zero units written
	base := t.TempDir()
	writeDescriptor(t, base, descriptor.KindPojo, "trade.yaml", tradePojo)
	writeDescriptor(t, base, descriptor.KindExchange, "binance.yaml", binanceExchange)
	writeDescriptor(t, base, descriptor.KindExchange, "kraken.yaml", brokenExchange)

	result, err := newOrchestrator().GenerateExchangeWrappers(context.Background(), Request{BaseDir: base})
	require.Error(t, err)
	assert.Nil(t, result)

	var ure *model.UnresolvedReferenceError
	require.ErrorAs(t, err, &ure)
	assert.Equal(t, "Balance", ure.Type)
	assert.Equal(t, "com.example.kraken.Kraken", ure.Exchange)

	assert.Empty(t, snapshot(t, filepath.Join(base, DefaultExchangeMainDir)))
	assert.Empty(t, snapshot(t, filepath.Join(base, DefaultExchangeTestDir)))

	failure := Describe(err)
	assert.Equal(t, KindUnresolvedReference, failure.Kind)
	assert.Equal(t, filepath.ToSlash(filepath.Join(descriptor.ExchangesDir, "kraken.yaml")), filepath.ToSlash(failure.File))
}

func TestGenerate_ParseErrorWritesNothing(t *testing.T) {
	base := t.TempDir()
	writeDescriptor(t, base, descriptor.KindPojo, "person.yaml", personPojo)
	writeDescriptor(t, base, descriptor.KindPojo, "broken.yaml", "package: a\npojos:\n  - name: [\n")

	_, err := newOrchestrator().GeneratePojos(context.Background(), Request{BaseDir: base})
	require.Error(t, err)

	var pe *descriptor.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindParse, Describe(err).Kind)
	assert.Empty(t, snapshot(t, filepath.Join(base, DefaultPojoMainDir)))
}

func TestGenerate_UnknownTarget(t *testing.T) {
	base := t.TempDir()
	_, err := newOrchestrator().GeneratePojos(context.Background(), Request{BaseDir: base, Target: "cobol"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"cobol"`)

	// Test: nothing is created for a request that cannot run
	_, statErr := os.Stat(filepath.Join(base, DefaultPojoMainDir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerate_Targets(t *testing.T) {
	tests := []struct {
		target string
		path   string
	}{
		{target: "java", path: "main:com/example/model/Person.java"},
		{target: "go", path: "main:jxapi/person_gen.go"},
		{target: "proto", path: "main:com/example/model/model.proto"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			// Test: every registered target runs through the same pipeline
			base := t.TempDir()
			writeDescriptor(t, base, descriptor.KindPojo, "person.yaml", personPojo)

			result, err := newOrchestrator().GeneratePojos(context.Background(), Request{BaseDir: base, Target: tt.target})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.path}, unitPaths(result.Units))
		})
	}
}

func TestInspect(t *testing.T) {
	// Test: inspect resolves the model without touching the output roots
	base := t.TempDir()
	writeDescriptor(t, base, descriptor.KindPojo, "trade.yaml", tradePojo)
	writeDescriptor(t, base, descriptor.KindExchange, "binance.yaml", binanceExchange)

	m, err := newOrchestrator().Inspect(context.Background(), model.ModeExchange, Request{BaseDir: base})
	require.NoError(t, err)
	require.Len(t, m.Exchanges, 1)
	assert.Equal(t, "Binance", m.Exchanges[0].ID)

	_, statErr := os.Stat(filepath.Join(base, "target"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRequest_Roots(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		mode     model.Mode
		wantMain string
		wantTest string
	}{
		{
			name:     "exchange defaults",
			req:      Request{BaseDir: "/p"},
			mode:     model.ModeExchange,
			wantMain: "/p/target/generated-sources/jxapi",
			wantTest: "/p/target/generated-test-sources/jxapi",
		},
		{
			name:     "pojo ignores test dir",
			req:      Request{BaseDir: "/p", TestDir: "t"},
			mode:     model.ModePojo,
			wantMain: "/p/target/generated-sources",
		},
		{
			name:     "absolute dirs kept",
			req:      Request{BaseDir: "/p", MainDir: "/out/main", TestDir: "rel"},
			mode:     model.ModeExchange,
			wantMain: "/out/main",
			wantTest: "/p/rel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.wantMain), tt.req.MainRoot(tt.mode))
			assert.Equal(t, filepath.FromSlash(tt.wantTest), tt.req.TestRoot(tt.mode))
		})
	}
}

func TestDescribe(t *testing.T) {
	src := descriptor.Source{File: "pojos/a.yaml", Line: 4}
	tests := []struct {
		name string
		err  error
		want Failure
	}{
		{
			name: "parse",
			err:  &descriptor.ParseError{File: "pojos/a.yaml", Line: 2, Message: "bad"},
			want: Failure{Kind: KindParse, File: "pojos/a.yaml", Line: 2},
		},
		{
			name: "unresolved field",
			err:  &model.UnresolvedReferenceError{Type: "X", Referrer: model.Referrer{Entity: "a.A", Field: "x", Source: src}},
			want: Failure{Kind: KindUnresolvedReference, File: "pojos/a.yaml", Line: 4, Entity: "a.A"},
		},
		{
			name: "unresolved endpoint",
			err:  &model.UnresolvedReferenceError{Type: "X", Referrer: model.Referrer{Exchange: "a.K", Endpoint: "Spot.get", Source: src}},
			want: Failure{Kind: KindUnresolvedReference, File: "pojos/a.yaml", Line: 4, Entity: "a.K.Spot.get"},
		},
		{
			name: "ambiguous",
			err:  &model.AmbiguousReferenceError{Type: "X", Referrer: model.Referrer{Entity: "a.A", Source: src}},
			want: Failure{Kind: KindAmbiguousReference, File: "pojos/a.yaml", Line: 4, Entity: "a.A"},
		},
		{
			name: "cyclic",
			err:  &model.CyclicReferenceError{Path: []string{"a.A", "a.B", "a.A"}, Source: src},
			want: Failure{Kind: KindCyclicReference, File: "pojos/a.yaml", Line: 4, Entity: "a.A"},
		},
		{
			name: "duplicate",
			err:  &model.DuplicateDefinitionError{Name: "a.A", Source: src},
			want: Failure{Kind: KindDuplicateDefinition, File: "pojos/a.yaml", Line: 4, Entity: "a.A"},
		},
		{
			name: "unsupported wrapped",
			err:  fmt.Errorf("failed to generate proto code: %w", &codegen.UnsupportedTypeError{Target: "proto", Entity: "a.A"}),
			want: Failure{Kind: KindUnsupportedType, Entity: "a.A"},
		},
		{
			name: "emission",
			err:  &emit.IOError{Op: "write", Path: "out/A.java", Err: os.ErrPermission},
			want: Failure{Kind: KindEmissionIO, File: "out/A.java"},
		},
		{
			name: "canceled",
			err:  fmt.Errorf("load: %w", context.Canceled),
			want: Failure{Kind: KindCanceled},
		},
		{
			name: "other",
			err:  fmt.Errorf("boom"),
			want: Failure{Kind: KindInternal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.err)
			require.NotNil(t, got)
			tt.want.Message = tt.err.Error()
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, Describe(nil))
}
