package generator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/emit"
	"github.com/jxapi/jxgen/internal/model"
)

// Result is what a successful run produced
type Result struct {
	Mode    model.Mode     `json:"mode" yaml:"mode"`
	Target  string         `json:"target" yaml:"target"`
	MainDir string         `json:"mainDir" yaml:"mainDir"`
	TestDir string         `json:"testDir,omitempty" yaml:"testDir,omitempty"`
	Units   []codegen.Unit `json:"units" yaml:"units"`
	Stats   emit.Stats     `json:"stats" yaml:"stats"`
}

// Orchestrator wires the descriptor loader, model builder and code
// emitter together
type Orchestrator struct {
	registry *codegen.Registry
	builder  *model.Builder
	logger   zerolog.Logger
}

// New creates an orchestrator that looks targets up in registry
func New(registry *codegen.Registry, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		builder:  model.NewBuilder(logger),
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// GenerateExchangeWrappers generates exchange wrappers and their test
// skeletons
func (o *Orchestrator) GenerateExchangeWrappers(ctx context.Context, req Request) (*Result, error) {
	return o.Generate(ctx, model.ModeExchange, req)
}

// GeneratePojos generates plain data classes
func (o *Orchestrator) GeneratePojos(ctx context.Context, req Request) (*Result, error) {
	return o.Generate(ctx, model.ModePojo, req)
}

// Generate runs one mode end to end. The output roots are created first.
// A load, resolution or rendering failure returns before any unit is
// written.
func (o *Orchestrator) Generate(ctx context.Context, mode model.Mode, req Request) (*Result, error) {
	req = req.withDefaults(mode)
	roots := emit.Roots{Main: req.resolve(req.MainDir), Test: req.resolve(req.TestDir)}

	gen, err := o.registry.Get(req.Target)
	if err != nil {
		return nil, err
	}

	if err := emit.EnsureRoots(roots); err != nil {
		return nil, err
	}

	m, err := o.resolve(ctx, mode, req)
	if err != nil {
		return nil, err
	}

	units, err := gen.Generate(m, codegen.Options{
		BaseJavaDocURL: req.BaseJavaDocURL,
		BaseSrcURL:     req.BaseSrcURL,
		PackageName:    req.PackageName,
		IncludeTests:   mode == model.ModeExchange,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s code: %w", gen.Language(), err)
	}

	stats, err := emit.New(req.Workers, o.logger).Emit(ctx, roots, units)
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("mode", string(mode)).
		Str("target", gen.Language()).
		Int("units", len(units)).
		Int("written", stats.Written).
		Int("unchanged", stats.Unchanged).
		Msg("Generation complete")

	return &Result{
		Mode:    mode,
		Target:  gen.Language(),
		MainDir: roots.Main,
		TestDir: roots.Test,
		Units:   units,
		Stats:   stats,
	}, nil
}

// Inspect loads and resolves the descriptors of one mode without emitting
// anything
func (o *Orchestrator) Inspect(ctx context.Context, mode model.Mode, req Request) (*model.Model, error) {
	return o.resolve(ctx, mode, req.withDefaults(mode))
}

func (o *Orchestrator) resolve(ctx context.Context, mode model.Mode, req Request) (*model.Model, error) {
	loader := descriptor.NewLoader(req.Workers, o.logger)

	var descriptors, external []*descriptor.Descriptor
	var err error
	switch mode {
	case model.ModeExchange:
		descriptors, err = loader.Load(ctx, req.BaseDir, descriptor.KindExchange)
		if err != nil {
			return nil, err
		}
		// Shared POJOs are reference targets for exchanges
		external, err = loader.Load(ctx, req.BaseDir, descriptor.KindPojo)
		if err != nil {
			return nil, err
		}
	case model.ModePojo:
		descriptors, err = loader.Load(ctx, req.BaseDir, descriptor.KindPojo)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	o.logger.Debug().
		Str("mode", string(mode)).
		Int("descriptors", len(descriptors)).
		Int("external", len(external)).
		Msg("Loaded descriptors")

	return o.builder.Build(mode, descriptors, external)
}
