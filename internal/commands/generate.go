package commands

import (
	"context"
	"fmt"

	"github.com/jxapi/jxgen/internal/generator"
	"github.com/jxapi/jxgen/internal/model"
)

// GenerateOptions are command line overrides. Empty values keep what
// jxgen.yaml or its defaults say.
type GenerateOptions struct {
	MainDir     string
	TestDir     string
	JavaDocURL  string
	SrcURL      string
	Target      string
	PackageName string
	Workers     int
}

func (o GenerateOptions) apply(req generator.Request) generator.Request {
	if o.MainDir != "" {
		req.MainDir = o.MainDir
	}
	if o.TestDir != "" {
		req.TestDir = o.TestDir
	}
	if o.JavaDocURL != "" {
		req.BaseJavaDocURL = o.JavaDocURL
	}
	if o.SrcURL != "" {
		req.BaseSrcURL = o.SrcURL
	}
	if o.Target != "" {
		req.Target = o.Target
	}
	if o.PackageName != "" {
		req.PackageName = o.PackageName
	}
	if o.Workers > 0 {
		req.Workers = o.Workers
	}
	return req
}

// Exchanges generates exchange wrappers and their test skeletons
func (c *Controller) Exchanges(ctx context.Context, opts GenerateOptions) error {
	cfg, root, err := c.project()
	if err != nil {
		return err
	}
	req := opts.apply(cfg.ExchangeRequest(root))
	result, err := c.Orchestrator.GenerateExchangeWrappers(ctx, req)
	return c.finish(model.ModeExchange, result, err)
}

// Pojos generates plain data classes
func (c *Controller) Pojos(ctx context.Context, opts GenerateOptions) error {
	cfg, root, err := c.project()
	if err != nil {
		return err
	}
	// POJO generation has no test root or documentation links
	opts.TestDir, opts.JavaDocURL, opts.SrcURL = "", "", ""
	req := opts.apply(cfg.PojoRequest(root))
	result, err := c.Orchestrator.GeneratePojos(ctx, req)
	return c.finish(model.ModePojo, result, err)
}

func (c *Controller) finish(mode model.Mode, result *generator.Result, err error) error {
	if err != nil {
		f := generator.Describe(err)
		c.Logger.Debug().Err(err).Str("kind", string(f.Kind)).Msg("Generation failed")
		return fmt.Errorf("%s generation failed [%s]: %w", mode, f.Kind, err)
	}

	fmt.Fprintf(c.Out, "✅ Generated %d %s file(s) for %s (%d written, %d unchanged)\n",
		len(result.Units), result.Target, mode, result.Stats.Written, result.Stats.Unchanged)
	return nil
}
