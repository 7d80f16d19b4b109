package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jxapi/jxgen/internal/generator"
	"github.com/jxapi/jxgen/internal/model"
)

// Inspect prints the resolved model of one mode. When resolution fails the
// structured failure is printed instead and the error is returned.
func (c *Controller) Inspect(ctx context.Context, mode, format string) error {
	m, ok := model.ParseMode(mode)
	if !ok {
		return fmt.Errorf("unknown mode %q (expected exchanges or pojos)", mode)
	}
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q (expected json or yaml)", format)
	}

	cfg, root, err := c.project()
	if err != nil {
		return err
	}
	req := cfg.PojoRequest(root)
	if m == model.ModeExchange {
		req = cfg.ExchangeRequest(root)
	}

	resolved, err := c.Orchestrator.Inspect(ctx, m, req)
	if err != nil {
		if encErr := encode(c.Out, format, generator.Describe(err)); encErr != nil {
			return encErr
		}
		return fmt.Errorf("%s inspection failed: %w", m, err)
	}
	return encode(c.Out, format, resolved)
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
