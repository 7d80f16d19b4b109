package dev

import (
	"context"

	"github.com/jxapi/jxgen/internal/generator"
)

// Generator runs one generation mode. *generator.Orchestrator implements it.
type Generator interface {
	GenerateExchangeWrappers(ctx context.Context, req generator.Request) (*generator.Result, error)
	GeneratePojos(ctx context.Context, req generator.Request) (*generator.Result, error)
}
