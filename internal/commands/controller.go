// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/jxapi/jxgen/internal/codegen/targets"
	"github.com/jxapi/jxgen/internal/config"
	"github.com/jxapi/jxgen/internal/generator"
	"github.com/jxapi/jxgen/internal/model"
)

type Flags struct {
	LogLevel string
	Dir      string
}

// Orchestrator runs generation for the commands. *generator.Orchestrator
// implements it.
type Orchestrator interface {
	GenerateExchangeWrappers(ctx context.Context, req generator.Request) (*generator.Result, error)
	GeneratePojos(ctx context.Context, req generator.Request) (*generator.Result, error)
	Inspect(ctx context.Context, mode model.Mode, req generator.Request) (*model.Model, error)
}

type Controller struct {
	Flags        *Flags
	Orchestrator Orchestrator
	Out          io.Writer
	Logger       zerolog.Logger
}

// NewController wires the default orchestrator with every registered target
func NewController(flags *Flags, logger zerolog.Logger) *Controller {
	return &Controller{
		Flags:        flags,
		Orchestrator: generator.New(targets.DefaultRegistry, logger),
		Out:          os.Stdout,
		Logger:       logger,
	}
}

func (c *Controller) dir() string {
	if c.Flags == nil || c.Flags.Dir == "" {
		return "."
	}
	return c.Flags.Dir
}

// project loads the configuration for the working project and returns it
// with the project root
func (c *Controller) project() (*config.Config, string, error) {
	return config.Load(c.dir())
}
