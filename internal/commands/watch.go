package commands

import (
	"context"

	"github.com/jxapi/jxgen/internal/dev"
)

// Watch regenerates both modes whenever descriptors change
func (c *Controller) Watch(ctx context.Context) error {
	cfg, root, err := c.project()
	if err != nil {
		return err
	}
	return dev.NewSession(cfg, root, c.Orchestrator, c.Out, c.Logger).Start(ctx)
}
