package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
)

// Diag probes every upstream and prints one line per result.
func (r *Runner) Diag(ctx context.Context, cmd *cli.Command) error {
	results := r.diagnostics.Run(ctx)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"results": results}, true)
	}

	for _, res := range results {
		switch res.Status {
		case models.DiagOK:
			r.writePlain("✓ %s (%dms)\n", res.Name, res.LatencyMS)
		case models.DiagSkipped:
			r.writePlain("- %s: %s\n", res.Name, res.Message)
		default:
			r.writePlain("✗ %s: %s\n", res.Name, res.Message)
		}
	}
	return nil
}
