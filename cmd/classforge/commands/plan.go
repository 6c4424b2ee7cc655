package commands

import (
	"fmt"
	"log/slog"
	"os"

	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/transformers"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Transformer []string `short:"t" help:"Transformer to plan (repeatable)"`
	Format      string   `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output      string   `short:"o" help:"Output file path (prints to stdout if not specified)"`
}

// Run executes the plan command.
func (cmd *PlanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	root.setupLogging(g, cfg)

	names, err := selectTransformers(cmd.Transformer, cfg)
	if err != nil {
		return err
	}
	reg, err := transformers.NewRegistry(transformers.Options(cfg.Transformers))
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid transformer options").Build()
	}
	queue, err := transform.ResolveQueue(reg, names)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryTransform, "failed to resolve transformer queue").Build()
	}

	output, err := transform.VisualizeQueue(queue, transform.VisualizationFormat(cmd.Format))
	if err != nil {
		return err
	}
	if cmd.Output == "" {
		fmt.Print(output)
		return nil
	}
	if err := os.WriteFile(cmd.Output, []byte(output), 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write plan").
			WithContext("path", cmd.Output).Build()
	}
	slog.Info("Plan written", "file", cmd.Output, "format", cmd.Format)
	return nil
}
