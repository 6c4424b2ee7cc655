package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/classforge/internal/config"
	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/transform"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Transformer    []string `short:"t" help:"Transformer to run (repeatable; dependencies are added automatically)"`
	Workspace      string   `short:"w" help:"Primary resource directory (overrides workspace.path)"`
	Output         string   `short:"o" help:"Output directory (defaults to the workspace, in place)"`
	MaxPasses      int      `help:"Maximum passes per bundle (overrides run.max_passes)"`
	Workers        int      `help:"Worker pool size (overrides run.workers)"`
	NoParallel     bool     `help:"Run tasks one at a time"`
	DryRun         bool     `help:"Run transformers but do not write anything"`
	FailOnFailures bool     `help:"Exit non-zero when any class failed to transform"`
	Report         string   `help:"Write a run report to this path (overrides output.report.path)"`
}

// Run executes the run command.
func (cmd *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	cmd.apply(cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	logger := root.setupLogging(g, cfg)

	names, err := selectTransformers(cmd.Transformer, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.execute(ctx, runOptions{Transformers: names, DryRun: cmd.DryRun, ReportPath: cmd.Report})
	if err != nil {
		return err
	}
	return cmd.checkFailures(result)
}

// apply layers flags over the loaded configuration.
func (cmd *RunCmd) apply(cfg *config.Config) {
	if cmd.Workspace != "" {
		if cfg.Output.Path == cfg.Workspace.Path {
			cfg.Output.Path = cmd.Workspace
		}
		cfg.Workspace.Path = cmd.Workspace
	}
	if cmd.Output != "" {
		cfg.Output.Path = cmd.Output
	}
	if cmd.MaxPasses != 0 {
		cfg.Run.MaxPasses = cmd.MaxPasses
	}
	if cmd.Workers != 0 {
		cfg.Run.Workers = cmd.Workers
	}
	if cmd.NoParallel {
		parallel := false
		cfg.Run.Parallel = &parallel
	}
}

func (cmd *RunCmd) checkFailures(result *transform.Result) error {
	if !cmd.FailOnFailures || !result.HasFailures() {
		return nil
	}
	return foundationerrors.TransformError("run completed with failures").
		WithContext("run_id", result.RunID()).
		WithContext("failures", len(result.Failures())).
		Build()
}
