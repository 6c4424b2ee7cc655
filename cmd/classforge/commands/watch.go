package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/classforge/internal/config"
	"git.home.luguber.info/inful/classforge/internal/logfields"
	"git.home.luguber.info/inful/classforge/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Transformer []string `short:"t" help:"Transformer to run (repeatable)"`
	Workspace   string   `short:"w" help:"Primary resource directory (overrides workspace.path)"`
	Output      string   `short:"o" help:"Output directory (defaults to the workspace, in place)"`
	Debounce    string   `help:"Quiet period before a run, e.g. 500ms (overrides watch.debounce)"`
	SkipInitial bool     `help:"Do not run once at startup"`
}

// Run executes the watch command.
func (cmd *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	run := RunCmd{Workspace: cmd.Workspace, Output: cmd.Output}
	run.apply(cfg)
	if cmd.Debounce != "" {
		var d config.Duration
		if err := d.UnmarshalText([]byte(cmd.Debounce)); err != nil {
			return err
		}
		cfg.Watch.Debounce = d
	}
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

	handler := func(ctx context.Context) error {
		result, err := p.execute(ctx, runOptions{Transformers: names})
		if err != nil {
			return err
		}
		logger.Info("Watch run complete", logfields.RunID(result.RunID()), logfields.Count(len(result.TransformedClasses())))
		return nil
	}

	// Register before the initial run so edits made during it are not lost.
	w, err := watch.New(cfg.Workspace.Path, cfg.Watch.Debounce.Std(), handler, logger)
	if err != nil {
		return err
	}
	if !cmd.SkipInitial {
		if err := handler(ctx); err != nil {
			logger.Error("Initial run failed", logfields.Error(err))
		}
	}
	return w.Run(ctx)
}
