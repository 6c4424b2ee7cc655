package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/config"
	"git.home.luguber.info/inful/classforge/internal/eventstore"
	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/logfields"
	"git.home.luguber.info/inful/classforge/internal/metrics"
	"git.home.luguber.info/inful/classforge/internal/notify"
	"git.home.luguber.info/inful/classforge/internal/report"
	"git.home.luguber.info/inful/classforge/internal/retry"
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/transformers"
	"git.home.luguber.info/inful/classforge/internal/vcs"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// runOptions are the per-invocation knobs layered over the configuration.
type runOptions struct {
	Transformers []string
	DryRun       bool
	ReportPath   string
}

// pipeline owns the long-lived collaborators of one command invocation:
// the event journal, the NATS publisher and the metrics endpoint.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	codec    classfile.Codec
	recorder metrics.Recorder
	feedback []transform.Feedback
	closers  []func()
}

func newPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pipeline, error) {
	p := &pipeline{
		cfg:      cfg,
		logger:   logger,
		codec:    classfile.NewYAMLCodec(),
		recorder: metrics.NoopRecorder{},
	}

	if cfg.Events.SQLitePath != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Events.SQLitePath)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.closers = append(p.closers, func() { _ = store.Close() })
		p.feedback = append(p.feedback, eventstore.NewJournal(ctx, store, logger))
	}

	if cfg.Events.NATSURL != "" {
		pub, err := notify.Connect(ctx, cfg.Events.NATSURL, cfg.Events.NATSSubject, retry.DefaultPolicy(), logger)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.closers = append(p.closers, pub.Close)
		p.feedback = append(p.feedback, pub)
	}

	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		p.recorder = metrics.NewPrometheusRecorder(reg)
		srv := &http.Server{
			Addr:              cfg.Metrics.ListenAddr,
			Handler:           metrics.HTTPHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		logger.Info("Serving metrics", slog.String("addr", cfg.Metrics.ListenAddr))
		p.closers = append(p.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	return p, nil
}

// Close releases collaborators in reverse order of creation.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
	p.closers = nil
}

// loadWorkspace reads the primary resource and every supporting resource.
func (p *pipeline) loadWorkspace() (*workspace.Workspace, error) {
	if p.cfg.Workspace.Path == "" {
		return nil, foundationerrors.ValidationError("workspace path is required").
			WithContext("hint", "set workspace.path or CLASSFORGE_WORKSPACE").Build()
	}
	primary, err := workspace.LoadResource(p.cfg.Workspace.Path)
	if err != nil {
		return nil, err
	}
	supporting := make([]*workspace.Resource, 0, len(p.cfg.Workspace.Supporting))
	for _, dir := range p.cfg.Workspace.Supporting {
		res, err := workspace.LoadResource(dir)
		if err != nil {
			return nil, err
		}
		supporting = append(supporting, res)
	}
	return workspace.New(primary, supporting...), nil
}

func (p *pipeline) registry() (*transform.Registry, error) {
	return transformers.NewRegistry(transformers.Options(p.cfg.Transformers))
}

func (p *pipeline) applierOptions() transform.Options {
	return transform.Options{
		MaxPasses:          p.cfg.Run.MaxPasses,
		Parallel:           p.cfg.Run.IsParallel(),
		Workers:            p.cfg.Run.Workers,
		HierarchyCacheSize: p.cfg.Hierarchy.CacheSize,
	}
}

// execute runs the transformers once and, unless DryRun is set, writes the
// result to the output path, commits it and renders the report.
func (p *pipeline) execute(ctx context.Context, opts runOptions) (*transform.Result, error) {
	ws, err := p.loadWorkspace()
	if err != nil {
		return nil, err
	}
	reg, err := p.registry()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid transformer options").Build()
	}

	applier := transform.NewApplier(ws, reg, p.codec, p.applierOptions()).
		WithLogger(p.logger).
		WithRecorder(p.recorder)

	feedback := append(transform.MultiFeedback{transform.NewLoggingFeedback(p.logger)}, p.feedback...)
	result, err := applier.Run(ctx, opts.Transformers, feedback)
	if err != nil {
		return nil, err
	}

	if !opts.DryRun {
		if err := p.write(ctx, ws, result); err != nil {
			return result, err
		}
	}

	if path := p.reportPath(opts); path != "" {
		d := report.FromResult(result)
		d.DryRun = opts.DryRun
		if err := report.WriteFile(path, report.Format(p.cfg.Output.Report.Format), d); err != nil {
			return result, err
		}
		p.logger.Info("Report written", logfields.Path(path))
	}
	return result, nil
}

func (p *pipeline) write(ctx context.Context, ws *workspace.Workspace, result *transform.Result) error {
	out := p.cfg.Output.Path
	if result.IsEmpty() && out == p.cfg.Workspace.Path {
		p.logger.Info("Nothing to write", logfields.RunID(result.RunID()))
		return nil
	}
	if err := result.Apply(ctx); err != nil {
		return err
	}
	if err := workspace.SaveResource(ws.Primary(), out); err != nil {
		return err
	}
	p.logger.Info("Workspace written", logfields.Path(out), logfields.Count(len(result.TransformedClasses())))

	if !p.cfg.Output.GitCommit {
		return nil
	}
	commit, err := vcs.CommitAll(out, p.cfg.Output.CommitMessage, vcs.Author{})
	if err != nil {
		return err
	}
	if commit == nil {
		p.logger.Info("No changes to commit", logfields.Path(out))
		return nil
	}
	p.logger.Info("Committed transformation output",
		slog.String("commit", commit.Hash),
		slog.Int("added", len(commit.Added)),
		slog.Int("removed", len(commit.Removed)))
	return nil
}

func (p *pipeline) reportPath(opts runOptions) string {
	if opts.ReportPath != "" {
		return opts.ReportPath
	}
	return p.cfg.Output.Report.Path
}
