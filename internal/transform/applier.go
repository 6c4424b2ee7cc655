package transform

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/hierarchy"
	"git.home.luguber.info/inful/classforge/internal/logfields"
	"git.home.luguber.info/inful/classforge/internal/mapping"
	"git.home.luguber.info/inful/classforge/internal/metrics"
	"git.home.luguber.info/inful/classforge/internal/util/sets"
	"git.home.luguber.info/inful/classforge/internal/workerpool"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// SetupError wraps a failing Setup hook.
type SetupError struct {
	Transformer string
	Err         error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup of transformer %q failed: %v", e.Transformer, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Options tune a run.
type Options struct {
	// MaxPasses bounds the pass loop per bundle. Values below one mean one.
	MaxPasses int
	// Parallel enables a multi-worker pool; otherwise tasks run one at a time.
	Parallel bool
	// Workers sizes the pool when Parallel is set. Zero uses GOMAXPROCS.
	Workers int
	// HierarchyCacheSize bounds the commit-time hierarchy cache.
	HierarchyCacheSize int
}

// DefaultOptions returns a parallel run with ten passes.
func DefaultOptions() Options {
	return Options{MaxPasses: 10, Parallel: true}
}

func (o Options) workers() int {
	if !o.Parallel {
		return 1
	}
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) maxPasses() int {
	if o.MaxPasses < 1 {
		return 1
	}
	return o.MaxPasses
}

// Applier drives transformer runs over a workspace.
type Applier struct {
	ws       *workspace.Workspace
	registry *Registry
	codec    classfile.Codec
	opts     Options
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewApplier creates an Applier over the primary resource of ws.
func NewApplier(ws *workspace.Workspace, registry *Registry, codec classfile.Codec, opts Options) *Applier {
	return &Applier{
		ws:       ws,
		registry: registry,
		codec:    codec,
		opts:     opts,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger sets the logger.
func (a *Applier) WithLogger(l *slog.Logger) *Applier {
	if l != nil {
		a.logger = l
	}
	return a
}

// WithRecorder sets the metrics recorder.
func (a *Applier) WithRecorder(r metrics.Recorder) *Applier {
	if r != nil {
		a.recorder = r
	}
	return a
}

// Plan resolves names into the execution order without running anything.
func (a *Applier) Plan(names []string) ([]Transformer, error) {
	queue, err := ResolveQueue(a.registry, names)
	if err != nil {
		return nil, fatal(err, "resolve transformer queue")
	}
	return queue, nil
}

// run holds the mutable bookkeeping of one Run. Only the coordinating
// goroutine touches it.
type run struct {
	id       string
	tctx     *Context
	feedback Feedback
	pool     *workerpool.Pool
	failures map[failureKey]Failure
	modified map[string]sets.Set[string]
	passes   int
	canceled bool
}

type taskOutcome struct {
	skipped bool
	worked  bool
	err     error
}

// Run executes the named transformers. A nil feedback uses DefaultFeedback.
// Only resolution, setup and scheduler faults (including ctx ending) return
// an error. A cancellation requested through feedback skips the remaining
// tasks and still returns the partial Result.
func (a *Applier) Run(ctx context.Context, names []string, feedback Feedback) (*Result, error) {
	start := time.Now()
	if feedback == nil {
		feedback = DefaultFeedback{}
	}
	res := a.ws.Primary()
	r := &run{
		id:       uuid.NewString(),
		feedback: feedback,
		failures: make(map[failureKey]Failure),
		modified: make(map[string]sets.Set[string]),
	}
	log := a.logger.With(logfields.RunID(r.id), logfields.Resource(res.Name()))

	result, err := a.run(ctx, r, res, names, log)
	duration := time.Since(start)
	a.recorder.ObserveRunDuration(duration)
	if err != nil {
		outcome := metrics.RunFatal
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.RunCanceled
		}
		a.recorder.IncRunOutcome(outcome)
		log.Error("Transformation aborted", logfields.Error(err), logfields.Duration(duration))
		return nil, err
	}
	result.duration = duration
	switch {
	case result.Canceled():
		a.recorder.IncRunOutcome(metrics.RunCanceled)
	case result.HasFailures():
		a.recorder.IncRunOutcome(metrics.RunSoftFailures)
	default:
		a.recorder.IncRunOutcome(metrics.RunSuccess)
	}
	feedback.OnCompletion(result.Summary())
	return result, nil
}

func (a *Applier) run(ctx context.Context, r *run, res *workspace.Resource, names []string, log *slog.Logger) (*Result, error) {
	queue, err := a.Plan(names)
	if err != nil {
		return nil, err
	}
	workers := a.opts.workers()
	log.Info("Starting transformation",
		slog.Any("requested", names),
		slog.Any("queue", Names(queue)),
		slog.Int("max_passes", a.opts.maxPasses()),
		slog.Int("workers", workers))

	baseSource := hierarchy.WorkspaceSource(a.ws, a.codec)
	baseGraph, err := hierarchy.New(baseSource, a.opts.HierarchyCacheSize)
	if err != nil {
		return nil, fatal(err, "create hierarchy")
	}
	r.tctx = NewContext(a.ws, res, a.registry, a.codec, baseGraph)

	for _, t := range queue {
		if err := t.Setup(r.tctx, a.ws); err != nil {
			return nil, fatal(&SetupError{Transformer: t.Name(), Err: err}, "transformer setup")
		}
	}

	r.pool = workerpool.New(workers)
	defer r.pool.Close()
	a.recorder.SetWorkers(workers)

	for _, b := range res.AllBundles() {
		if err := a.runBundle(ctx, r, res, b, queue, log); err != nil {
			return nil, err
		}
		if r.canceled {
			log.Info("Transformation canceled, committing partial result", logfields.Bundle(b.Name()))
			break
		}
	}

	return a.commit(r, queue, baseSource, log), nil
}

// runBundle is the pass loop for one bundle. Pruning applies to this
// bundle's copy of the queue only.
func (a *Applier) runBundle(ctx context.Context, r *run, res *workspace.Resource, b *workspace.Bundle, queue []Transformer, log *slog.Logger) error {
	classes := b.Classes()
	if len(classes) == 0 {
		return nil
	}
	active := slices.Clone(queue)
	log = log.With(logfields.Bundle(b.Name()))

	for pass := 1; pass <= a.opts.maxPasses() && len(active) > 0; pass++ {
		passStart := time.Now()
		r.passes = max(r.passes, pass)
		changed := 0
		idle := sets.New[string]()

		for _, t := range active {
			if stop, err := a.interrupted(ctx, r); stop {
				return err
			}
			worked, err := a.runBatch(ctx, r, res, b, classes, t, pass)
			if err != nil {
				return err
			}
			changed += worked
			if worked == 0 && IsPrunable(t) {
				idle.Add(t.Name())
			}
		}
		if stop, err := a.interrupted(ctx, r); stop {
			return err
		}

		if len(idle) > 0 {
			active = slices.DeleteFunc(active, func(t Transformer) bool { return idle.Has(t.Name()) })
			for _, name := range sets.Sorted(idle) {
				a.recorder.IncPruned(name)
			}
			log.Debug("Pruned idle transformers", logfields.Pass(pass), slog.Any("pruned", sets.Sorted(idle)))
		}
		a.recorder.ObservePassDuration(b.Name(), time.Since(passStart))
		log.Debug("Pass complete", logfields.Pass(pass), logfields.Count(changed), logfields.Duration(time.Since(passStart)))

		if changed == 0 {
			log.Debug("Bundle converged", logfields.Pass(pass))
			break
		}
	}
	return nil
}

// interrupted reports whether the bundle loop must stop. An ended ctx is a
// scheduler fault and returns an error; a feedback cancellation stops the
// run quietly so the work done so far is committed.
func (a *Applier) interrupted(ctx context.Context, r *run) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, fatal(err, "transformation interrupted")
	}
	if r.canceled || r.feedback.HasRequestedCancellation() {
		r.canceled = true
		return true, nil
	}
	return false, nil
}

// runBatch runs t over every class of b and blocks until all tasks return.
// It returns the number of classes t changed.
func (a *Applier) runBatch(ctx context.Context, r *run, res *workspace.Resource, b *workspace.Bundle, classes []*workspace.ClassInfo, t Transformer, pass int) (int, error) {
	outcomes := make([]taskOutcome, len(classes))
	tasks := make([]workerpool.Task, len(classes))
	for i, class := range classes {
		tasks[i] = func(ctx context.Context) error {
			outcomes[i] = a.task(ctx, r, res, b, class, t, pass)
			return nil
		}
	}
	errs, err := r.pool.Run(ctx, tasks)
	if err != nil {
		return 0, fatal(err, "schedule transform batch")
	}

	worked := 0
	for i, o := range outcomes {
		name := classes[i].Name()
		if errs[i] != nil && o.err == nil {
			o = taskOutcome{err: errs[i]}
		}
		switch {
		case o.skipped:
			a.recorder.IncTransformOutcome(t.Name(), metrics.OutcomeSkipped)
		case o.err != nil:
			r.failures[failureKey{name, t.Name()}] = Failure{Class: name, Transformer: t.Name(), Pass: pass, Err: o.err}
			a.recorder.IncTransformOutcome(t.Name(), metrics.OutcomeFailed)
		case o.worked:
			worked++
			set, ok := r.modified[t.Name()]
			if !ok {
				set = sets.New[string]()
				r.modified[t.Name()] = set
			}
			set.Add(name)
			a.recorder.IncTransformOutcome(t.Name(), metrics.OutcomeTransformed)
		default:
			a.recorder.IncTransformOutcome(t.Name(), metrics.OutcomeNoWork)
		}
	}
	return worked, nil
}

func (a *Applier) task(ctx context.Context, r *run, res *workspace.Resource, b *workspace.Bundle, class *workspace.ClassInfo, t Transformer, pass int) taskOutcome {
	if ctx.Err() != nil || r.feedback.HasRequestedCancellation() {
		return taskOutcome{skipped: true}
	}
	ev := Event{RunID: r.id, Bundle: b.Name(), Class: class.Name(), Transformer: t.Name(), Pass: pass}
	if !r.feedback.ShouldTransform(ev) {
		return taskOutcome{skipped: true}
	}
	cell := r.tctx.stateFor(class)
	cell.resetWork()
	if err := invoke(t, r.tctx, a.ws, res, b, class); err != nil {
		ev.Err = err
		r.feedback.OnTransformFailure(ev)
		return taskOutcome{err: err}
	}
	if cell.didWork() {
		r.feedback.OnTransformed(ev)
		return taskOutcome{worked: true}
	}
	r.feedback.OnTransformedWithoutWork(ev)
	return taskOutcome{}
}

// invoke calls Transform, turning a panic into an error.
func invoke(t Transformer, tctx *Context, ws *workspace.Workspace, res *workspace.Resource, b *workspace.Bundle, class *workspace.ClassInfo) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &workerpool.PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return t.Transform(tctx, ws, res, b, class)
}

// commit serializes every dirty cell. Modified nodes are encoded against a
// hierarchy that sees the other in-flight nodes.
func (a *Applier) commit(r *run, queue []Transformer, base hierarchy.Source, log *slog.Logger) *Result {
	cells := r.tctx.touched()
	inflight := make(map[string]*classfile.Node)
	for _, cell := range cells {
		if n, ok := cell.pendingNode(); ok {
			inflight[n.Name] = n
		}
	}

	result := &Result{
		runID:       r.id,
		passes:      r.passes,
		canceled:    r.canceled,
		queue:       Names(queue),
		transformed: make(map[string]*workspace.ClassInfo),
		modified:    make(map[string][]string, len(r.modified)),
		ws:          a.ws,
		mapper:      mapping.NewApplier(a.codec, a.logger, a.opts.HierarchyCacheSize),
	}

	graph, err := hierarchy.New(hierarchy.Overlay(inflight, base), a.opts.HierarchyCacheSize)
	for _, cell := range cells {
		if r.tctx.IsRemoved(cell.name) {
			continue
		}
		if err != nil {
			r.failures[failureKey{cell.name, CommitTransformer}] = Failure{Class: cell.name, Transformer: CommitTransformer, Err: err}
			continue
		}
		data, changed, encErr := cell.commit(graph)
		if encErr != nil {
			r.failures[failureKey{cell.name, CommitTransformer}] = Failure{Class: cell.name, Transformer: CommitTransformer, Err: encErr}
			log.Warn("Failed to encode class", logfields.Class(cell.name), logfields.Error(encErr))
			continue
		}
		if changed {
			result.transformed[cell.name] = workspace.NewClassInfo(cell.name, data)
		}
	}

	result.removals = sets.Sorted(r.tctx.removed.Snapshot())
	if !r.tctx.renames.IsEmpty() {
		result.renames = r.tctx.renames
	}
	for name, set := range r.modified {
		result.modified[name] = sets.Sorted(set)
	}
	result.failures = make([]Failure, 0, len(r.failures))
	for _, f := range r.failures {
		result.failures = append(result.failures, f)
	}
	slices.SortFunc(result.failures, func(x, y Failure) int {
		if c := cmp.Compare(x.Class, y.Class); c != 0 {
			return c
		}
		return cmp.Compare(x.Transformer, y.Transformer)
	})

	log.Info("Transformation finished",
		logfields.Pass(result.passes),
		slog.Int("transformed", len(result.transformed)),
		slog.Int("removed", len(result.removals)),
		slog.Int("failures", len(result.failures)))
	return result
}

func fatal(err error, message string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategoryTransform, message).Fatal().Build()
}
