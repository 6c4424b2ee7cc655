package transform

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/classforge/internal/mapping"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// CommitTransformer is the transformer identity under which commit-time
// encode failures are recorded.
const CommitTransformer = "commit"

// ErrAlreadyApplied is returned by a second call to Result.Apply.
var ErrAlreadyApplied = errors.New("transformation result already applied")

// Failure is a soft error of one transformer on one class.
type Failure struct {
	Class       string
	Transformer string
	Pass        int
	Err         error
}

type failureKey struct {
	class       string
	transformer string
}

// Summary condenses a Result.
type Summary struct {
	RunID       string
	Passes      int
	Transformed int
	Removed     int
	Renames     int
	Failures    int
	Duration    time.Duration
	Canceled    bool
}

// Result is the immutable outcome of a run.
type Result struct {
	runID       string
	passes      int
	canceled    bool
	duration    time.Duration
	queue       []string
	failures    []Failure
	transformed map[string]*workspace.ClassInfo
	removals    []string
	renames     *mapping.Mapping
	modified    map[string][]string

	ws      *workspace.Workspace
	mapper  *mapping.Applier
	applied atomic.Bool
}

// RunID identifies the run that produced the result.
func (r *Result) RunID() string { return r.runID }

// Passes returns the highest pass number reached in any bundle.
func (r *Result) Passes() int { return r.passes }

// Canceled reports whether feedback stopped the run early. The result then
// holds the work finished before the request.
func (r *Result) Canceled() bool { return r.canceled }

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration { return r.duration }

// Queue returns the resolved execution order.
func (r *Result) Queue() []string { return slices.Clone(r.queue) }

// Failures returns soft failures ordered by class then transformer.
func (r *Result) Failures() []Failure { return slices.Clone(r.failures) }

// HasFailures reports whether any soft failure was recorded.
func (r *Result) HasFailures() bool { return len(r.failures) > 0 }

// TransformedClasses returns the change-map: class name to new record.
func (r *Result) TransformedClasses() map[string]*workspace.ClassInfo {
	return maps.Clone(r.transformed)
}

// ClassesToRemove returns the classes deleted on Apply, in name order.
func (r *Result) ClassesToRemove() []string { return slices.Clone(r.removals) }

// MappingsToApply returns the pending rename mapping, or nil when no
// transformer registered renames.
func (r *Result) MappingsToApply() *mapping.Mapping { return r.renames }

// ModifiedClassesPerTransformer maps each transformer that changed something
// to the sorted classes it changed.
func (r *Result) ModifiedClassesPerTransformer() map[string][]string {
	out := make(map[string][]string, len(r.modified))
	for k, v := range r.modified {
		out[k] = slices.Clone(v)
	}
	return out
}

// IsEmpty reports whether Apply would change nothing.
func (r *Result) IsEmpty() bool {
	return len(r.transformed) == 0 && len(r.removals) == 0 && r.renames == nil
}

// Summary returns counts for reporting.
func (r *Result) Summary() Summary {
	s := Summary{
		RunID:       r.runID,
		Passes:      r.passes,
		Transformed: len(r.transformed),
		Removed:     len(r.removals),
		Failures:    len(r.failures),
		Duration:    r.duration,
		Canceled:    r.canceled,
	}
	if r.renames != nil {
		s.Renames = r.renames.Len()
	}
	return s
}

// Apply writes changed classes into the workspace, removes deleted classes
// and then propagates pending renames. It may be called once.
func (r *Result) Apply(ctx context.Context) error {
	if !r.applied.CompareAndSwap(false, true) {
		return ErrAlreadyApplied
	}
	names := make([]string, 0, len(r.transformed))
	for name := range r.transformed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.ws.Put(r.transformed[name])
	}
	for _, name := range r.removals {
		r.ws.Remove(name)
	}
	if r.renames == nil {
		return nil
	}
	_, err := r.mapper.Apply(ctx, r.ws, r.renames)
	return err
}
