package transform

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

var codec = classfile.NewYAMLCodec()

type transformFunc func(ctx *Context, class *workspace.ClassInfo) error

// fakeTransformer counts calls and delegates to fn.
type fakeTransformer struct {
	name     string
	deps     []string
	prunable bool
	setup    func(*Context) error
	fn       transformFunc
	calls    atomic.Int32
}

func (f *fakeTransformer) Name() string           { return f.name }
func (f *fakeTransformer) Dependencies() []string { return f.deps }
func (f *fakeTransformer) Prunable() bool         { return f.prunable }

func (f *fakeTransformer) Setup(ctx *Context, _ *workspace.Workspace) error {
	if f.setup != nil {
		return f.setup(ctx)
	}
	return nil
}

func (f *fakeTransformer) Transform(ctx *Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	f.calls.Add(1)
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, class)
}

func noop(name string, deps ...string) *fakeTransformer {
	return &fakeTransformer{name: name, deps: deps}
}

// alwaysWork marks every class as changed on every call.
func alwaysWork(name string) *fakeTransformer {
	return &fakeTransformer{name: name, fn: func(ctx *Context, class *workspace.ClassInfo) error {
		return ctx.MarkWork(class.Name())
	}}
}

// addField adds a field once per class.
func addField(name, field string) *fakeTransformer {
	return &fakeTransformer{name: name, fn: func(ctx *Context, class *workspace.ClassInfo) error {
		n, err := ctx.Node(class.Name())
		if err != nil {
			return err
		}
		if !n.AddField(&classfile.Field{Name: field, Descriptor: "I", Access: classfile.AccPrivate}) {
			return nil
		}
		return ctx.SetNode(class.Name(), n)
	}}
}

func encodeNode(t *testing.T, n *classfile.Node) []byte {
	t.Helper()
	data, err := codec.Encode(n, nil)
	require.NoError(t, err)
	return data
}

// newWorkspace builds a primary resource with one bundle holding the named
// classes, each extending java/lang/Object.
func newWorkspace(t *testing.T, names ...string) *workspace.Workspace {
	t.Helper()
	b := workspace.NewBundle("app")
	for _, name := range names {
		b.Put(workspace.NewClassInfo(name, encodeNode(t, &classfile.Node{Name: name, Super: "java/lang/Object"})))
	}
	return workspace.New(workspace.NewResource("input", b))
}

func newApplier(t *testing.T, ws *workspace.Workspace, opts Options, ts ...Transformer) *Applier {
	t.Helper()
	reg, err := NewRegistry(ts...)
	require.NoError(t, err)
	return NewApplier(ws, reg, codec, opts)
}

func decodeClass(t *testing.T, info *workspace.ClassInfo) *classfile.Node {
	t.Helper()
	n, err := codec.Decode(info.Bytes())
	require.NoError(t, err)
	return n
}

// recordingFeedback collects events.
type recordingFeedback struct {
	DefaultFeedback
	mu          sync.Mutex
	transformed []Event
	noWork      []Event
	failed      []Event
	completed   []Summary
	veto        func(Event) bool
	cancel      atomic.Bool
}

func (r *recordingFeedback) HasRequestedCancellation() bool { return r.cancel.Load() }

func (r *recordingFeedback) ShouldTransform(ev Event) bool {
	if r.veto != nil {
		return !r.veto(ev)
	}
	return true
}

func (r *recordingFeedback) OnTransformed(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformed = append(r.transformed, ev)
}

func (r *recordingFeedback) OnTransformedWithoutWork(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noWork = append(r.noWork, ev)
}

func (r *recordingFeedback) OnTransformFailure(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, ev)
}

func (r *recordingFeedback) OnCompletion(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, s)
}
