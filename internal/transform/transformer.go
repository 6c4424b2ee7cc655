package transform

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// Transformer is one rewriting pass applied to every class.
//
// Transform must be idempotent: once a class needs nothing further it must
// leave the class untouched so that the run can converge.
type Transformer interface {
	// Name returns the unique identifier for this transformer (lowercase snake_case).
	Name() string

	// Dependencies lists transformers that must be queued before this one.
	Dependencies() []string

	// Setup runs once per run before any class is processed. An error aborts the run.
	Setup(ctx *Context, ws *workspace.Workspace) error

	// Transform processes one class. Errors are recorded and do not stop the run.
	Transform(ctx *Context, ws *workspace.Workspace, res *workspace.Resource, bundle *workspace.Bundle, class *workspace.ClassInfo) error
}

// Prunable is implemented by transformers that may be dropped from later
// passes once a pass leaves them idle.
type Prunable interface {
	Prunable() bool
}

// IsPrunable reports whether t opted into pruning.
func IsPrunable(t Transformer) bool {
	p, ok := t.(Prunable)
	return ok && p.Prunable()
}

// Base supplies no dependencies and a no-op Setup for embedding.
type Base struct{}

// Dependencies returns nil.
func (Base) Dependencies() []string { return nil }

// Setup does nothing.
func (Base) Setup(*Context, *workspace.Workspace) error { return nil }

// Registry maps transformer names to constructed instances. Instances are
// shared by every run that uses the registry.
type Registry struct {
	byName map[string]Transformer
}

// NewRegistry registers ts, rejecting duplicate names.
func NewRegistry(ts ...Transformer) (*Registry, error) {
	r := &Registry{byName: make(map[string]Transformer, len(ts))}
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds t.
func (r *Registry) Register(t Transformer) error {
	if t == nil {
		return fmt.Errorf("register transformer: nil")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("register transformer: empty name")
	}
	if name == CommitTransformer {
		return fmt.Errorf("register transformer: %q is reserved", name)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("duplicate transformer name: %q", name)
	}
	r.byName[name] = t
	return nil
}

// Get returns the named transformer.
func (r *Registry) Get(name string) (Transformer, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns all registered names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named transformer as its concrete type.
func Lookup[T Transformer](r *Registry, name string) (T, error) {
	var zero T
	t, ok := r.Get(name)
	if !ok {
		return zero, &UnknownTransformerError{Name: name}
	}
	typed, ok := t.(T)
	if !ok {
		return zero, fmt.Errorf("transformer %q is %T, not %T", name, t, zero)
	}
	return typed, nil
}
