package transform

import (
	"fmt"
	"slices"
	"strings"
)

// CycleError reports a dependency cycle. Chain starts and ends with the same
// transformer.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "transformer dependency cycle: " + strings.Join(e.Chain, " -> ")
}

// UnknownTransformerError reports a requested or depended-on name missing
// from the registry.
type UnknownTransformerError struct {
	Name       string
	RequiredBy string
}

func (e *UnknownTransformerError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("transformer %q (required by %q) is not registered", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("transformer %q is not registered", e.Name)
}

// ResolveQueue orders the requested transformers and their transitive
// dependencies so every transformer follows its dependencies. Each name
// appears once. Requested order is kept where dependencies allow.
func ResolveQueue(r *Registry, names []string) ([]Transformer, error) {
	q := &queueBuilder{registry: r, queued: make(map[string]bool)}
	for _, name := range names {
		if err := q.insert(name, ""); err != nil {
			return nil, err
		}
	}
	return q.order, nil
}

type queueBuilder struct {
	registry *Registry
	queued   map[string]bool
	chain    []string
	order    []Transformer
}

func (q *queueBuilder) insert(name, requiredBy string) error {
	if q.queued[name] {
		return nil
	}
	if i := slices.Index(q.chain, name); i >= 0 {
		cycle := append(slices.Clone(q.chain[i:]), name)
		return &CycleError{Chain: cycle}
	}
	t, ok := q.registry.Get(name)
	if !ok {
		return &UnknownTransformerError{Name: name, RequiredBy: requiredBy}
	}

	q.chain = append(q.chain, name)
	for _, dep := range t.Dependencies() {
		if err := q.insert(dep, name); err != nil {
			return err
		}
	}
	q.chain = q.chain[:len(q.chain)-1]

	q.queued[name] = true
	q.order = append(q.order, t)
	return nil
}

// Names returns the identities of queue in order.
func Names(queue []Transformer) []string {
	out := make([]string, len(queue))
	for i, t := range queue {
		out[i] = t.Name()
	}
	return out
}
