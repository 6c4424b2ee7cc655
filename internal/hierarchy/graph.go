package hierarchy

import (
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Root is the implicit superclass of every class.
const Root = "java/lang/Object"

// DefaultCacheSize bounds the number of memoized ancestor chains.
const DefaultCacheSize = 4096

// Entry is the inheritance-relevant part of one class.
type Entry struct {
	Name       string
	Super      string
	Interfaces []string
	Interface  bool
}

// Source resolves class names to entries. ok is false for unknown classes.
type Source interface {
	Lookup(name string) (entry Entry, ok bool, err error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(name string) (Entry, bool, error)

// Lookup calls f.
func (f SourceFunc) Lookup(name string) (Entry, bool, error) { return f(name) }

// Graph is a cached view over a Source. It is safe for concurrent use as long
// as the Source is.
type Graph struct {
	src   Source
	cache *lru.Cache[string, []string]
}

// New creates a Graph. A non-positive cacheSize uses DefaultCacheSize.
func New(src Source, cacheSize int) (*Graph, error) {
	if src == nil {
		return nil, fmt.Errorf("hierarchy: nil source")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := lru.New[string, []string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	return &Graph{src: src, cache: c}, nil
}

// Ancestors returns the superclass chain of name, starting with name itself
// and ending at Root.
func (g *Graph) Ancestors(name string) ([]string, error) {
	if chain, ok := g.cache.Get(name); ok {
		return chain, nil
	}
	chain := []string{name}
	seen := map[string]bool{name: true}
	cur := name
	for cur != Root {
		e, ok, err := g.src.Lookup(cur)
		if err != nil {
			return nil, fmt.Errorf("hierarchy: lookup %s: %w", cur, err)
		}
		next := Root
		if ok && e.Super != "" && !e.Interface {
			next = e.Super
		}
		if seen[next] {
			return nil, fmt.Errorf("hierarchy: circular inheritance at %s", next)
		}
		seen[next] = true
		chain = append(chain, next)
		cur = next
	}
	g.cache.Add(name, chain)
	return chain, nil
}

// IsAssignable reports whether a value of type from can be stored in a
// variable of type to.
func (g *Graph) IsAssignable(to, from string) (bool, error) {
	if to == from || to == Root {
		return true, nil
	}
	if isArray(to) || isArray(from) {
		return false, nil
	}
	toEntry, _, err := g.src.Lookup(to)
	if err != nil {
		return false, fmt.Errorf("hierarchy: lookup %s: %w", to, err)
	}
	chain, err := g.Ancestors(from)
	if err != nil {
		return false, err
	}
	if !toEntry.Interface {
		return slices.Contains(chain, to), nil
	}
	return g.implements(chain, to, map[string]bool{})
}

func (g *Graph) implements(types []string, iface string, seen map[string]bool) (bool, error) {
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		e, ok, err := g.src.Lookup(t)
		if err != nil {
			return false, fmt.Errorf("hierarchy: lookup %s: %w", t, err)
		}
		if !ok {
			continue
		}
		if slices.Contains(e.Interfaces, iface) {
			return true, nil
		}
		found, err := g.implements(e.Interfaces, iface, seen)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// CommonSuperclass returns the most specific class both a and b extend.
// Interfaces and arrays merge to Root.
func (g *Graph) CommonSuperclass(a, b string) (string, error) {
	if a == b {
		return a, nil
	}
	if isArray(a) || isArray(b) {
		return Root, nil
	}
	ok, err := g.IsAssignable(a, b)
	if err != nil {
		return "", err
	}
	if ok {
		return a, nil
	}
	if ok, err = g.IsAssignable(b, a); err != nil {
		return "", err
	} else if ok {
		return b, nil
	}
	for _, name := range []string{a, b} {
		e, _, err := g.src.Lookup(name)
		if err != nil {
			return "", fmt.Errorf("hierarchy: lookup %s: %w", name, err)
		}
		if e.Interface {
			return Root, nil
		}
	}
	chainA, err := g.Ancestors(a)
	if err != nil {
		return "", err
	}
	chainB, err := g.Ancestors(b)
	if err != nil {
		return "", err
	}
	for _, t := range chainA {
		if slices.Contains(chainB, t) {
			return t, nil
		}
	}
	return Root, nil
}

// Invalidate drops memoized chains. Call it after the Source changes.
func (g *Graph) Invalidate() { g.cache.Purge() }

func isArray(name string) bool { return strings.HasPrefix(name, "[") }
