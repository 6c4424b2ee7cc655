package workspace

import (
	"bytes"
	"slices"
	"sort"
	"sync"
)

// ClassInfo is an immutable class record.
type ClassInfo struct {
	name string
	data []byte
}

// NewClassInfo copies data into a new record.
func NewClassInfo(name string, data []byte) *ClassInfo {
	return &ClassInfo{name: name, data: bytes.Clone(data)}
}

// Name returns the internal class name.
func (c *ClassInfo) Name() string { return c.name }

// Bytes returns the stored class bytes. Callers must not modify the slice.
func (c *ClassInfo) Bytes() []byte { return c.data }

// Bundle is a named group of classes, optionally with nested bundles.
type Bundle struct {
	name     string
	mu       sync.RWMutex
	classes  map[string]*ClassInfo
	children []*Bundle
}

// NewBundle creates an empty bundle.
func NewBundle(name string) *Bundle {
	return &Bundle{name: name, classes: make(map[string]*ClassInfo)}
}

// Name returns the bundle name.
func (b *Bundle) Name() string { return b.name }

// Get returns the named class.
func (b *Bundle) Get(name string) (*ClassInfo, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.classes[name]
	return c, ok
}

// Put stores c, replacing any class with the same name.
func (b *Bundle) Put(c *ClassInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.classes[c.Name()] = c
}

// Remove deletes the named class and reports whether it existed.
func (b *Bundle) Remove(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.classes[name]
	delete(b.classes, name)
	return ok
}

// Len returns the number of classes directly in this bundle.
func (b *Bundle) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.classes)
}

// Classes returns the bundle's own classes ordered by name.
func (b *Bundle) Classes() []*ClassInfo {
	b.mu.RLock()
	out := make([]*ClassInfo, 0, len(b.classes))
	for _, c := range b.classes {
		out = append(out, c)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// AddChild nests child under b.
func (b *Bundle) AddChild(child *Bundle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.children = append(b.children, child)
}

// Children returns the directly nested bundles.
func (b *Bundle) Children() []*Bundle {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.children)
}

// Resource is a named set of top-level bundles.
type Resource struct {
	name    string
	mu      sync.RWMutex
	bundles []*Bundle
}

// NewResource creates a resource holding the given bundles.
func NewResource(name string, bundles ...*Bundle) *Resource {
	return &Resource{name: name, bundles: bundles}
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// AddBundle appends a top-level bundle.
func (r *Resource) AddBundle(b *Bundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles = append(r.bundles, b)
}

// Bundles returns the top-level bundles.
func (r *Resource) Bundles() []*Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.bundles)
}

// Walk visits every bundle depth-first, parents before children. Returning
// an error stops the walk.
func (r *Resource) Walk(fn func(*Bundle) error) error {
	var visit func(*Bundle) error
	visit = func(b *Bundle) error {
		if err := fn(b); err != nil {
			return err
		}
		for _, c := range b.Children() {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, b := range r.Bundles() {
		if err := visit(b); err != nil {
			return err
		}
	}
	return nil
}

// AllBundles returns every bundle in Walk order.
func (r *Resource) AllBundles() []*Bundle {
	var out []*Bundle
	var visit func(*Bundle)
	visit = func(b *Bundle) {
		out = append(out, b)
		for _, c := range b.Children() {
			visit(c)
		}
	}
	for _, b := range r.Bundles() {
		visit(b)
	}
	return out
}

// Find returns the class and the bundle holding it.
func (r *Resource) Find(name string) (*ClassInfo, *Bundle, bool) {
	for _, b := range r.AllBundles() {
		if c, ok := b.Get(name); ok {
			return c, b, true
		}
	}
	return nil, nil, false
}

// ClassCount returns the number of classes across all bundles.
func (r *Resource) ClassCount() int {
	n := 0
	for _, b := range r.AllBundles() {
		n += b.Len()
	}
	return n
}

// Workspace is the primary resource plus supporting resources.
type Workspace struct {
	primary    *Resource
	supporting []*Resource
}

// New creates a workspace.
func New(primary *Resource, supporting ...*Resource) *Workspace {
	return &Workspace{primary: primary, supporting: supporting}
}

// Primary returns the resource being transformed.
func (w *Workspace) Primary() *Resource { return w.primary }

// Supporting returns the read-only library resources.
func (w *Workspace) Supporting() []*Resource { return slices.Clone(w.supporting) }

// FindClass looks a class up in the primary resource, then supporting ones.
func (w *Workspace) FindClass(name string) (*ClassInfo, bool) {
	if c, _, ok := w.primary.Find(name); ok {
		return c, true
	}
	for _, r := range w.supporting {
		if c, _, ok := r.Find(name); ok {
			return c, true
		}
	}
	return nil, false
}

// Put writes c into the primary resource, into the bundle already holding a
// class of that name or else the first top-level bundle.
func (w *Workspace) Put(c *ClassInfo) {
	if _, b, ok := w.primary.Find(c.Name()); ok {
		b.Put(c)
		return
	}
	bundles := w.primary.Bundles()
	if len(bundles) == 0 {
		b := NewBundle(DefaultBundleName)
		w.primary.AddBundle(b)
		bundles = []*Bundle{b}
	}
	bundles[0].Put(c)
}

// Remove deletes the named class from the primary resource.
func (w *Workspace) Remove(name string) bool {
	if _, b, ok := w.primary.Find(name); ok {
		return b.Remove(name)
	}
	return false
}
