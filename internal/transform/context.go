package transform

import (
	"fmt"
	"sort"
	"sync"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/mapping"
	"git.home.luguber.info/inful/classforge/internal/util/sets"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// Context is the per-run state shared by all transformers: the registry for
// cross-transformer lookup and one ClassState per touched class.
type Context struct {
	ws        *workspace.Workspace
	res       *workspace.Resource
	registry  *Registry
	codec     classfile.Codec
	hierarchy classfile.Hierarchy

	mu      sync.RWMutex
	cells   map[string]*ClassState
	removed *sets.Sync[string]
	renames *mapping.Mapping
}

// NewContext creates a Context for one run over res. h is used when a
// transformer asks for the bytes of a modified node mid-run.
func NewContext(ws *workspace.Workspace, res *workspace.Resource, registry *Registry, codec classfile.Codec, h classfile.Hierarchy) *Context {
	return &Context{
		ws:        ws,
		res:       res,
		registry:  registry,
		codec:     codec,
		hierarchy: h,
		cells:     make(map[string]*ClassState),
		removed:   sets.NewSync[string](),
		renames:   mapping.New(),
	}
}

// Workspace returns the workspace being transformed.
func (c *Context) Workspace() *workspace.Workspace { return c.ws }

// Resource returns the resource being transformed.
func (c *Context) Resource() *workspace.Resource { return c.res }

// Registry returns the transformer registry of the run.
func (c *Context) Registry() *Registry { return c.registry }

// Transformer returns the named transformer instance.
func (c *Context) Transformer(name string) (Transformer, bool) {
	return c.registry.Get(name)
}

// State returns the cell of the named class, creating it on first touch.
func (c *Context) State(name string) (*ClassState, error) {
	c.mu.RLock()
	cell, ok := c.cells[name]
	c.mu.RUnlock()
	if ok {
		return cell, nil
	}

	info, _, found := c.res.Find(name)
	if !found {
		return nil, fmt.Errorf("class %s is not part of resource %s", name, c.res.Name())
	}
	return c.stateFor(info), nil
}

// stateFor returns the cell of a class the caller already holds, creating it
// from info on first touch.
func (c *Context) stateFor(info *workspace.ClassInfo) *ClassState {
	name := info.Name()
	c.mu.RLock()
	cell, ok := c.cells[name]
	c.mu.RUnlock()
	if ok {
		return cell
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cell, ok := c.cells[name]; ok {
		return cell
	}
	cell = newClassState(name, info.Bytes(), c.codec)
	c.cells[name] = cell
	return cell
}

// Node returns the structural view of a class.
func (c *Context) Node(name string) (*classfile.Node, error) {
	cell, err := c.State(name)
	if err != nil {
		return nil, err
	}
	return cell.Node()
}

// SetNode replaces the structural view of a class and marks it changed.
func (c *Context) SetNode(name string, n *classfile.Node) error {
	cell, err := c.State(name)
	if err != nil {
		return err
	}
	cell.SetNode(n)
	return nil
}

// Bytecode returns the current bytes of a class.
func (c *Context) Bytecode(name string) ([]byte, error) {
	cell, err := c.State(name)
	if err != nil {
		return nil, err
	}
	return cell.Bytecode(c.hierarchy)
}

// SetBytecode replaces the bytes of a class and marks it changed.
func (c *Context) SetBytecode(name string, data []byte) error {
	cell, err := c.State(name)
	if err != nil {
		return err
	}
	cell.SetBytecode(data)
	return nil
}

// MarkWork records that the current transformer changed name without going
// through a setter.
func (c *Context) MarkWork(name string) error {
	cell, err := c.State(name)
	if err != nil {
		return err
	}
	cell.markWork()
	return nil
}

// RemoveClass schedules a class for deletion on Apply. Repeated calls are
// not counted as work.
func (c *Context) RemoveClass(name string) error {
	cell, err := c.State(name)
	if err != nil {
		return err
	}
	if c.removed.Add(name) {
		cell.markWork()
	}
	return nil
}

// IsRemoved reports whether a class is scheduled for deletion.
func (c *Context) IsRemoved(name string) bool { return c.removed.Has(name) }

// RenameClass registers a workspace-wide class rename, applied after the
// changed classes on Apply.
func (c *Context) RenameClass(from, to string) error {
	if from == to {
		return nil
	}
	if c.renames.MapClass(from) == to {
		return nil
	}
	c.renames.AddClass(from, to)
	return c.MarkWork(from)
}

// RenameField registers a rename of a field declared by owner.
func (c *Context) RenameField(owner, name, descriptor, newName string) error {
	if name == newName || c.renames.FieldName(owner, name, descriptor) == newName {
		return nil
	}
	c.renames.AddField(owner, name, descriptor, newName)
	return c.MarkWork(owner)
}

// RenameMethod registers a rename of a method declared by owner.
func (c *Context) RenameMethod(owner, name, descriptor, newName string) error {
	if name == newName || c.renames.MethodName(owner, name, descriptor) == newName {
		return nil
	}
	c.renames.AddMethod(owner, name, descriptor, newName)
	return c.MarkWork(owner)
}

// touched returns every cell in name order.
func (c *Context) touched() []*ClassState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ClassState, 0, len(c.cells))
	for _, cell := range c.cells {
		out = append(out, cell)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
