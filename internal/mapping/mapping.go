// Package mapping holds rename tables registered during a transformation run
// and applies them across a workspace.
package mapping

import (
	"maps"
	"reflect"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/classforge/internal/classfile"
)

// MemberKey identifies a field or method by owner, name and descriptor.
type MemberKey struct {
	Owner      string
	Name       string
	Descriptor string
}

// Mapping is a set of class, field and method renames. It is safe for
// concurrent use.
type Mapping struct {
	mu      sync.RWMutex
	classes map[string]string
	fields  map[MemberKey]string
	methods map[MemberKey]string
}

// New returns an empty mapping.
func New() *Mapping {
	return &Mapping{
		classes: make(map[string]string),
		fields:  make(map[MemberKey]string),
		methods: make(map[MemberKey]string),
	}
}

// AddClass renames class from to to. Later registrations win.
func (m *Mapping) AddClass(from, to string) {
	if from == to {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes[from] = to
}

// AddField renames a field declared by owner.
func (m *Mapping) AddField(owner, name, descriptor, newName string) {
	if name == newName {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[MemberKey{owner, name, descriptor}] = newName
}

// AddMethod renames a method declared by owner.
func (m *Mapping) AddMethod(owner, name, descriptor, newName string) {
	if name == newName {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[MemberKey{owner, name, descriptor}] = newName
}

// MapClass returns the new name of class, or class itself when unmapped.
// Array types are remapped element-wise.
func (m *Mapping) MapClass(name string) string {
	if strings.HasPrefix(name, "[") {
		return m.MapDescriptor(name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if to, ok := m.classes[name]; ok {
		return to
	}
	return name
}

// MapDescriptor rewrites the object types of a field or method descriptor.
// Malformed descriptors are returned unchanged.
func (m *Mapping) MapDescriptor(desc string) string {
	out, err := classfile.RemapDescriptor(desc, m.MapClass)
	if err != nil {
		return desc
	}
	return out
}

// FieldName returns the new name of a field, or name when unmapped.
func (m *Mapping) FieldName(owner, name, descriptor string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if to, ok := m.fields[MemberKey{owner, name, descriptor}]; ok {
		return to
	}
	return name
}

// MethodName returns the new name of a method, or name when unmapped.
func (m *Mapping) MethodName(owner, name, descriptor string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if to, ok := m.methods[MemberKey{owner, name, descriptor}]; ok {
		return to
	}
	return name
}

// IsEmpty reports whether no renames were registered.
func (m *Mapping) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.classes) == 0 && len(m.fields) == 0 && len(m.methods) == 0
}

// Classes returns a copy of the class rename table.
func (m *Mapping) Classes() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.classes)
}

// Len returns the total number of registered renames.
func (m *Mapping) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.classes) + len(m.fields) + len(m.methods)
}

// Lines renders the mapping as sorted "kind old -> new" lines.
func (m *Mapping) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.classes)+len(m.fields)+len(m.methods))
	for from, to := range m.classes {
		out = append(out, "class "+from+" -> "+to)
	}
	for k, to := range m.fields {
		out = append(out, "field "+k.Owner+"."+k.Name+":"+k.Descriptor+" -> "+to)
	}
	for k, to := range m.methods {
		out = append(out, "method "+k.Owner+"."+k.Name+k.Descriptor+" -> "+to)
	}
	sort.Strings(out)
	return out
}

// Remap applies m to a copy of n, keyed on n's original names. It reports
// whether anything changed.
func (m *Mapping) Remap(n *classfile.Node) (*classfile.Node, bool) {
	owner := n.Name
	out := n.Clone()
	out.Name = m.MapClass(n.Name)
	if out.Super != "" {
		out.Super = m.MapClass(out.Super)
	}
	for i, iface := range out.Interfaces {
		out.Interfaces[i] = m.MapClass(iface)
	}
	for _, f := range out.Fields {
		f.Name = m.FieldName(owner, f.Name, f.Descriptor)
		f.Descriptor = m.MapDescriptor(f.Descriptor)
	}
	for _, meth := range out.Methods {
		meth.Name = m.MethodName(owner, meth.Name, meth.Descriptor)
		meth.Descriptor = m.MapDescriptor(meth.Descriptor)
		for i, j := range meth.Joins {
			meth.Joins[i] = classfile.Join{Left: m.MapClass(j.Left), Right: m.MapClass(j.Right)}
		}
	}
	return out, !reflect.DeepEqual(n.Clone(), out)
}
