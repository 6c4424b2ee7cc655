package classfile

import (
	"maps"
	"slices"
)

// Access flags, matching the JVM constant pool values.
const (
	AccPublic    uint16 = 0x0001
	AccPrivate   uint16 = 0x0002
	AccProtected uint16 = 0x0004
	AccStatic    uint16 = 0x0008
	AccFinal     uint16 = 0x0010
	AccInterface uint16 = 0x0200
	AccAbstract  uint16 = 0x0400
	AccSynthetic uint16 = 0x1000
)

// Node is the mutable structural view of one class.
type Node struct {
	Name       string            `yaml:"name"`
	Super      string            `yaml:"super,omitempty"`
	Interfaces []string          `yaml:"interfaces,omitempty"`
	Access     uint16            `yaml:"access"`
	SourceFile string            `yaml:"source_file,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Fields     []*Field          `yaml:"fields,omitempty"`
	Methods    []*Method         `yaml:"methods,omitempty"`
}

// Field is a class member variable.
type Field struct {
	Name       string `yaml:"name"`
	Descriptor string `yaml:"descriptor"`
	Access     uint16 `yaml:"access"`
	Value      string `yaml:"value,omitempty"`
}

// Method is a class member function. Code lines are opaque to the pipeline.
type Method struct {
	Name       string   `yaml:"name"`
	Descriptor string   `yaml:"descriptor"`
	Access     uint16   `yaml:"access"`
	Code       []string `yaml:"code,omitempty"`
	Joins      []Join   `yaml:"joins,omitempty"`
	Frames     []Frame  `yaml:"frames,omitempty"`
}

// Join records two internal type names that meet at a control-flow merge.
type Join struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Frame is the derived merge result of a Join.
type Frame struct {
	Left   string `yaml:"left"`
	Right  string `yaml:"right"`
	Common string `yaml:"common"`
}

// IsInterface reports whether the class is an interface.
func (n *Node) IsInterface() bool { return n.Access&AccInterface != 0 }

// Field returns the named field, or nil.
func (n *Node) Field(name string) *Field {
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the method with the given name and descriptor, or nil.
func (n *Node) Method(name, descriptor string) *Method {
	for _, m := range n.Methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

// AddField appends f unless a field with the same name exists. It reports
// whether the field was added.
func (n *Node) AddField(f *Field) bool {
	if n.Field(f.Name) != nil {
		return false
	}
	n.Fields = append(n.Fields, f)
	return true
}

// RemoveField drops the named field and reports whether it existed.
func (n *Node) RemoveField(name string) bool {
	before := len(n.Fields)
	n.Fields = slices.DeleteFunc(n.Fields, func(f *Field) bool { return f.Name == name })
	return len(n.Fields) != before
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Interfaces = slices.Clone(n.Interfaces)
	cp.Attributes = maps.Clone(n.Attributes)
	cp.Fields = make([]*Field, len(n.Fields))
	for i, f := range n.Fields {
		fc := *f
		cp.Fields[i] = &fc
	}
	cp.Methods = make([]*Method, len(n.Methods))
	for i, m := range n.Methods {
		mc := *m
		mc.Code = slices.Clone(m.Code)
		mc.Joins = slices.Clone(m.Joins)
		mc.Frames = slices.Clone(m.Frames)
		cp.Methods[i] = &mc
	}
	return &cp
}
