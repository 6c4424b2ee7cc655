package classfile

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Hierarchy answers the type questions needed to recompute frames.
type Hierarchy interface {
	CommonSuperclass(a, b string) (string, error)
}

// Codec converts between stored class bytes and structural nodes.
type Codec interface {
	Decode(data []byte) (*Node, error)
	Encode(n *Node, h Hierarchy) ([]byte, error)
}

// YAMLCodec stores classes as YAML documents.
type YAMLCodec struct{}

// NewYAMLCodec returns the default codec.
func NewYAMLCodec() YAMLCodec { return YAMLCodec{} }

// Decode parses data into a Node.
func (YAMLCodec) Decode(data []byte) (*Node, error) {
	var n Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode class: %w", err)
	}
	if n.Name == "" {
		return nil, fmt.Errorf("decode class: missing name")
	}
	return &n, nil
}

// Encode serializes n, recomputing every method's frames through h. The node
// itself is not modified.
func (YAMLCodec) Encode(n *Node, h Hierarchy) ([]byte, error) {
	if n == nil || n.Name == "" {
		return nil, fmt.Errorf("encode class: missing name")
	}
	out := n.Clone()
	for _, m := range out.Methods {
		m.Frames = nil
		for _, j := range m.Joins {
			common, err := commonOf(h, j)
			if err != nil {
				return nil, fmt.Errorf("encode class %s: method %s%s: %w", n.Name, m.Name, m.Descriptor, err)
			}
			m.Frames = append(m.Frames, Frame{Left: j.Left, Right: j.Right, Common: common})
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode class %s: %w", n.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode class %s: %w", n.Name, err)
	}
	return buf.Bytes(), nil
}

func commonOf(h Hierarchy, j Join) (string, error) {
	if j.Left == j.Right {
		return j.Left, nil
	}
	if h == nil {
		return "", fmt.Errorf("no hierarchy to merge %s and %s", j.Left, j.Right)
	}
	return h.CommonSuperclass(j.Left, j.Right)
}
