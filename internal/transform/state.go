package transform

import (
	"bytes"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/classforge/internal/classfile"
)

// representation is the authoritative form of a class: bytesRepr or nodeRepr.
type representation interface {
	isRepresentation()
}

type bytesRepr struct {
	data []byte
}

// nodeRepr holds a materialized node and the bytes it was read from. source
// stays valid until the node is replaced.
type nodeRepr struct {
	node     *classfile.Node
	source   []byte
	modified bool
}

func (bytesRepr) isRepresentation() {}
func (nodeRepr) isRepresentation()  {}

// ClassState is the per-run cell of one class. Only one task touches a cell
// at a time; the mutex guards first materialization.
type ClassState struct {
	name     string
	original []byte
	codec    classfile.Codec

	mu      sync.Mutex
	current representation
	dirty   bool
	worked  bool
}

func newClassState(name string, original []byte, codec classfile.Codec) *ClassState {
	return &ClassState{
		name:     name,
		original: original,
		codec:    codec,
		current:  bytesRepr{data: original},
	}
}

// Name returns the class name.
func (s *ClassState) Name() string { return s.name }

// Original returns the bytes the class had when the run started.
func (s *ClassState) Original() []byte { return s.original }

// Node returns the structural view, decoding the current bytes on first use.
func (s *ClassState) Node() (*classfile.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch cur := s.current.(type) {
	case nodeRepr:
		return cur.node, nil
	case bytesRepr:
		n, err := s.codec.Decode(cur.data)
		if err != nil {
			return nil, fmt.Errorf("materialize %s: %w", s.name, err)
		}
		s.current = nodeRepr{node: n, source: cur.data}
		return n, nil
	default:
		return nil, fmt.Errorf("materialize %s: unknown representation %T", s.name, cur)
	}
}

// SetNode makes n authoritative and marks the class dirty. Serialization is
// deferred to commit.
func (s *ClassState) SetNode(n *classfile.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var source []byte
	switch cur := s.current.(type) {
	case nodeRepr:
		source = cur.source
	case bytesRepr:
		source = cur.data
	}
	s.current = nodeRepr{node: n, source: source, modified: true}
	s.dirty = true
	s.worked = true
}

// Bytecode returns the current bytes. A modified node is encoded through h
// for the caller only: the node stays authoritative and commit encodes it
// again against the final hierarchy.
func (s *ClassState) Bytecode(h classfile.Hierarchy) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch cur := s.current.(type) {
	case bytesRepr:
		return cur.data, nil
	case nodeRepr:
		if !cur.modified {
			return cur.source, nil
		}
		return s.codec.Encode(cur.node, h)
	default:
		return nil, fmt.Errorf("bytecode %s: unknown representation %T", s.name, cur)
	}
}

// SetBytecode replaces the current bytes, dropping any cached node.
func (s *ClassState) SetBytecode(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = bytesRepr{data: bytes.Clone(data)}
	s.dirty = true
	s.worked = true
}

// Clear rolls the class back to its original bytes.
func (s *ClassState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = bytesRepr{data: s.original}
	s.dirty = false
}

// Dirty reports whether the class changed during the run.
func (s *ClassState) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *ClassState) markWork() {
	s.mu.Lock()
	s.worked = true
	s.mu.Unlock()
}

func (s *ClassState) resetWork() {
	s.mu.Lock()
	s.worked = false
	s.mu.Unlock()
}

func (s *ClassState) didWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worked
}

// pendingNode returns the node that commit must encode, if any.
func (s *ClassState) pendingNode() (*classfile.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.current.(nodeRepr); ok && cur.modified && s.dirty {
		return cur.node, true
	}
	return nil, false
}

// commit produces the final bytes. changed is false when the class is clean
// or its final bytes equal the original.
func (s *ClassState) commit(h classfile.Hierarchy) (data []byte, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil, false, nil
	}
	switch cur := s.current.(type) {
	case bytesRepr:
		data = cur.data
	case nodeRepr:
		if cur.modified {
			data, err = s.codec.Encode(cur.node, h)
			if err != nil {
				return nil, false, err
			}
		} else {
			data = cur.source
		}
	}
	if bytes.Equal(data, s.original) {
		return nil, false, nil
	}
	return data, true, nil
}
