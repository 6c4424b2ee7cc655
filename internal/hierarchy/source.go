package hierarchy

import (
	"sync"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// EntryOf extracts the hierarchy entry of a node.
func EntryOf(n *classfile.Node) Entry {
	return Entry{
		Name:       n.Name,
		Super:      n.Super,
		Interfaces: n.Interfaces,
		Interface:  n.IsInterface(),
	}
}

type workspaceSource struct {
	ws    *workspace.Workspace
	codec classfile.Codec

	mu   sync.Mutex
	memo map[string]lookup
}

type lookup struct {
	entry Entry
	ok    bool
	err   error
}

// WorkspaceSource resolves entries by decoding classes from ws. Decoded
// entries are memoized, so the source reflects ws as first observed.
func WorkspaceSource(ws *workspace.Workspace, codec classfile.Codec) Source {
	return &workspaceSource{ws: ws, codec: codec, memo: make(map[string]lookup)}
}

func (s *workspaceSource) Lookup(name string) (Entry, bool, error) {
	s.mu.Lock()
	if l, ok := s.memo[name]; ok {
		s.mu.Unlock()
		return l.entry, l.ok, l.err
	}
	s.mu.Unlock()

	var l lookup
	if info, ok := s.ws.FindClass(name); ok {
		n, err := s.codec.Decode(info.Bytes())
		if err != nil {
			l.err = err
		} else {
			l.entry, l.ok = EntryOf(n), true
		}
	}

	s.mu.Lock()
	s.memo[name] = l
	s.mu.Unlock()
	return l.entry, l.ok, l.err
}

type overlay struct {
	entries map[string]Entry
	base    Source
}

// Overlay serves entries for the given nodes and falls back to base for
// everything else.
func Overlay(nodes map[string]*classfile.Node, base Source) Source {
	entries := make(map[string]Entry, len(nodes))
	for name, n := range nodes {
		entries[name] = EntryOf(n)
	}
	return &overlay{entries: entries, base: base}
}

func (o *overlay) Lookup(name string) (Entry, bool, error) {
	if e, ok := o.entries[name]; ok {
		return e, true, nil
	}
	return o.base.Lookup(name)
}
