package mapping

import (
	"context"
	"log/slog"
	"reflect"
	"sort"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/hierarchy"
	"git.home.luguber.info/inful/classforge/internal/logfields"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

// Report lists what an Apply call changed.
type Report struct {
	// Rewritten holds the final names of classes whose bytes changed.
	Rewritten []string
	// Moved maps old class names to their new identity.
	Moved map[string]string
}

// Applier propagates a Mapping across every class of a workspace's primary
// resource.
type Applier struct {
	codec     classfile.Codec
	logger    *slog.Logger
	cacheSize int
}

// NewApplier creates an Applier. A nil logger uses slog.Default.
func NewApplier(codec classfile.Codec, logger *slog.Logger, cacheSize int) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{codec: codec, logger: logger, cacheSize: cacheSize}
}

type pending struct {
	bundle *workspace.Bundle
	old    string
	data   []byte
	orig   *classfile.Node
	node   *classfile.Node
}

// Apply rewrites the primary resource of ws through m. Nothing is written
// unless every class decodes and encodes.
func (a *Applier) Apply(ctx context.Context, ws *workspace.Workspace, m *Mapping) (*Report, error) {
	report := &Report{Moved: make(map[string]string)}
	if m == nil || m.IsEmpty() {
		return report, nil
	}

	var all []pending
	renamed := make(map[string]*classfile.Node)
	err := ws.Primary().Walk(func(b *workspace.Bundle) error {
		for _, info := range b.Classes() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := a.codec.Decode(info.Bytes())
			if err != nil {
				return errors.WrapError(err, errors.CategoryMapping, "decode class for remapping").
					WithContext("class", info.Name()).Build()
			}
			out, _ := m.Remap(n)
			renamed[out.Name] = out
			all = append(all, pending{bundle: b, old: info.Name(), orig: n, node: out})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	graph, err := hierarchy.New(hierarchy.Overlay(renamed, hierarchy.WorkspaceSource(ws, a.codec)), a.cacheSize)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "create hierarchy").Build()
	}

	// Frames of untouched classes can still name a renamed type, so every
	// class is re-encoded and compared structurally.
	var changed []pending
	for _, p := range all {
		data, err := a.codec.Encode(p.node, graph)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryMapping, "encode remapped class").
				WithContext("class", p.old).Build()
		}
		if p.node.Name == p.old {
			if back, err := a.codec.Decode(data); err == nil && reflect.DeepEqual(back, p.orig) {
				continue
			}
		}
		p.data = data
		changed = append(changed, p)
	}

	for _, p := range changed {
		if p.node.Name != p.old {
			p.bundle.Remove(p.old)
			report.Moved[p.old] = p.node.Name
		}
	}
	for _, p := range changed {
		p.bundle.Put(workspace.NewClassInfo(p.node.Name, p.data))
		report.Rewritten = append(report.Rewritten, p.node.Name)
	}
	sort.Strings(report.Rewritten)

	a.logger.Info("Applied mapping",
		logfields.Count(len(report.Rewritten)),
		slog.Int("moved", len(report.Moved)))
	return report, nil
}
