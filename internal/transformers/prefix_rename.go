package transformers

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

const PrefixRenameName = "prefix_rename"

// PrefixRename moves every class under package From to package To. The
// rename is propagated workspace-wide when the result is applied.
type PrefixRename struct {
	transform.Base
	From string
	To   string
}

// NewPrefixRename reads the "from" and "to" options. Validation is deferred
// to Setup so the transformer can be registered without being configured.
func NewPrefixRename(opts Options) (*PrefixRename, error) {
	s := opts.of(PrefixRenameName)
	from, err := s.string("from", "")
	if err != nil {
		return nil, err
	}
	to, err := s.string("to", "")
	if err != nil {
		return nil, err
	}
	return &PrefixRename{From: from, To: to}, nil
}

func (*PrefixRename) Name() string { return PrefixRenameName }

// Setup rejects missing or malformed package prefixes.
func (t *PrefixRename) Setup(*transform.Context, *workspace.Workspace) error {
	for _, opt := range [][2]string{{"from", t.From}, {"to", t.To}} {
		name, v := opt[0], opt[1]
		if v == "" {
			return fmt.Errorf("option %q is required", name)
		}
		if !strings.HasSuffix(v, "/") || strings.HasPrefix(v, "/") {
			return fmt.Errorf("option %q must be a package prefix like com/example/, got %q", name, v)
		}
	}
	if t.From == t.To {
		return fmt.Errorf("options from and to are both %q", t.From)
	}
	return nil
}

func (t *PrefixRename) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	rest, ok := strings.CutPrefix(class.Name(), t.From)
	if !ok {
		return nil
	}
	return ctx.RenameClass(class.Name(), t.To+rest)
}
