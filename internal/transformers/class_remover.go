package transformers

import (
	"fmt"
	"path"

	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

const ClassRemoverName = "class_remover"

// ClassRemover deletes classes whose name matches any glob pattern.
// Patterns use path.Match syntax, so "*" does not cross package separators.
type ClassRemover struct {
	transform.Base
	Patterns []string
}

// NewClassRemover reads the "patterns" option.
func NewClassRemover(opts Options) (*ClassRemover, error) {
	patterns, err := opts.of(ClassRemoverName).strings("patterns")
	if err != nil {
		return nil, err
	}
	return &ClassRemover{Patterns: patterns}, nil
}

func (*ClassRemover) Name() string { return ClassRemoverName }

// Setup validates the patterns.
func (t *ClassRemover) Setup(*transform.Context, *workspace.Workspace) error {
	if len(t.Patterns) == 0 {
		return fmt.Errorf("option %q is required", "patterns")
	}
	for _, p := range t.Patterns {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

func (t *ClassRemover) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	if ctx.IsRemoved(class.Name()) {
		return nil
	}
	for _, p := range t.Patterns {
		if ok, _ := path.Match(p, class.Name()); ok {
			return ctx.RemoveClass(class.Name())
		}
	}
	return nil
}
