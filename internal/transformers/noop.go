package transformers

import (
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

const NoopName = "noop"

// Noop touches nothing. It is useful for timing a run and for checking that
// a workspace decodes.
type Noop struct{ transform.Base }

func (Noop) Name() string { return NoopName }

func (Noop) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	_, err := ctx.Node(class.Name())
	return err
}
