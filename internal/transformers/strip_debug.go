package transformers

import (
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

const StripDebugInfoName = "strip_debug_info"

var debugAttributes = []string{
	"SourceDebugExtension",
	"LineNumberTable",
	"LocalVariableTable",
	"LocalVariableTypeTable",
}

// StripDebugInfo removes the source file name and debug attributes.
type StripDebugInfo struct{ transform.Base }

func (StripDebugInfo) Name() string   { return StripDebugInfoName }
func (StripDebugInfo) Prunable() bool { return true }

func (StripDebugInfo) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	n, err := ctx.Node(class.Name())
	if err != nil {
		return err
	}
	changed := false
	if n.SourceFile != "" {
		n.SourceFile = ""
		changed = true
	}
	for _, key := range debugAttributes {
		if _, ok := n.Attributes[key]; ok {
			delete(n.Attributes, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if len(n.Attributes) == 0 {
		n.Attributes = nil
	}
	return ctx.SetNode(class.Name(), n)
}
