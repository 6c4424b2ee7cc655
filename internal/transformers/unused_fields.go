package transformers

import (
	"strings"
	"unicode"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

const RemoveUnusedPrivateFieldsName = "remove_unused_private_fields"

// RemoveUnusedPrivateFields drops private fields that no method of the
// declaring class mentions. Synthetic fields are kept.
type RemoveUnusedPrivateFields struct{ transform.Base }

func (RemoveUnusedPrivateFields) Name() string   { return RemoveUnusedPrivateFieldsName }
func (RemoveUnusedPrivateFields) Prunable() bool { return true }

func (RemoveUnusedPrivateFields) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	n, err := ctx.Node(class.Name())
	if err != nil {
		return err
	}
	used := referencedNames(n)
	changed := false
	for _, f := range append([]*classfile.Field(nil), n.Fields...) {
		if f.Access&classfile.AccPrivate == 0 || f.Access&classfile.AccSynthetic != 0 {
			continue
		}
		if _, ok := used[f.Name]; ok {
			continue
		}
		n.RemoveField(f.Name)
		changed = true
	}
	if !changed {
		return nil
	}
	return ctx.SetNode(class.Name(), n)
}

// referencedNames collects identifier tokens from every code line.
func referencedNames(n *classfile.Node) map[string]struct{} {
	out := make(map[string]struct{})
	split := func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$'
	}
	for _, m := range n.Methods {
		for _, line := range m.Code {
			for _, tok := range strings.FieldsFunc(line, split) {
				out[tok] = struct{}{}
			}
		}
	}
	return out
}
