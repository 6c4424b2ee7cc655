package transformers

import (
	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

const (
	AddMarkerFieldName    = "add_marker_field"
	RenameMarkerFieldName = "rename_marker_field"

	defaultMarkerField  = "$classforge"
	defaultRenamedField = "$classforge$processed"
)

// AddMarkerField adds a private synthetic boolean field to every class that
// has neither the marker nor its renamed form.
type AddMarkerField struct {
	transform.Base
	Field string
	// Renamed is set by RenameMarkerField during Setup so the marker is not
	// added back after a rename.
	Renamed string
}

// NewAddMarkerField reads the "field" option.
func NewAddMarkerField(opts Options) (*AddMarkerField, error) {
	s := opts.of(AddMarkerFieldName)
	field, err := s.string("field", defaultMarkerField)
	if err != nil {
		return nil, err
	}
	return &AddMarkerField{Field: field}, nil
}

func (*AddMarkerField) Name() string { return AddMarkerFieldName }

// Setup forgets a rename target left by a previous run. It always runs before
// RenameMarkerField.Setup because of the dependency.
func (t *AddMarkerField) Setup(*transform.Context, *workspace.Workspace) error {
	t.Renamed = ""
	return nil
}

func (t *AddMarkerField) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	n, err := ctx.Node(class.Name())
	if err != nil {
		return err
	}
	if n.IsInterface() || n.Field(t.Field) != nil || (t.Renamed != "" && n.Field(t.Renamed) != nil) {
		return nil
	}
	n.AddField(&classfile.Field{
		Name:       t.Field,
		Descriptor: "Z",
		Access:     classfile.AccPrivate | classfile.AccSynthetic,
	})
	return ctx.SetNode(class.Name(), n)
}

// RenameMarkerField renames the field added by AddMarkerField.
type RenameMarkerField struct {
	To     string
	marker *AddMarkerField
}

// NewRenameMarkerField reads the "to" option.
func NewRenameMarkerField(opts Options) (*RenameMarkerField, error) {
	s := opts.of(RenameMarkerFieldName)
	to, err := s.string("to", defaultRenamedField)
	if err != nil {
		return nil, err
	}
	return &RenameMarkerField{To: to}, nil
}

func (*RenameMarkerField) Name() string { return RenameMarkerFieldName }

func (*RenameMarkerField) Dependencies() []string { return []string{AddMarkerFieldName} }

// Setup finds the AddMarkerField instance of this run.
func (t *RenameMarkerField) Setup(ctx *transform.Context, _ *workspace.Workspace) error {
	marker, err := transform.Lookup[*AddMarkerField](ctx.Registry(), AddMarkerFieldName)
	if err != nil {
		return err
	}
	marker.Renamed = t.To
	t.marker = marker
	return nil
}

func (t *RenameMarkerField) Transform(ctx *transform.Context, _ *workspace.Workspace, _ *workspace.Resource, _ *workspace.Bundle, class *workspace.ClassInfo) error {
	n, err := ctx.Node(class.Name())
	if err != nil {
		return err
	}
	f := n.Field(t.marker.Field)
	if f == nil || n.Field(t.To) != nil {
		return nil
	}
	f.Name = t.To
	return ctx.SetNode(class.Name(), n)
}
