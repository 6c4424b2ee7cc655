package transformers

import (
	"git.home.luguber.info/inful/classforge/internal/transform"
)

// Builtin constructs every built-in transformer with opts.
func Builtin(opts Options) ([]transform.Transformer, error) {
	marker, err := NewAddMarkerField(opts)
	if err != nil {
		return nil, err
	}
	rename, err := NewRenameMarkerField(opts)
	if err != nil {
		return nil, err
	}
	remover, err := NewClassRemover(opts)
	if err != nil {
		return nil, err
	}
	prefix, err := NewPrefixRename(opts)
	if err != nil {
		return nil, err
	}
	return []transform.Transformer{
		marker,
		rename,
		Noop{},
		StripDebugInfo{},
		RemoveUnusedPrivateFields{},
		prefix,
		remover,
	}, nil
}

// NewRegistry returns a registry holding every built-in transformer.
func NewRegistry(opts Options) (*transform.Registry, error) {
	ts, err := Builtin(opts)
	if err != nil {
		return nil, err
	}
	return transform.NewRegistry(ts...)
}
