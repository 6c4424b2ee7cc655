package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/workspace"
)

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(noop("b"), noop("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	require.Error(t, reg.Register(noop("a")), "duplicate")
	require.Error(t, reg.Register(noop("")), "empty name")
	require.Error(t, reg.Register(noop(CommitTransformer)), "reserved")
	require.Error(t, reg.Register(nil))

	_, err = NewRegistry(noop("x"), noop("x"))
	require.Error(t, err)
}

type otherTransformer struct{ Base }

func (otherTransformer) Name() string { return "other" }
func (otherTransformer) Transform(*Context, *workspace.Workspace, *workspace.Resource, *workspace.Bundle, *workspace.ClassInfo) error {
	return nil
}

func TestLookup(t *testing.T) {
	reg, err := NewRegistry(noop("fake"), otherTransformer{})
	require.NoError(t, err)

	f, err := Lookup[*fakeTransformer](reg, "fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", f.Name())

	_, err = Lookup[*fakeTransformer](reg, "other")
	require.Error(t, err)

	_, err = Lookup[*fakeTransformer](reg, "nope")
	var unknown *UnknownTransformerError
	require.ErrorAs(t, err, &unknown)
}

func TestBaseAndPrunable(t *testing.T) {
	o := otherTransformer{}
	assert.Nil(t, o.Dependencies())
	assert.NoError(t, o.Setup(nil, nil))
	assert.False(t, IsPrunable(o))
	assert.True(t, IsPrunable(&fakeTransformer{name: "p", prunable: true}))
}
