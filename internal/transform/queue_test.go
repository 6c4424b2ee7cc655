package transform

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

func TestResolveQueue_DependenciesFirst(t *testing.T) {
	reg, err := NewRegistry(
		noop("parse"),
		noop("index", "parse"),
		noop("link", "index", "parse"),
		noop("emit", "link"),
		noop("lint"),
	)
	require.NoError(t, err)

	queue, err := ResolveQueue(reg, []string{"emit", "lint", "index"})
	require.NoError(t, err)
	assert.Equal(t, []string{"parse", "index", "link", "emit", "lint"}, Names(queue))

	pos := map[string]int{}
	for i, tr := range queue {
		pos[tr.Name()] = i
	}
	for _, tr := range queue {
		for _, dep := range tr.Dependencies() {
			assert.Less(t, pos[dep], pos[tr.Name()], "%s must follow %s", tr.Name(), dep)
		}
	}
}

func TestResolveQueue_EachNameOnce(t *testing.T) {
	reg, err := NewRegistry(noop("a"), noop("b", "a"), noop("c", "a", "b"))
	require.NoError(t, err)
	queue, err := ResolveQueue(reg, []string{"c", "b", "a", "c"})
	require.NoError(t, err)
	names := Names(queue)
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Len(t, slices.Compact(slices.Clone(names)), 3)
}

func TestResolveQueue_Cycle(t *testing.T) {
	reg, err := NewRegistry(noop("a", "c"), noop("b", "a"), noop("c", "b"), noop("free"))
	require.NoError(t, err)

	_, err = ResolveQueue(reg, []string{"free", "a"})
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "c", "b", "a"}, cycle.Chain)
	assert.Contains(t, err.Error(), "a -> c -> b -> a")
}

func TestResolveQueue_SelfDependency(t *testing.T) {
	reg, err := NewRegistry(noop("self", "self"))
	require.NoError(t, err)
	_, err = ResolveQueue(reg, []string{"self"})
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"self", "self"}, cycle.Chain)
}

func TestResolveQueue_Unknown(t *testing.T) {
	reg, err := NewRegistry(noop("a", "ghost"))
	require.NoError(t, err)

	_, err = ResolveQueue(reg, []string{"a"})
	var unknown *UnknownTransformerError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Name)
	assert.Equal(t, "a", unknown.RequiredBy)

	_, err = ResolveQueue(reg, []string{"missing"})
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, unknown.RequiredBy)
}

func TestPlanWrapsResolutionErrors(t *testing.T) {
	ws := newWorkspace(t, "a/A")
	a := newApplier(t, ws, DefaultOptions(), noop("x", "y"), noop("y", "x"))
	_, err := a.Plan([]string{"x"})

	ce, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, foundationerrors.CategoryTransform, ce.Category())
	assert.True(t, ce.IsFatal())
	var cycle *CycleError
	assert.True(t, errors.As(err, &cycle))
}
