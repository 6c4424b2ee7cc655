package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

type fixedHierarchy string

func (h fixedHierarchy) CommonSuperclass(_, _ string) (string, error) { return string(h), nil }

func put(t *testing.T, b *workspace.Bundle, n *classfile.Node) {
	t.Helper()
	data, err := classfile.NewYAMLCodec().Encode(n, fixedHierarchy("a/Base"))
	require.NoError(t, err)
	b.Put(workspace.NewClassInfo(n.Name, data))
}

func decode(t *testing.T, ws *workspace.Workspace, name string) *classfile.Node {
	t.Helper()
	info, ok := ws.FindClass(name)
	require.True(t, ok, "class %s", name)
	n, err := classfile.NewYAMLCodec().Decode(info.Bytes())
	require.NoError(t, err)
	return n
}

func TestApplierMovesAndRewrites(t *testing.T) {
	b := workspace.NewBundle("app")
	put(t, b, &classfile.Node{Name: "a/Base", Super: "java/lang/Object"})
	put(t, b, &classfile.Node{Name: "a/Child", Super: "a/Base"})
	put(t, b, &classfile.Node{Name: "a/Unrelated", Super: "java/lang/Object"})
	ws := workspace.New(workspace.NewResource("in", b))

	m := New()
	m.AddClass("a/Base", "z/Root")

	report, err := NewApplier(classfile.NewYAMLCodec(), nil, 0).Apply(context.Background(), ws, m)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a/Base": "z/Root"}, report.Moved)
	assert.Equal(t, []string{"a/Child", "z/Root"}, report.Rewritten)

	_, ok := ws.FindClass("a/Base")
	assert.False(t, ok)
	assert.Equal(t, "z/Root", decode(t, ws, "a/Child").Super)
	assert.Equal(t, "z/Root", decode(t, ws, "z/Root").Name)
}

func TestApplierRecomputesFramesAgainstRenamedTypes(t *testing.T) {
	b := workspace.NewBundle("app")
	put(t, b, &classfile.Node{Name: "a/Base", Super: "java/lang/Object"})
	put(t, b, &classfile.Node{Name: "a/Left", Super: "a/Base"})
	put(t, b, &classfile.Node{Name: "a/Right", Super: "a/Base"})
	ws := workspace.New(workspace.NewResource("in", b))

	m := New()
	m.AddClass("a/Base", "z/Base")
	m.AddMethod("a/Left", "go", "()V", "run")
	b2 := workspace.NewBundle("user")
	put(t, b2, &classfile.Node{
		Name: "a/User", Super: "java/lang/Object",
		Methods: []*classfile.Method{{
			Name: "pick", Descriptor: "()V",
			Joins: []classfile.Join{{Left: "a/Left", Right: "a/Right"}},
		}},
	})
	ws.Primary().AddBundle(b2)

	_, err := NewApplier(classfile.NewYAMLCodec(), nil, 0).Apply(context.Background(), ws, m)
	require.NoError(t, err)

	user := decode(t, ws, "a/User")
	require.Len(t, user.Methods[0].Frames, 1)
	assert.Equal(t, "z/Base", user.Methods[0].Frames[0].Common)
}

func TestApplierEmptyMappingIsNoop(t *testing.T) {
	ws := workspace.New(workspace.NewResource("in"))
	report, err := NewApplier(classfile.NewYAMLCodec(), nil, 0).Apply(context.Background(), ws, New())
	require.NoError(t, err)
	assert.Empty(t, report.Rewritten)
}

func TestApplierDecodeFailureWritesNothing(t *testing.T) {
	b := workspace.NewBundle("app")
	put(t, b, &classfile.Node{Name: "a/Base", Super: "java/lang/Object"})
	b.Put(workspace.NewClassInfo("a/Bad", []byte("- not a class")))
	ws := workspace.New(workspace.NewResource("in", b))

	m := New()
	m.AddClass("a/Base", "z/Base")
	_, err := NewApplier(classfile.NewYAMLCodec(), nil, 0).Apply(context.Background(), ws, m)
	require.Error(t, err)
	_, ok := ws.FindClass("a/Base")
	assert.True(t, ok)
}

func TestApplierHonorsCancellation(t *testing.T) {
	b := workspace.NewBundle("app")
	put(t, b, &classfile.Node{Name: "a/Base", Super: "java/lang/Object"})
	ws := workspace.New(workspace.NewResource("in", b))
	m := New()
	m.AddClass("a/Base", "z/Base")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewApplier(classfile.NewYAMLCodec(), nil, 0).Apply(ctx, ws, m)
	require.ErrorIs(t, err, context.Canceled)
}
