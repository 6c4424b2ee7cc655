package transformers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/classforge/internal/classfile"
	"git.home.luguber.info/inful/classforge/internal/transform"
	"git.home.luguber.info/inful/classforge/internal/workspace"
)

var codec = classfile.NewYAMLCodec()

func newWorkspace(t *testing.T, nodes ...*classfile.Node) *workspace.Workspace {
	t.Helper()
	b := workspace.NewBundle("app")
	for _, n := range nodes {
		data, err := codec.Encode(n, nil)
		require.NoError(t, err)
		b.Put(workspace.NewClassInfo(n.Name, data))
	}
	return workspace.New(workspace.NewResource("input", b))
}

func run(t *testing.T, ws *workspace.Workspace, opts Options, names ...string) *transform.Result {
	t.Helper()
	reg, err := NewRegistry(opts)
	require.NoError(t, err)
	result, err := transform.NewApplier(ws, reg, codec, transform.Options{MaxPasses: 5, Parallel: true}).
		Run(t.Context(), names, nil)
	require.NoError(t, err)
	return result
}

func decoded(t *testing.T, result *transform.Result, name string) *classfile.Node {
	t.Helper()
	info, ok := result.TransformedClasses()[name]
	require.True(t, ok, "class %s not transformed", name)
	n, err := codec.Decode(info.Bytes())
	require.NoError(t, err)
	return n
}

func TestNewRegistryHoldsAllBuiltins(t *testing.T) {
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		AddMarkerFieldName,
		ClassRemoverName,
		NoopName,
		PrefixRenameName,
		RemoveUnusedPrivateFieldsName,
		RenameMarkerFieldName,
		StripDebugInfoName,
	}, reg.Names())
}

func TestMarkerFieldPair(t *testing.T) {
	ws := newWorkspace(t,
		&classfile.Node{Name: "a/A", Super: "java/lang/Object"},
		&classfile.Node{Name: "a/I", Access: classfile.AccInterface},
	)
	result := run(t, ws, Options{RenameMarkerFieldName: {"to": "seen"}}, RenameMarkerFieldName)

	assert.Equal(t, []string{AddMarkerFieldName, RenameMarkerFieldName}, result.Queue())
	n := decoded(t, result, "a/A")
	assert.NotNil(t, n.Field("seen"))
	assert.Nil(t, n.Field(defaultMarkerField))
	assert.NotContains(t, result.TransformedClasses(), "a/I", "interfaces are skipped")
	assert.Equal(t, 2, result.Passes())
}

func TestAddMarkerFieldAlone(t *testing.T) {
	ws := newWorkspace(t, &classfile.Node{Name: "a/A"})
	result := run(t, ws, Options{AddMarkerFieldName: {"field": "tag"}}, AddMarkerFieldName)
	f := decoded(t, result, "a/A").Field("tag")
	require.NotNil(t, f)
	assert.Equal(t, "Z", f.Descriptor)
	assert.NotZero(t, f.Access&classfile.AccSynthetic)
}

func TestNoopConverges(t *testing.T) {
	ws := newWorkspace(t, &classfile.Node{Name: "a/A"}, &classfile.Node{Name: "a/B"})
	result := run(t, ws, nil, NoopName)
	assert.Equal(t, 1, result.Passes())
	assert.True(t, result.IsEmpty())
}

func TestStripDebugInfo(t *testing.T) {
	ws := newWorkspace(t,
		&classfile.Node{Name: "a/A", SourceFile: "A.java", Attributes: map[string]string{"LineNumberTable": "1:2", "Signature": "x"}},
		&classfile.Node{Name: "a/B"},
	)
	result := run(t, ws, nil, StripDebugInfoName)
	n := decoded(t, result, "a/A")
	assert.Empty(t, n.SourceFile)
	assert.Equal(t, map[string]string{"Signature": "x"}, n.Attributes)
	assert.NotContains(t, result.TransformedClasses(), "a/B")
}

func TestRemoveUnusedPrivateFields(t *testing.T) {
	ws := newWorkspace(t, &classfile.Node{
		Name: "a/A",
		Fields: []*classfile.Field{
			{Name: "used", Descriptor: "I", Access: classfile.AccPrivate},
			{Name: "unused", Descriptor: "I", Access: classfile.AccPrivate},
			{Name: "visible", Descriptor: "I", Access: classfile.AccPublic},
			{Name: "this$0", Descriptor: "La/Outer;", Access: classfile.AccPrivate | classfile.AccSynthetic},
		},
		Methods: []*classfile.Method{{Name: "get", Descriptor: "()I", Code: []string{"aload 0", "getfield a/A.used:I", "ireturn"}}},
	})
	result := run(t, ws, nil, RemoveUnusedPrivateFieldsName)
	n := decoded(t, result, "a/A")
	var names []string
	for _, f := range n.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"used", "visible", "this$0"}, names)
}

func TestPrefixRename(t *testing.T) {
	ws := newWorkspace(t,
		&classfile.Node{Name: "com/old/Api", Super: "java/lang/Object"},
		&classfile.Node{Name: "com/app/Main", Super: "com/old/Api"},
	)
	result := run(t, ws, Options{PrefixRenameName: {"from": "com/old/", "to": "org/new/"}}, PrefixRenameName)
	require.NotNil(t, result.MappingsToApply())
	assert.Equal(t, map[string]string{"com/old/Api": "org/new/Api"}, result.MappingsToApply().Classes())
	assert.Equal(t, []string{"com/old/Api"}, result.ModifiedClassesPerTransformer()[PrefixRenameName])

	require.NoError(t, result.Apply(t.Context()))
	_, ok := ws.FindClass("com/old/Api")
	assert.False(t, ok)
	info, ok := ws.FindClass("com/app/Main")
	require.True(t, ok)
	n, err := codec.Decode(info.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "org/new/Api", n.Super)
}

func TestPrefixRenameSetupValidation(t *testing.T) {
	cases := []Options{
		nil,
		{PrefixRenameName: {"from": "com/old", "to": "org/new/"}},
		{PrefixRenameName: {"from": "com/x/", "to": "com/x/"}},
	}
	for _, opts := range cases {
		p, err := NewPrefixRename(opts)
		require.NoError(t, err)
		assert.Error(t, p.Setup(nil, nil))
	}
}

func TestClassRemover(t *testing.T) {
	ws := newWorkspace(t,
		&classfile.Node{Name: "a/Keep"},
		&classfile.Node{Name: "a/internal/Gen1"},
		&classfile.Node{Name: "a/Test"},
	)
	opts := Options{ClassRemoverName: {"patterns": []any{"a/internal/*", "*/Test"}}}
	result := run(t, ws, opts, ClassRemoverName)
	assert.Equal(t, []string{"a/Test", "a/internal/Gen1"}, result.ClassesToRemove())

	require.NoError(t, result.Apply(t.Context()))
	assert.Equal(t, 1, ws.Primary().ClassCount())
}

func TestClassRemoverOptions(t *testing.T) {
	_, err := NewClassRemover(Options{ClassRemoverName: {"patterns": 3}})
	require.Error(t, err)

	r, err := NewClassRemover(Options{ClassRemoverName: {"patterns": "["}})
	require.NoError(t, err)
	require.Error(t, r.Setup(nil, nil))

	r, err = NewClassRemover(nil)
	require.NoError(t, err)
	require.Error(t, r.Setup(nil, nil))
}

func TestOptionTypeErrors(t *testing.T) {
	_, err := NewAddMarkerField(Options{AddMarkerFieldName: {"field": 1}})
	require.Error(t, err)
	_, err = NewRegistry(Options{RenameMarkerFieldName: {"to": []any{"x"}}})
	require.Error(t, err)
}

func TestSetupFailureAbortsRun(t *testing.T) {
	ws := newWorkspace(t, &classfile.Node{Name: "a/A"})
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	_, err = transform.NewApplier(ws, reg, codec, transform.DefaultOptions()).
		Run(t.Context(), []string{ClassRemoverName}, nil)
	var se *transform.SetupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ClassRemoverName, se.Transformer)
}
