package classfile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedHierarchy map[[2]string]string

func (f fixedHierarchy) CommonSuperclass(a, b string) (string, error) {
	if c, ok := f[[2]string{a, b}]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown pair %s/%s", a, b)
}

const sampleClass = `name: com/example/Dog
super: com/example/Animal
access: 1
fields:
  - name: name
    descriptor: Ljava/lang/String;
    access: 2
methods:
  - name: pick
    descriptor: (Z)Lcom/example/Animal;
    access: 1
    code: [ILOAD 1, IFEQ L1, ARETURN]
    joins:
      - left: com/example/Dog
        right: com/example/Cat
    frames:
      - left: stale
        right: stale
        common: stale
`

func TestYAMLCodec_DecodeEncodeRecomputesFrames(t *testing.T) {
	codec := NewYAMLCodec()
	n, err := codec.Decode([]byte(sampleClass))
	require.NoError(t, err)
	require.Equal(t, "com/example/Dog", n.Name)
	require.Len(t, n.Methods, 1)

	h := fixedHierarchy{{"com/example/Dog", "com/example/Cat"}: "com/example/Animal"}
	out, err := codec.Encode(n, h)
	require.NoError(t, err)

	back, err := codec.Decode(out)
	require.NoError(t, err)
	require.Len(t, back.Methods[0].Frames, 1)
	assert.Equal(t, Frame{Left: "com/example/Dog", Right: "com/example/Cat", Common: "com/example/Animal"}, back.Methods[0].Frames[0])
	// the input node keeps its stale frames; only the output is recomputed
	assert.Equal(t, "stale", n.Methods[0].Frames[0].Common)
}

func TestYAMLCodec_EncodeIsStable(t *testing.T) {
	codec := NewYAMLCodec()
	n, err := codec.Decode([]byte(sampleClass))
	require.NoError(t, err)
	h := fixedHierarchy{{"com/example/Dog", "com/example/Cat"}: "com/example/Animal"}

	first, err := codec.Encode(n, h)
	require.NoError(t, err)
	again, err := codec.Decode(first)
	require.NoError(t, err)
	second, err := codec.Encode(again, h)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestYAMLCodec_Errors(t *testing.T) {
	codec := NewYAMLCodec()

	_, err := codec.Decode([]byte("super: a/B\n"))
	require.ErrorContains(t, err, "missing name")

	_, err = codec.Decode([]byte("name: a/B\nbogus: 1\n"))
	require.Error(t, err)

	n := &Node{Name: "a/B", Methods: []*Method{{Name: "m", Descriptor: "()V", Joins: []Join{{Left: "x/X", Right: "y/Y"}}}}}
	_, err = codec.Encode(n, nil)
	require.ErrorContains(t, err, "no hierarchy")

	_, err = codec.Encode(&Node{}, nil)
	require.Error(t, err)
}

func TestYAMLCodec_IdenticalJoinNeedsNoHierarchy(t *testing.T) {
	n := &Node{Name: "a/B", Methods: []*Method{{Name: "m", Descriptor: "()V", Joins: []Join{{Left: "x/X", Right: "x/X"}}}}}
	out, err := NewYAMLCodec().Encode(n, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "common: x/X")
}
