package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "classforge.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, exists := err.Context().GetString("file")
		require.True(t, exists)
		assert.Equal(t, "classforge.yaml", file)
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())
	})

	t.Run("Error detection", func(t *testing.T) {
		err := TransformError("setup failed").Build()

		assert.True(t, IsClassified(err))
		assert.True(t, HasCategory(err, CategoryTransform))
		assert.True(t, err.IsFatal())
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})
}

func TestErrorBuilder_WrapAndUnwrap(t *testing.T) {
	original := errors.New("disk full")
	err := WrapError(original, CategoryFileSystem, "write class").
		Warning().
		WithContext("path", "/tmp/x").
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Same(t, original, err.Cause())
	assert.ErrorIs(t, err, original)
	assert.Contains(t, err.Error(), "disk full")
}

func TestClassifiedError_WithContextDoesNotMutate(t *testing.T) {
	base := CodecError("decode").WithContext("class", "a/B").Build()
	derived := base.WithContext("bundle", "main")

	_, ok := base.Context().Get("bundle")
	assert.False(t, ok)
	v, ok := derived.Context().GetString("class")
	require.True(t, ok)
	assert.Equal(t, "a/B", v)
}

func TestAsClassified_FindsWrapped(t *testing.T) {
	inner := MappingError("rename collision").Build()
	wrapped := errors.Join(errors.New("outer"), inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Equal(t, CategoryMapping, got.Category())
	assert.True(t, errors.Is(wrapped, MappingError("rename collision").Build()))
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{"x": 1, "y": 2}
	b := ErrorContext{"y": 3}
	merged := a.Merge(b)
	assert.Equal(t, 1, merged["x"])
	assert.Equal(t, 3, merged["y"])
	assert.Equal(t, 2, a["y"])
	assert.Equal(t, b, ErrorContext(nil).Merge(b))
}
