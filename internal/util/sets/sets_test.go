package sets

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_AddHasDelete(t *testing.T) {
	s := New("b", "a")
	assert.True(t, s.Has("a"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("c"))
	s.Delete("b")
	assert.Equal(t, []string{"a", "c"}, Sorted(s))
}

func TestSync_ConcurrentAdd(t *testing.T) {
	s := NewSync[string]()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(strconv.Itoa(i % 10))
		}(i)
	}
	wg.Wait()

	require.Equal(t, 10, s.Len())
	snap := s.Snapshot()
	snap.Add("extra")
	assert.False(t, s.Has("extra"))
}
