package ginject

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefCache_FactoryRunsAtMostOncePerKey(t *testing.T) {
	t.Parallel()

	cache := newRefCache[string, int]()
	var calls int32

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	results := make([]int, goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrCreate("k", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				return 42, nil
			})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestRefCache_FailedMaterializationIsNotPoisoned(t *testing.T) {
	t.Parallel()

	cache := newRefCache[string, int]()
	boom := assert.AnError

	_, err := cache.GetOrCreate("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := cache.GetOrCreate("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRefCache_PeekDoesNotTriggerMaterialization(t *testing.T) {
	t.Parallel()

	cache := newRefCache[string, int]()

	_, ok := cache.Peek("k")
	assert.False(t, ok)

	_, err := cache.GetOrCreate("k", func() (int, error) { return 9, nil })
	require.NoError(t, err)

	v, ok := cache.Peek("k")
	require.True(t, ok)
	assert.Equal(t, 9, v)
}

func TestRefCache_ClearDropsAllEntries(t *testing.T) {
	t.Parallel()

	cache := newRefCache[string, int]()
	_, err := cache.GetOrCreate("k", func() (int, error) { return 1, nil })
	require.NoError(t, err)

	cache.Clear()

	_, ok := cache.Peek("k")
	assert.False(t, ok)
}
