package inject

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingletonCache_GetOrCreate(t *testing.T) {
	t.Run("builds once", func(t *testing.T) {
		t.Parallel()

		cache := newSingletonCache()
		key := KeyOf[*TService]()

		first, created, err := cache.getOrCreate(key, func() (any, error) { return &TService{ID: "a"}, nil })
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := cache.getOrCreate(key, func() (any, error) {
			t.Fatal("build must not run twice")
			return nil, nil
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Same(t, first, second)

		got, ok := cache.get(key)
		assert.True(t, ok)
		assert.Same(t, first, got)
		assert.Equal(t, 1, cache.len())
	})

	t.Run("failed builds are not cached", func(t *testing.T) {
		t.Parallel()

		cache := newSingletonCache()
		key := KeyOf[*TService]()

		_, _, err := cache.getOrCreate(key, func() (any, error) { return nil, errors.New("boom") })
		require.Error(t, err)

		_, ok := cache.get(key)
		assert.False(t, ok)
		assert.Equal(t, 0, cache.len())

		v, created, err := cache.getOrCreate(key, func() (any, error) { return &TService{}, nil })
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotNil(t, v)
	})

	t.Run("nil instances are cached", func(t *testing.T) {
		t.Parallel()

		cache := newSingletonCache()
		key := KeyOf[*TService]()

		calls := 0
		for i := 0; i < 3; i++ {
			v, _, err := cache.getOrCreate(key, func() (any, error) {
				calls++
				return nil, nil
			})
			require.NoError(t, err)
			assert.Nil(t, v)
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("annotations separate entries", func(t *testing.T) {
		t.Parallel()

		cache := newSingletonCache()
		a, _, _ := cache.getOrCreate(KeyOf[*TService]().Annotated("a"), func() (any, error) { return &TService{ID: "a"}, nil })
		b, _, _ := cache.getOrCreate(KeyOf[*TService]().Annotated("b"), func() (any, error) { return &TService{ID: "b"}, nil })

		assert.NotSame(t, a, b)
		assert.Equal(t, 2, cache.len())
	})
}

func TestSingletonCache_Concurrent(t *testing.T) {
	cache := newSingletonCache()
	key := KeyOf[*TService]()

	var builds atomic.Int32
	start := make(chan struct{})
	results := make([]any, 50)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, _, err := cache.getOrCreate(key, func() (any, error) {
				builds.Add(1)
				return &TService{ID: "shared"}, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}
