package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTTLCache_GetSetDelete(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[string, string](20*time.Millisecond, 10*time.Millisecond)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestTTLCache_GetOrLoad(t *testing.T) {
	c := New[string, []string](time.Minute, time.Minute)
	defer c.Close()

	_, err := c.GetOrLoad("circles", func() ([]string, error) { return nil, errors.New("db down") })
	require.Error(t, err)
	assert.Equal(t, 0, c.Len(), "errors are not cached")

	var loads atomic.Int32
	load := func() ([]string, error) {
		loads.Add(1)
		return []string{"hiking"}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad("circles", load)
			assert.NoError(t, err)
			assert.Equal(t, []string{"hiking"}, v)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, loads.Load())
}

func TestTTLCache_CloseTwice(t *testing.T) {
	c := New[int, int](time.Minute, time.Minute)
	c.Close()
	assert.NotPanics(t, c.Close)
}
