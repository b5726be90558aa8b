package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.now
	return s, clock
}

func TestMemoryStore_GetSetExpiry(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "rnc:131246796")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "rnc:131246796", `{"name":"ACME"}`, time.Minute))
	v, ok, err := s.Get(ctx, "rnc:131246796")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"ACME"}`, v)

	clock.advance(time.Minute)
	_, ok, _ = s.Get(ctx, "rnc:131246796")
	assert.False(t, ok)
}

func TestMemoryStore_SetNX(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "idem:abc", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "idem:abc", "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.advance(2 * time.Hour)
	ok, err = s.SetNX(ctx, "idem:abc", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_SetNXConcurrent(t *testing.T) {
	s := NewMemoryStore()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.SetNX(context.Background(), "k", "v", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStore_DeleteAndSweep(t *testing.T) {
	s, clock := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1", time.Second))
	require.NoError(t, s.Set(ctx, "b", "2", 0))
	require.NoError(t, s.Delete(ctx, "b"))
	_, ok, _ := s.Get(ctx, "b")
	assert.False(t, ok)

	clock.advance(time.Second)
	assert.Equal(t, 1, s.Sweep())
}
