package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardCache_LoadOnce(t *testing.T) {
	c := NewShardCache[uint8, string]()
	ctx := context.Background()

	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		return "payload", nil
	}

	assert.Equal(t, StateUnrequested, c.State(0x1A))

	v, err := c.Load(ctx, 0x1A, fetch)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	v, err = c.Load(ctx, 0x1A, fetch)
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateLoaded, c.State(0x1A))
	assert.True(t, c.Has(0x1A))

	stats := c.Stats()
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Fetches)
}

func TestShardCache_FailedIsRetried(t *testing.T) {
	c := NewShardCache[string, int]()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.Load(ctx, "07", func(context.Context) (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, c.State("07"))
	assert.ErrorIs(t, c.Err("07"), boom)
	assert.False(t, c.Has("07"))

	v, err := c.Load(ctx, "07", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, StateLoaded, c.State("07"))
	assert.NoError(t, c.Err("07"))
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestShardCache_ConcurrentLoadsShareFetch(t *testing.T) {
	c := NewShardCache[uint8, int]()
	ctx := context.Background()

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	results := make([]int, n)
	for i := range n {
		go func(i int) {
			defer wg.Done()
			v, err := c.Load(ctx, 9, fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return c.State(9) == StateLoading }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestShardCache_WaiterCancelDoesNotAbortFetch(t *testing.T) {
	c := NewShardCache[uint8, int]()

	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		<-release
		return 1, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, 3, fetch)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.State(3) == StateLoading }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return c.Has(3) }, time.Second, time.Millisecond)
}

func TestShardCache_MissingAndKeys(t *testing.T) {
	c := NewShardCache[uint8, int]()
	c.Put(2, 20)
	c.Put(1, 10)

	assert.Equal(t, []uint8{3, 4}, c.Missing([]uint8{1, 3, 2, 4}))
	assert.Equal(t, []uint8{1, 2}, c.Keys())
	assert.Equal(t, 2, c.Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unrequested", StateUnrequested.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "failed", StateFailed.String())
}
