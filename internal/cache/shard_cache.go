package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle state of a cached shard.
//
//	Unrequested -> Loading -> Loaded (terminal)
//	Unrequested -> Loading -> Failed -> Loading -> ...
type State uint8

const (
	StateUnrequested State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnrequested:
		return "unrequested"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// FetchFunc produces the value for a shard. A returned error leaves the shard
// in StateFailed so that a later Load retries it.
type FetchFunc[V any] func(ctx context.Context) (V, error)

type slot[V any] struct {
	state State
	value V
	err   error
}

// ShardCache holds decoded shards for the lifetime of a session.
// Entries are never evicted or invalidated; once Loaded a shard is immutable.
//
// Concurrent Loads of the same key share a single fetch. A caller whose
// context ends stops waiting, but the fetch itself runs to completion so the
// result is still cached for the next caller.
type ShardCache[K comparable, V any] struct {
	mu    sync.RWMutex
	slots map[K]*slot[V]
	group singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

// NewShardCache creates an empty cache.
func NewShardCache[K comparable, V any]() *ShardCache[K, V] {
	return &ShardCache[K, V]{
		slots: make(map[K]*slot[V]),
	}
}

// Get returns a loaded shard.
func (c *ShardCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.slots[key]; ok && s.state == StateLoaded {
		return s.value, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is loaded.
func (c *ShardCache[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// State returns the lifecycle state of key.
func (c *ShardCache[K, V]) State(key K) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.slots[key]; ok {
		return s.state
	}
	return StateUnrequested
}

// Err returns the error of the last failed fetch of key, if it is Failed.
func (c *ShardCache[K, V]) Err(key K) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.slots[key]; ok && s.state == StateFailed {
		return s.err
	}
	return nil
}

// Missing returns the keys that are not loaded, preserving order.
func (c *ShardCache[K, V]) Missing(keys []K) []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []K
	for _, k := range keys {
		if s, ok := c.slots[k]; ok && s.state == StateLoaded {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Load returns the shard for key, fetching it if it is not loaded yet.
func (c *ShardCache[K, V]) Load(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	var zero V

	if v, ok := c.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		// A flight for the same key may have completed between Get and DoChan.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		c.setLoading(key)
		c.fetches.Add(1)

		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			c.failures.Add(1)
			c.setFailed(key, err)
			return nil, err
		}
		c.setLoaded(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(V)
		return v, nil
	}
}

// Put stores an already decoded shard, marking it Loaded.
func (c *ShardCache[K, V]) Put(key K, v V) {
	c.setLoaded(key, v)
}

func (c *ShardCache[K, V]) setLoading(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = &slot[V]{state: StateLoading}
}

func (c *ShardCache[K, V]) setFailed(key K, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = &slot[V]{state: StateFailed, err: err}
}

func (c *ShardCache[K, V]) setLoaded(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = &slot[V]{state: StateLoaded, value: v}
}

// Len returns the number of loaded shards.
func (c *ShardCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, s := range c.slots {
		if s.state == StateLoaded {
			n++
		}
	}
	return n
}

// Keys returns the loaded keys ordered by their string form.
func (c *ShardCache[K, V]) Keys() []K {
	c.mu.RLock()
	keys := make([]K, 0, len(c.slots))
	for k, s := range c.slots {
		if s.state == StateLoaded {
			keys = append(keys, k)
		}
	}
	c.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Loaded   int
	Hits     int64
	Misses   int64
	Fetches  int64
	Failures int64
}

// Stats returns a snapshot of the cache counters.
func (c *ShardCache[K, V]) Stats() Stats {
	return Stats{
		Loaded:   c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
}
