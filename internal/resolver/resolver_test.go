package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/hupe1980/streetsearch/internal/cache"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/internal/query"
	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/model"
	"github.com/hupe1980/streetsearch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTags []string

func (s staticTags) Tags() []string { return s }

func fixture() *testutil.Dataset {
	return testutil.NewDataset().
		AddLocation(1, 0, 0).
		AddLocation(2, 0, 0).
		AddTag("coffee", testutil.Postings{1: model.North}).
		AddTag("coffee shop", testutil.Postings{2: model.East}).
		AddTag("east", testutil.Postings{1: model.East}).
		AddTag("tree", testutil.Postings{2: model.South})
}

func TestRequired(t *testing.T) {
	ds := fixture()
	r := New(nil, index.NewStore(), staticTags(ds.Manifest().Tags()))

	got := r.Required(query.Parse(`"east"`))
	assert.Equal(t, []shard.ID{shard.Of("east")}, got)

	got = r.Required(query.Parse(`coffee`))
	assert.ElementsMatch(t, dedupe(shard.Of("coffee"), shard.Of("coffee shop")), got)

	got = r.Required(query.Parse(`coffee, "tree", coffee`))
	assert.ElementsMatch(t, dedupe(shard.Of("coffee"), shard.Of("coffee shop"), shard.Of("tree")), got)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}

	assert.Empty(t, r.Required(query.Parse(`bicycle`)))
	assert.Empty(t, r.Required(nil))
}

func TestRequired_NoManifest(t *testing.T) {
	r := New(nil, index.NewStore(), nil)
	assert.Empty(t, r.Required(query.Parse("coffee")))
	assert.Equal(t, []shard.ID{shard.Of("coffee")}, r.Required(query.Parse(`"coffee"`)))
}

func TestEnsure_LoadsAndMerges(t *testing.T) {
	ds := fixture()
	store := testutil.NewCountingStore(ds.MustMemoryStore())
	idx := index.NewStore()

	var mu sync.Mutex
	var events []FetchEvent
	r := New(store, idx, staticTags(ds.Manifest().Tags()), WithFetchHook(func(ev FetchEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))

	ctx := context.Background()
	rep, err := r.Ensure(ctx, query.Parse("coffee"))
	require.NoError(t, err)
	assert.False(t, rep.Degraded())
	assert.ElementsMatch(t, rep.Required, rep.Fetched)

	_, ok := idx.Postings("coffee")
	assert.True(t, ok)
	_, ok = idx.Postings("coffee shop")
	assert.True(t, ok)
	assert.Len(t, events, len(rep.Fetched))

	// Already loaded: nothing fetched again.
	rep, err = r.Ensure(ctx, query.Parse("coffee"))
	require.NoError(t, err)
	assert.Empty(t, rep.Fetched)
	assert.Equal(t, 1, store.Reads(ds.Layout.Index(shard.Of("coffee"))))
}

func TestEnsure_FailedShardIsRetried(t *testing.T) {
	ds := fixture()
	store := testutil.NewCountingStore(ds.MustMemoryStore())
	r := New(store, index.NewStore(), nil)
	name := ds.Layout.Index(shard.Of("east"))
	store.FailNext(name, 1)

	ctx := context.Background()
	rep, err := r.Ensure(ctx, query.Parse(`"east"`))
	require.NoError(t, err)
	require.True(t, rep.Degraded())
	assert.ErrorIs(t, rep.Failed[shard.Of("east")], testutil.ErrInjected)
	assert.Equal(t, cache.StateFailed, r.Cache().State(shard.Of("east")))

	rep, err = r.Ensure(ctx, query.Parse(`"east"`))
	require.NoError(t, err)
	assert.False(t, rep.Degraded())
	assert.Equal(t, []shard.ID{shard.Of("east")}, rep.Fetched)
	assert.Equal(t, 2, store.Reads(name))
}

func TestEnsure_DecodeFailureIsNotRetried(t *testing.T) {
	ds := fixture()
	mem := ds.MustMemoryStore()
	name := ds.Layout.Index(shard.Of("east"))
	require.NoError(t, mem.Put(context.Background(), name, []byte(`not json`)))
	store := testutil.NewCountingStore(mem)

	idx := index.NewStore()
	r := New(store, idx, nil)

	ctx := context.Background()
	rep, err := r.Ensure(ctx, query.Parse(`"east"`))
	require.NoError(t, err)
	assert.False(t, rep.Degraded())
	assert.Equal(t, cache.StateLoaded, r.Cache().State(shard.Of("east")))

	_, err = r.Ensure(ctx, query.Parse(`"east"`))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Reads(name))
	assert.Equal(t, 0, idx.LocationCount("east"))
}

func TestEnsure_ConcurrentCallsFetchOnce(t *testing.T) {
	ds := fixture()
	store := testutil.NewCountingStore(ds.MustMemoryStore())
	r := New(store, index.NewStore(), nil, WithConcurrency(2))
	name := ds.Layout.Index(shard.Of("tree"))
	release := store.Hold(name)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Ensure(ctx, query.Parse(`"tree"`))
			assert.NoError(t, err)
		}()
	}
	release()
	wg.Wait()

	assert.Equal(t, 1, store.Reads(name))
	assert.True(t, r.Cache().Has(shard.Of("tree")))
}

func TestEnsure_Canceled(t *testing.T) {
	ds := fixture()
	store := testutil.NewCountingStore(ds.MustMemoryStore())
	r := New(store, index.NewStore(), nil)
	name := ds.Layout.Index(shard.Of("tree"))
	release := store.Hold(name)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Ensure(ctx, query.Parse(`"tree"`))
	assert.True(t, IsCanceled(err))
}

func dedupe(ids ...shard.ID) []shard.ID {
	seen := make(map[shard.ID]bool)
	var out []shard.ID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
