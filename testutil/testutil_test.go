package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	a := []int{rng.Intn(100), rng.Intn(100), rng.Intn(100)}

	rng.Reset()
	b := []int{rng.Intn(100), rng.Intn(100), rng.Intn(100)}

	assert.Equal(t, a, b)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestZipf_Skewed(t *testing.T) {
	rng := NewRNG(42)
	counts := make([]int, 10)
	for i := 0; i < 5000; i++ {
		counts[rng.Zipf(10, 1.5)]++
	}
	assert.Greater(t, counts[0], counts[9])
}

func TestDataset_Publish(t *testing.T) {
	ds := NewDataset().
		AddLocation(5, 40.71, -74.0).
		AddLocation(105, 40.72, -74.0).
		AddTag("coffee", Postings{5: model.North, 105: model.East}).
		SetCount("coffee", 150).
		SetCount("espresso", 20).
		AddDetail(105, nil, Bearing("coffee", 90))

	store := ds.MustMemoryStore()
	ctx := context.Background()

	data, err := blobstore.ReadAll(ctx, store, ds.Layout.Index(shard.Of("coffee")))
	require.NoError(t, err)
	sh := index.NewShard()
	require.NoError(t, codec.Default.Unmarshal(data, sh))
	assert.Equal(t, model.East, sh.Tags["coffee"][105])

	_, err = blobstore.ReadAll(ctx, store, ds.Layout.Detail("05"))
	require.NoError(t, err)

	m := ds.Manifest()
	assert.Equal(t, []string{"coffee", "espresso"}, m.Tags())
	assert.Equal(t, 150, m.Count("coffee"))
}

func TestDataset_Compressed(t *testing.T) {
	ds := NewDataset().WithCompression(codec.CompressionGzip).
		AddLocation(1, 0, 0).
		AddTag("a", Postings{1: model.North})

	blobs, err := ds.Blobs()
	require.NoError(t, err)
	assert.Contains(t, blobs, "data/locations.json.gz")
	assert.Contains(t, blobs, "data/tags_manifest.json.gz")
}

func TestRNG_Dataset(t *testing.T) {
	ds := NewRNG(7).Dataset(200, 20)
	blobs, err := ds.Blobs()
	require.NoError(t, err)
	assert.NotEmpty(t, blobs)
	assert.NotEmpty(t, ds.Manifest().Tags())
}

func TestCountingStore(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "a", []byte("x")))

	s := NewCountingStore(mem)
	s.FailNext("a", 1)

	_, err := blobstore.ReadAll(ctx, s, "a")
	assert.ErrorIs(t, err, ErrInjected)

	got, err := blobstore.ReadAll(ctx, s, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
	assert.Equal(t, 2, s.Reads("a"))
	assert.Equal(t, 2, s.TotalReads())

	release := s.Hold("a")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.ReadAll(ctx, "a")
	}()
	release()
	<-done
	assert.Equal(t, 3, s.Reads("a"))
}
