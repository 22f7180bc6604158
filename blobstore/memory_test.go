package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openOnly hides the optional interfaces of a store.
type openOnly struct{ BlobStore }

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte(`{"coffee":{"12":4}}`)
	require.NoError(t, store.Put(ctx, "data/index_shards/ed.json", data))
	require.NoError(t, store.Put(ctx, "data/index_shards/3f.json", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "data/tags_manifest.json", []byte(`[]`)))
	assert.Equal(t, 3, store.Len())

	// Stored blobs are copies.
	data[0] = 'x'
	got, err := store.ReadAll(ctx, "data/index_shards/ed.json")
	require.NoError(t, err)
	assert.Equal(t, `{"coffee":{"12":4}}`, string(got))

	got, err = ReadAll(ctx, openOnly{store}, "data/index_shards/ed.json")
	require.NoError(t, err)
	assert.Equal(t, `{"coffee":{"12":4}}`, string(got))

	blob, err := store.Open(ctx, "data/index_shards/ed.json")
	require.NoError(t, err)
	rc, err := blob.ReadRange(ctx, 2, 100)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `coffee":{"12":4}}`, string(part))
	require.NoError(t, blob.Close())

	names, err := List(ctx, store, "data/index_shards/")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/index_shards/3f.json", "data/index_shards/ed.json"}, names)

	store.Delete("data/index_shards/ed.json")
	_, err = store.Open(ctx, "data/index_shards/ed.json")
	assert.True(t, IsNotFound(err))
	assert.ErrorContains(t, err, "data/index_shards/ed.json")

	_, err = List(ctx, openOnly{store}, "")
	assert.Error(t, err)
}

func TestMemoryStore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	_, err := store.ReadAll(ctx, "data/locations.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_EmptyBlob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "data/bearings/00.json", nil))

	got, err := ReadAll(ctx, store, "data/bearings/00.json")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ReadAll(ctx, openOnly{store}, "data/bearings/00.json")
	require.NoError(t, err)
	assert.Empty(t, got)
}
