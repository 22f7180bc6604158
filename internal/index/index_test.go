package index

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/streetsearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShard_Decode(t *testing.T) {
	payload := []byte(`{
		"north east": {"5": 4, "12": 255},
		"graffiti": {"7": 1}
	}`)

	var sh Shard
	require.NoError(t, gojson.Unmarshal(payload, &sh))

	assert.Equal(t, 0, sh.Dropped)
	assert.Equal(t, Postings{5: model.East, 12: 0xFF}, sh.Tags["north east"])
	assert.Equal(t, Postings{7: model.North}, sh.Tags["graffiti"])
}

func TestShard_DropsMalformedEntries(t *testing.T) {
	payload := []byte(`{
		"coffee": {"1": 1, "x": 2, "3": 256, "4": -1, "5": "2", "6": 1.5}
	}`)

	var sh Shard
	require.NoError(t, gojson.Unmarshal(payload, &sh))

	assert.Equal(t, 5, sh.Dropped)
	assert.Equal(t, Postings{1: model.North}, sh.Tags["coffee"])
}

func TestShard_RejectsWrongShape(t *testing.T) {
	for _, payload := range []string{`[]`, `{"coffee": [1, 2]}`, `"x"`} {
		var sh Shard
		err := gojson.Unmarshal([]byte(payload), &sh)
		assert.ErrorIs(t, err, ErrMalformedShard, payload)
	}
}

func TestShard_RoundTrip(t *testing.T) {
	sh := NewShard()
	sh.Tags["west side"] = Postings{7: model.West}

	data, err := gojson.Marshal(sh)
	require.NoError(t, err)

	var back Shard
	require.NoError(t, gojson.Unmarshal(data, &back))
	assert.Equal(t, sh.Tags, back.Tags)
}

func TestStore_MergeAndLookup(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Len())

	a := NewShard()
	a.Tags["coffee"] = Postings{1: 1, 2: 2}
	b := NewShard()
	b.Tags["shop"] = Postings{2: 2}
	b.Tags["coffee"] = Postings{3: 4}

	assert.Equal(t, 1, s.Merge(a))
	assert.Equal(t, 2, s.Merge(b))
	assert.Equal(t, 0, s.Merge(nil))

	// Last write wins for a tag present in two shards.
	p, ok := s.Postings("coffee")
	require.True(t, ok)
	assert.Equal(t, Postings{3: 4}, p)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.Merges())
	assert.Equal(t, 1, s.LocationCount("shop"))
	assert.Equal(t, 0, s.LocationCount("missing"))
	assert.Equal(t, []string{"coffee", "shop"}, s.Tags())

	seen := 0
	s.Range(func(string, Postings) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}
