package detail

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{
  "107": {"red door": 90, "coffee shop": 180, "_default": 270, "bench": 0},
  "7": {"graffiti": 45.4},
  "x1": {"tree": 10},
  "207": {"awning": "north", "hydrant": 315}
}`

func TestShard_Decode(t *testing.T) {
	var s Shard
	require.NoError(t, codec.Default.Unmarshal([]byte(payload), &s))

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Dropped)

	e, ok := s.Get(107)
	require.True(t, ok)
	assert.Equal(t, []string{"red door", "coffee shop", "bench"}, e.Tags())

	b, ok := e.Bearing("coffee shop")
	require.True(t, ok)
	assert.Equal(t, 180, b)

	def, ok := e.Default()
	require.True(t, ok)
	assert.Equal(t, 270, def)

	e, ok = s.Get(7)
	require.True(t, ok)
	b, _ = e.Bearing("graffiti")
	assert.Equal(t, 45, b)
	_, ok = e.Default()
	assert.False(t, ok)

	e, ok = s.Get(207)
	require.True(t, ok)
	assert.Equal(t, []string{"hydrant"}, e.Tags())

	_, ok = s.Get(8)
	assert.False(t, ok)
}

func TestShard_Malformed(t *testing.T) {
	var s Shard
	assert.ErrorIs(t, s.UnmarshalJSON([]byte(`[1,2]`)), ErrMalformedShard)
}

func TestEntry_Match(t *testing.T) {
	def := 270
	e := NewEntry([]TagBearing{{"Red Door", 90}, {"coffee shop", 180}, {"coffee cup", 0}}, &def)

	b, ok := e.Match("coffee")
	require.True(t, ok)
	assert.Equal(t, 180, b)

	b, ok = e.Match("door")
	require.True(t, ok)
	assert.Equal(t, 90, b)

	_, ok = e.Match("")
	assert.False(t, ok)
	_, ok = e.Match("bicycle")
	assert.False(t, ok)
}

func TestEntry_RoundTrip(t *testing.T) {
	def := 270
	e := NewEntry([]TagBearing{{"b", 90}, {"a", 180}}, &def)
	data, err := e.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":90,"a":180,"_default":270}`, string(data))

	var back Entry
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, []string{"b", "a"}, back.Tags())

	s := NewShard()
	s.Entries[model.LocationID(5)] = e
	out, err := s.MarshalJSON()
	require.NoError(t, err)
	var decoded Shard
	require.NoError(t, decoded.UnmarshalJSON(out))
	got, ok := decoded.Get(5)
	require.True(t, ok)
	assert.Equal(t, e.Pairs(), got.Pairs())
}

type counts map[string]int

func (c counts) LocationCount(tag string) int { return c[tag] }
func (c counts) Len() int                     { return len(c) }

func TestVisibleTags_Filters(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	idx := counts{"coffee": 5, "door": 2000, "view": 5000, "left": 30}

	got := VisibleTags([]string{"coffee", "door", "View", "left", "unknown"}, idx, rng)
	assert.ElementsMatch(t, []string{"coffee", "door"}, got)
}

func TestVisibleTags_EmptyIndexKeepsAll(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	got := VisibleTags([]string{"coffee", "unknown", "near"}, counts{}, rng)
	assert.ElementsMatch(t, []string{"coffee", "unknown"}, got)

	got = VisibleTags([]string{"coffee"}, nil, rng)
	assert.Equal(t, []string{"coffee"}, got)
}

func TestVisibleTags_Caps(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	idx := counts{}
	var tags []string
	for i := 0; i < 12; i++ {
		rare := fmt.Sprintf("rare-%d", i)
		common := fmt.Sprintf("common-%d", i)
		idx[rare] = 10
		idx[common] = 1000
		tags = append(tags, rare, common)
	}

	got := VisibleTags(tags, idx, rng)
	require.Len(t, got, MaxVisible)

	var rare int
	for _, tag := range got {
		if idx[tag] < CommonThreshold {
			rare++
		}
	}
	assert.Equal(t, MaxRare, rare)

	// Few rare tags leave the rest of the room to common tags.
	got = VisibleTags([]string{"rare-0", "common-0", "common-1"}, idx, rng)
	assert.ElementsMatch(t, []string{"rare-0", "common-0", "common-1"}, got)
}

func TestBlocked(t *testing.T) {
	assert.True(t, Blocked("Background"))
	assert.True(t, Blocked("indicated"))
	assert.False(t, Blocked("coffee"))
}
