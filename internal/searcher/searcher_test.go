package searcher

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/internal/query"
	"github.com/hupe1980/streetsearch/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(tags map[string]index.Postings) *index.Store {
	s := index.NewStore()
	sh := index.NewShard()
	for tag, p := range tags {
		sh.Tags[tag] = p
	}
	s.Merge(sh)
	return s
}

func validOf(ids ...uint32) *roaring.Bitmap {
	return roaring.BitmapOf(ids...)
}

func TestEvaluate_QuotedSegments(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"north east": {5: 0b00000100},
		"west side":  {7: 0b01000000},
	})

	res := Evaluate(query.Parse(`"east", "west"`), idx, validOf(5, 7))

	require.Len(t, res.Segments, 2)
	assert.Equal(t, []uint32{5}, res.Segments[0].IDs.ToArray())
	assert.Equal(t, []uint32{7}, res.Segments[1].IDs.ToArray())
	assert.Equal(t, []uint32{5, 7}, res.Union.ToArray())
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, model.Mask(0b00000100), res.Segments[0].Masks[5])
}

func TestEvaluate_IntersectionRequiresAllTerms(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"coffee": {1: 0x01, 2: 0x01},
		"shop":   {2: 0x01, 3: 0x01},
	})

	res := Evaluate(query.Parse("coffee shop"), idx, nil)

	require.Len(t, res.Segments, 1)
	assert.Equal(t, []uint32{2}, res.Segments[0].IDs.ToArray())
}

func TestEvaluate_DisjointBearingsExcluded(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"coffee": {9: 0b00000001},
		"shop":   {9: 0b00000010},
	})

	res := Evaluate(query.Parse("coffee shop"), idx, nil)

	assert.True(t, res.Segments[0].IDs.IsEmpty())
	_, ok := res.Segments[0].Masks[9]
	assert.False(t, ok)
}

func TestEvaluate_MaskIsIntersected(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"coffee": {9: 0b00000111},
		"shop":   {9: 0b00000110},
	})

	res := Evaluate(query.Parse("coffee shop"), idx, nil)

	assert.Equal(t, model.Mask(0b00000110), res.Segments[0].Masks[9])
}

func TestEvaluate_TermMasksAreOredAcrossTags(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"coffee":      {1: 0b0001},
		"coffee shop": {1: 0b0100},
	})

	res := Evaluate(query.Parse("coffee"), idx, nil)

	assert.Equal(t, model.Mask(0b0101), res.Segments[0].Masks[1])
}

func TestEvaluate_ExactBoundary(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"north east": {1: 1},
		"eastern":    {2: 1},
	})

	exact := Evaluate(query.Parse(`"east"`), idx, nil)
	assert.Equal(t, []uint32{1}, exact.Union.ToArray())

	fuzzy := Evaluate(query.Parse("east"), idx, nil)
	assert.Equal(t, []uint32{1, 2}, fuzzy.Union.ToArray())
}

func TestEvaluate_UnknownIDsFiltered(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"graffiti": {1: 1, 999999: 1},
	})

	res := Evaluate(query.Parse("graffiti"), idx, validOf(1, 2, 3))

	assert.Equal(t, []uint32{1}, res.Union.ToArray())
	assert.False(t, res.Segments[0].IDs.Contains(999999))
	_, ok := res.Segments[0].Masks[999999]
	assert.False(t, ok)
}

func TestEvaluate_PermutedSegmentsSameUnion(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"diner":      {1: 1, 2: 1},
		"restaurant": {2: 1, 3: 1},
		"bar":        {4: 2},
	})

	a := Evaluate(query.Parse("diner, restaurant, bar"), idx, nil)
	b := Evaluate(query.Parse("bar, restaurant, diner"), idx, nil)

	assert.True(t, a.Union.Equals(b.Union))
	assert.Equal(t, "diner", a.Segments[0].Label)
	assert.Equal(t, "bar", b.Segments[0].Label)
}

func TestEvaluate_Idempotent(t *testing.T) {
	idx := newStore(map[string]index.Postings{
		"coffee": {1: 3, 2: 1},
		"shop":   {1: 1, 2: 2},
	})
	segs := query.Parse(`coffee shop, "coffee"`)

	first := Evaluate(segs, idx, nil)
	second := Evaluate(segs, idx, nil)

	require.Len(t, second.Segments, len(first.Segments))
	for i := range first.Segments {
		assert.True(t, first.Segments[i].IDs.Equals(second.Segments[i].IDs))
		assert.Equal(t, first.Segments[i].Masks, second.Segments[i].Masks)
	}
	assert.Equal(t, first.Count(), second.Count())
}

func TestEvaluate_EmptyIndexAndQuery(t *testing.T) {
	idx := index.NewStore()

	res := Evaluate(query.Parse("anything"), idx, nil)
	require.Len(t, res.Segments, 1)
	assert.Equal(t, 0, res.Segments[0].Count())

	res = Evaluate(nil, idx, nil)
	assert.Empty(t, res.Segments)
	assert.Equal(t, 0, res.Count())
}

func TestCompile(t *testing.T) {
	exact := Compile(model.Term{Text: "a.b", Exact: true})
	assert.True(t, exact("x a.b y"))
	assert.False(t, exact("x aab y"))

	fuzzy := Compile(model.Term{Text: "Cafe"})
	assert.True(t, fuzzy("CAFETERIA"))
}

func TestSearcher_Reset(t *testing.T) {
	s := NewSearcher(4)
	s.ScratchMatches[1] = 1
	s.Reset()
	assert.Empty(t, s.ScratchMatches)
}
