package searcher

import (
	"regexp"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/model"
)

// Index is the read side of the tag index.
type Index interface {
	Range(fn func(tag string, postings index.Postings) bool)
}

// SegmentResult is the outcome of one segment.
type SegmentResult struct {
	Label string
	Terms []model.Term
	// Masks holds, per surviving location, the AND of the term masks.
	Masks map[model.LocationID]model.Mask
	// IDs holds the surviving location IDs.
	IDs *roaring.Bitmap
}

// Count returns the number of locations in the segment.
func (s SegmentResult) Count() int {
	return int(s.IDs.GetCardinality())
}

// Result is the outcome of a whole query.
type Result struct {
	// Segments are in query order.
	Segments []SegmentResult
	// Union is the set union of all segment IDs.
	Union *roaring.Bitmap
}

// Count returns the number of distinct matching locations.
func (r *Result) Count() int {
	return int(r.Union.GetCardinality())
}

// Searcher is a reusable evaluation context.
// It is NOT safe for concurrent use.
type Searcher struct {
	// ScratchMatches collects the postings of the current term when it is
	// intersected into an existing segment map.
	ScratchMatches map[model.LocationID]model.Mask
}

var searcherPool = sync.Pool{
	New: func() any {
		return NewSearcher(1024)
	},
}

// NewSearcher creates a new searcher with the given scratch capacity.
func NewSearcher(capacity int) *Searcher {
	return &Searcher{
		ScratchMatches: make(map[model.LocationID]model.Mask, capacity),
	}
}

// Get returns a Searcher from the pool.
func Get() *Searcher {
	s := searcherPool.Get().(*Searcher)
	s.Reset()
	return s
}

// Put returns a Searcher to the pool.
func Put(s *Searcher) {
	searcherPool.Put(s)
}

// Reset clears the searcher state for reuse.
func (s *Searcher) Reset() {
	clear(s.ScratchMatches)
}

// Evaluate runs segments against idx using a pooled Searcher.
// A nil valid bitmap disables ID filtering.
func Evaluate(segments []model.Segment, idx Index, valid *roaring.Bitmap) *Result {
	s := Get()
	defer Put(s)
	return s.Evaluate(segments, idx, valid)
}

// Evaluate runs segments against idx.
func (s *Searcher) Evaluate(segments []model.Segment, idx Index, valid *roaring.Bitmap) *Result {
	res := &Result{
		Segments: make([]SegmentResult, 0, len(segments)),
		Union:    roaring.New(),
	}

	for _, seg := range segments {
		masks := s.evaluateSegment(seg, idx)

		sr := SegmentResult{
			Label: seg.Label,
			Terms: seg.Terms,
			Masks: make(map[model.LocationID]model.Mask, len(masks)),
			IDs:   roaring.New(),
		}
		for id, mask := range masks {
			if valid != nil && !valid.Contains(uint32(id)) {
				continue
			}
			sr.Masks[id] = mask
			sr.IDs.Add(uint32(id))
		}

		res.Union.Or(sr.IDs)
		res.Segments = append(res.Segments, sr)
	}
	return res
}

func (s *Searcher) evaluateSegment(seg model.Segment, idx Index) map[model.LocationID]model.Mask {
	var segment map[model.LocationID]model.Mask

	for i, term := range seg.Terms {
		match := Compile(term)

		if i == 0 {
			segment = make(map[model.LocationID]model.Mask)
			collect(idx, match, segment)
		} else {
			s.Reset()
			collect(idx, match, s.ScratchMatches)

			for id, mask := range segment {
				termMask, ok := s.ScratchMatches[id]
				if !ok {
					delete(segment, id)
					continue
				}
				if m := mask & termMask; m != 0 {
					segment[id] = m
				} else {
					delete(segment, id)
				}
			}
		}

		if len(segment) == 0 {
			break
		}
	}
	return segment
}

// collect ORs the postings of every tag accepted by match into dst.
func collect(idx Index, match Matcher, dst map[model.LocationID]model.Mask) {
	idx.Range(func(tag string, postings index.Postings) bool {
		if !match(tag) {
			return true
		}
		for id, mask := range postings {
			dst[id] |= mask
		}
		return true
	})
}

// Matcher reports whether a term accepts a tag.
type Matcher func(tag string) bool

// Compile builds the matcher for a term.
func Compile(t model.Term) Matcher {
	text := strings.ToLower(t.Text)
	if t.Exact {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(text) + `\b`)
		return re.MatchString
	}
	return func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), text)
	}
}
