package streetsearch

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/streetsearch/internal/cache"
	"github.com/hupe1980/streetsearch/model"
)

// Segment is the outcome of one comma-separated query clause.
type Segment struct {
	// Label is the trimmed clause text.
	Label string
	Terms []model.Term
	// Color is the display color of the segment.
	Color string
	// IDs holds the matching locations. Do not mutate.
	IDs *roaring.Bitmap
	// Masks holds the directional mask of every matching location.
	Masks map[model.LocationID]model.Mask
}

// Count returns the number of matching locations.
func (s Segment) Count() int {
	if s.IDs == nil {
		return 0
	}
	return int(s.IDs.GetCardinality())
}

// Result is the outcome of a search.
type Result struct {
	// Query is the raw query text.
	Query string
	// Segments are in query order, including segments without matches.
	Segments []Segment
	// Union holds every matching location. Do not mutate.
	Union *roaring.Bitmap
	// Degraded is set when some required index shards could not be fetched;
	// the result then covers only the loaded shards.
	Degraded bool
	// Failed lists the failed shard fetches as *ErrFetch.
	Failed []error
	// Generation is the session generation that produced the result, or 0
	// for direct Engine.Search calls.
	Generation uint64
}

func emptyResult(raw string) *Result {
	return &Result{Query: raw, Union: roaring.New()}
}

// Count returns the number of distinct matching locations.
func (r *Result) Count() int {
	if r == nil || r.Union == nil {
		return 0
	}
	return int(r.Union.GetCardinality())
}

// Empty reports whether nothing matched.
func (r *Result) Empty() bool {
	return r.Count() == 0
}

// Contains reports whether id is part of the result.
func (r *Result) Contains(id model.LocationID) bool {
	if r == nil || r.Union == nil {
		return false
	}
	return r.Union.Contains(uint32(id))
}

// IDs returns the matching locations in ascending order.
func (r *Result) IDs() []model.LocationID {
	if r == nil || r.Union == nil {
		return nil
	}
	out := make([]model.LocationID, 0, r.Union.GetCardinality())
	it := r.Union.Iterator()
	for it.HasNext() {
		out = append(out, model.LocationID(it.Next()))
	}
	return out
}

// segmentOf returns the first segment containing id.
func (r *Result) segmentOf(id model.LocationID) (*Segment, bool) {
	if !r.Contains(id) {
		return nil, false
	}
	for i := range r.Segments {
		if r.Segments[i].IDs.Contains(uint32(id)) {
			return &r.Segments[i], true
		}
	}
	return nil, false
}

// ColorOf returns the color of the first segment containing id.
func (r *Result) ColorOf(id model.LocationID) (string, bool) {
	seg, ok := r.segmentOf(id)
	if !ok {
		return "", false
	}
	return seg.Color, true
}

// MaskOf returns the mask of id in the first segment containing it.
func (r *Result) MaskOf(id model.LocationID) (model.Mask, bool) {
	seg, ok := r.segmentOf(id)
	if !ok {
		return 0, false
	}
	return seg.Masks[id], true
}

// BearingSource tells where a selection bearing came from.
type BearingSource string

const (
	// SourceNone means no bearing information was available.
	SourceNone BearingSource = "none"
	// SourceResult is the first octant of the location's mask in the current result.
	SourceResult BearingSource = "result"
	// SourceTag is the bearing of the first hydrated tag matching the query.
	SourceTag BearingSource = "tag"
	// SourceDefault is the location's default bearing.
	SourceDefault BearingSource = "default"
)

// Selection describes a selected location.
type Selection struct {
	Location model.Location
	// Mask is the location's mask in the current result, 0 if absent.
	Mask model.Mask
	// InResult reports whether the location is part of the current result.
	InResult bool
	// InstantBearing is derived from Mask without fetching anything.
	InstantBearing int
	// Bearing is the refined bearing in degrees.
	Bearing int
	Source  BearingSource
	// Tags holds the hydrated tags in detail order.
	Tags []string
	// Hydrated is false when the detail shard could not be loaded or does
	// not list the location.
	Hydrated bool
}

// ShardStats is a snapshot of one shard cache.
type ShardStats struct {
	Loaded   int
	Hits     int64
	Misses   int64
	Fetches  int64
	Failures int64
}

func shardStats(s cache.Stats) ShardStats {
	return ShardStats{
		Loaded:   s.Loaded,
		Hits:     s.Hits,
		Misses:   s.Misses,
		Fetches:  s.Fetches,
		Failures: s.Failures,
	}
}

// Stats is a snapshot of the engine state.
type Stats struct {
	Locations      int
	ManifestLoaded bool
	ManifestTags   int
	IndexTags      int
	IndexShards    ShardStats
	DetailShards   ShardStats

	Hovers            int64
	PrefetchScheduled int64
	PrefetchSkipped   int64
	PrefetchInFlight  int64
	PrefetchBytes     int64
}
