// Package catalog holds the bulk location list the search results refer to.
//
// The catalog is decoded once and frozen: there is no mutation API. Its ID
// set is the filter applied to every search result, so that index entries
// pointing at unknown locations never surface.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/streetsearch/model"
)

// ErrMalformed is returned when the payload is not a JSON array.
var ErrMalformed = errors.New("catalog: malformed payload")

type wireLocation struct {
	I gojson.RawMessage `json:"i"`
	L []float64         `json:"l"`
	T []string          `json:"t,omitempty"`
}

// Catalog is an immutable set of locations.
type Catalog struct {
	locs    []model.Location
	byID    map[model.LocationID]int
	valid   *roaring.Bitmap
	dropped int
}

// New builds a catalog from locations. Later duplicates of an ID are dropped.
func New(locs []model.Location) *Catalog {
	c := &Catalog{
		locs:  make([]model.Location, 0, len(locs)),
		byID:  make(map[model.LocationID]int, len(locs)),
		valid: roaring.New(),
	}
	for _, l := range locs {
		c.add(l)
	}
	c.valid.RunOptimize()
	return c
}

func (c *Catalog) add(l model.Location) bool {
	if _, dup := c.byID[l.ID]; dup {
		c.dropped++
		return false
	}
	l.Tags = append([]string(nil), l.Tags...)
	c.byID[l.ID] = len(c.locs)
	c.locs = append(c.locs, l)
	c.valid.Add(uint32(l.ID))
	return true
}

// UnmarshalJSON decodes `[{"i": id, "l": [lat, lon], "t": [...]}, ...]`.
// IDs may be numbers or numeric strings; unusable records are dropped.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var raw []gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	*c = Catalog{
		locs:  make([]model.Location, 0, len(raw)),
		byID:  make(map[model.LocationID]int, len(raw)),
		valid: roaring.New(),
	}
	for _, r := range raw {
		var w wireLocation
		if err := gojson.Unmarshal(r, &w); err != nil {
			c.dropped++
			continue
		}
		id, err := parseID(w.I)
		if err != nil {
			c.dropped++
			continue
		}
		loc := model.Location{ID: id, Tags: w.T}
		if len(w.L) >= 2 {
			loc.Lat, loc.Lon = w.L[0], w.L[1]
		}
		c.add(loc)
	}
	c.valid.RunOptimize()
	return nil
}

func parseID(raw gojson.RawMessage) (model.LocationID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, errors.New("missing id")
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return 0, err
		}
		return model.ParseLocationID(s)
	}
	return model.ParseLocationID(string(raw))
}

// MarshalJSON encodes the wire form with numeric IDs.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	out := make([]wireLocation, len(c.locs))
	for i, l := range c.locs {
		out[i] = wireLocation{
			I: gojson.RawMessage(l.ID.String()),
			L: []float64{l.Lat, l.Lon},
			T: l.Tags,
		}
	}
	return gojson.Marshal(out)
}

// Get returns a location by ID.
func (c *Catalog) Get(id model.LocationID) (model.Location, bool) {
	if c == nil {
		return model.Location{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return model.Location{}, false
	}
	l := c.locs[i]
	l.Tags = append([]string(nil), l.Tags...)
	return l, true
}

// Contains reports whether id is a known location.
func (c *Catalog) Contains(id model.LocationID) bool {
	if c == nil {
		return false
	}
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.locs)
}

// Dropped returns how many records were rejected while building the catalog.
func (c *Catalog) Dropped() int {
	if c == nil {
		return 0
	}
	return c.dropped
}

// Valid returns the set of known IDs. The bitmap is shared; callers must not
// modify it.
func (c *Catalog) Valid() *roaring.Bitmap {
	if c == nil {
		return roaring.New()
	}
	return c.valid
}

// Range calls fn for every location in payload order until fn returns false.
func (c *Catalog) Range(fn func(model.Location) bool) {
	if c == nil {
		return
	}
	for _, l := range c.locs {
		if !fn(l) {
			return
		}
	}
}
