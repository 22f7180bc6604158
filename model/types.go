package model

import (
	"fmt"
	"strconv"
	"strings"
)

// LocationID identifies a location. On the wire it is the decimal string form.
type LocationID uint32

// String returns the decimal wire form of the ID.
func (id LocationID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseLocationID parses the decimal wire form of a location ID.
func ParseLocationID(s string) (LocationID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid location id %q: %w", s, err)
	}
	return LocationID(v), nil
}

// Mask is a directional bitmask. Bit i is set when the tag was observed
// looking along bearing i*45 degrees (N, NE, E, SE, S, SW, W, NW).
type Mask uint8

// Octant bits.
const (
	North Mask = 1 << iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// MaskFromInt validates a wire value and converts it to a Mask.
func MaskFromInt(v int64) (Mask, error) {
	if v < 0 || v > 0xFF {
		return 0, fmt.Errorf("mask %d out of range [0,255]", v)
	}
	return Mask(v), nil
}

// Has reports whether any bit of o is set in m.
func (m Mask) Has(o Mask) bool { return m&o != 0 }

// Term is a single query word.
type Term struct {
	// Text is the lower-cased term text.
	Text string
	// Exact terms match on word boundaries; others match by substring.
	Exact bool
}

// String returns the term as it would be written in a query.
func (t Term) String() string {
	if t.Exact {
		return `"` + t.Text + `"`
	}
	return t.Text
}

// Segment is one comma-separated clause of a query. A location matches the
// segment only if it matches every term.
type Segment struct {
	// Label is the trimmed raw text of the clause, used for display.
	Label string
	Terms []Term
}

// Location is an immutable location record.
type Location struct {
	ID  LocationID
	Lat float64
	Lon float64
	// Tags is optional and usually empty until hydrated from a detail shard.
	Tags []string
}

// String returns a string representation of the Location.
func (l Location) String() string {
	return fmt.Sprintf("Loc(%d @ %.5f,%.5f)", l.ID, l.Lat, l.Lon)
}
