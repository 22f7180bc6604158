package shard

import (
	"fmt"
	"path"
	"strconv"

	"github.com/hupe1980/streetsearch/internal/hash"
	"github.com/hupe1980/streetsearch/model"
)

// Count is the number of tag-index shards.
const Count = 256

// ID is a tag-index shard number in [0, Count).
type ID uint8

// Of returns the shard that holds tag.
func Of(tag string) ID {
	return ID(hash.DJB2(tag) % Count)
}

// Hex returns the two-digit lower-case hexadecimal shard name.
func (id ID) Hex() string {
	return fmt.Sprintf("%02x", uint8(id))
}

// String implements fmt.Stringer.
func (id ID) String() string { return id.Hex() }

// ParseHex parses a two-digit hexadecimal shard name.
func ParseHex(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid shard id %q: %w", s, err)
	}
	return ID(v), nil
}

// DetailID returns the detail shard name for a location: the last two
// decimal digits of its ID, left-padded with a zero.
func DetailID(id model.LocationID) string {
	s := id.String()
	if len(s) < 2 {
		return "0" + s
	}
	return s[len(s)-2:]
}

// Layout maps logical resources to blob names.
type Layout struct {
	// ManifestPath is the blob holding the tag manifest.
	ManifestPath string
	// IndexPrefix is the directory holding tag-index shards.
	IndexPrefix string
	// DetailPrefix is the directory holding location-detail shards.
	DetailPrefix string
	// LocationsPath is the blob holding the location catalog.
	LocationsPath string
	// Suffix is appended to every blob name (for example ".zst").
	Suffix string
}

// DefaultLayout returns the layout used by the published data set.
func DefaultLayout() Layout {
	return Layout{
		ManifestPath:  "data/tags_manifest.json",
		IndexPrefix:   "data/index_shards",
		DetailPrefix:  "data/bearings",
		LocationsPath: "data/locations.json",
	}
}

// Manifest returns the blob name of the tag manifest.
func (l Layout) Manifest() string { return l.ManifestPath + l.Suffix }

// Locations returns the blob name of the location catalog.
func (l Layout) Locations() string { return l.LocationsPath + l.Suffix }

// Index returns the blob name of a tag-index shard.
func (l Layout) Index(id ID) string {
	return path.Join(l.IndexPrefix, id.Hex()+".json") + l.Suffix
}

// Detail returns the blob name of a location-detail shard.
func (l Layout) Detail(name string) string {
	return path.Join(l.DetailPrefix, name+".json") + l.Suffix
}
