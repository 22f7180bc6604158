package index

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/streetsearch/model"
)

// Postings maps location IDs to the bearings a tag was observed from.
type Postings map[model.LocationID]model.Mask

// Shard is one decoded tag-index shard.
type Shard struct {
	// Tags maps each tag in the shard to its postings.
	Tags map[string]Postings
	// Dropped counts wire entries rejected during decoding (bad IDs, masks
	// outside 0..255, non-integer values).
	Dropped int
}

// NewShard returns an empty shard.
func NewShard() *Shard {
	return &Shard{Tags: make(map[string]Postings)}
}

// ErrMalformedShard is returned when a shard payload is not an object of
// objects.
var ErrMalformedShard = errors.New("malformed index shard")

// UnmarshalJSON decodes `{ "tag": { "locationId": mask } }`.
// Malformed entries are dropped and counted; a payload with the wrong overall
// shape is rejected.
func (s *Shard) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedShard, err)
	}

	s.Tags = make(map[string]Postings, len(raw))
	s.Dropped = 0

	for tag, entries := range raw {
		postings := make(Postings, len(entries))
		for idStr, v := range entries {
			id, err := model.ParseLocationID(idStr)
			if err != nil {
				s.Dropped++
				continue
			}
			n, err := strconv.ParseInt(string(bytes.TrimSpace(v)), 10, 64)
			if err != nil {
				s.Dropped++
				continue
			}
			mask, err := model.MaskFromInt(n)
			if err != nil {
				s.Dropped++
				continue
			}
			postings[id] = mask
		}
		s.Tags[tag] = postings
	}
	return nil
}

// MarshalJSON encodes the shard in its wire form.
func (s *Shard) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]uint8, len(s.Tags))
	for tag, postings := range s.Tags {
		m := make(map[string]uint8, len(postings))
		for id, mask := range postings {
			m[id.String()] = uint8(mask)
		}
		out[tag] = m
	}
	return gojson.Marshal(out)
}
