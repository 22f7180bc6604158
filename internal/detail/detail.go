package detail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/streetsearch/model"
)

// DefaultKey is the reserved key holding a location's fallback bearing.
const DefaultKey = "_default"

// ErrMalformedShard is returned when a detail payload is not an object of
// objects.
var ErrMalformedShard = errors.New("malformed detail shard")

// TagBearing is one observed tag with the bearing it was seen from.
type TagBearing struct {
	Tag     string
	Bearing int
}

// Entry is the detail record of one location.
type Entry struct {
	pairs      []TagBearing
	def        int
	hasDefault bool
}

// NewEntry builds an entry from ordered pairs and an optional default.
func NewEntry(pairs []TagBearing, def *int) *Entry {
	e := &Entry{pairs: append([]TagBearing(nil), pairs...)}
	if def != nil {
		e.def, e.hasDefault = *def, true
	}
	return e
}

// Tags returns the hydrated tags in payload order, without the default key.
func (e *Entry) Tags() []string {
	tags := make([]string, len(e.pairs))
	for i, p := range e.pairs {
		tags[i] = p.Tag
	}
	return tags
}

// Pairs returns the ordered (tag, bearing) pairs.
func (e *Entry) Pairs() []TagBearing {
	return e.pairs
}

// Bearing returns the bearing recorded for tag.
func (e *Entry) Bearing(tag string) (int, bool) {
	for _, p := range e.pairs {
		if p.Tag == tag {
			return p.Bearing, true
		}
	}
	return 0, false
}

// Default returns the fallback bearing, or (0, false) if none was recorded.
func (e *Entry) Default() (int, bool) {
	return e.def, e.hasDefault
}

// Match returns the bearing of the first tag containing q, compared
// case-insensitively. An empty q never matches.
func (e *Entry) Match(q string) (int, bool) {
	if q == "" {
		return 0, false
	}
	q = strings.ToLower(q)
	for _, p := range e.pairs {
		if strings.Contains(strings.ToLower(p.Tag), q) {
			return p.Bearing, true
		}
	}
	return 0, false
}

// UnmarshalJSON decodes `{ "tag": bearing, ..., "_default": bearing }`
// keeping key order. Non-numeric bearings are skipped.
func (e *Entry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: entry is not an object", ErrMalformedShard)
	}

	e.pairs = e.pairs[:0]
	e.hasDefault = false
	e.def = 0

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		f, err := n.Float64()
		if err != nil {
			continue
		}
		bearing := int(math.Round(f))

		if key == DefaultKey {
			e.def, e.hasDefault = bearing, true
			continue
		}
		e.pairs = append(e.pairs, TagBearing{Tag: key, Bearing: bearing})
	}

	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the entry in payload order.
func (e *Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range e.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := gojson.Marshal(p.Tag)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		fmt.Fprintf(&buf, ":%d", p.Bearing)
	}
	if e.hasDefault {
		if len(e.pairs) > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%d", DefaultKey, e.def)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Shard is one decoded location-detail shard.
type Shard struct {
	Entries map[model.LocationID]*Entry
	// Dropped counts locations whose ID or record could not be decoded.
	Dropped int
}

// NewShard returns an empty shard.
func NewShard() *Shard {
	return &Shard{Entries: make(map[model.LocationID]*Entry)}
}

// Get returns the entry of a location.
func (s *Shard) Get(id model.LocationID) (*Entry, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.Entries[id]
	return e, ok
}

// Len returns the number of locations in the shard.
func (s *Shard) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// UnmarshalJSON decodes `{ "<locationId>": { ... } }`.
func (s *Shard) UnmarshalJSON(data []byte) error {
	var raw map[string]gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedShard, err)
	}

	s.Entries = make(map[model.LocationID]*Entry, len(raw))
	s.Dropped = 0
	for idStr, v := range raw {
		id, err := model.ParseLocationID(idStr)
		if err != nil {
			s.Dropped++
			continue
		}
		e := &Entry{}
		if err := e.UnmarshalJSON(v); err != nil {
			s.Dropped++
			continue
		}
		s.Entries[id] = e
	}
	return nil
}

// MarshalJSON encodes the shard in its wire form.
func (s *Shard) MarshalJSON() ([]byte, error) {
	out := make(map[string]*Entry, len(s.Entries))
	for id, e := range s.Entries {
		out[id.String()] = e
	}
	return gojson.Marshal(out)
}
