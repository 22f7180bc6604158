// Package manifest holds the global tag vocabulary of the search dataset.
//
// The manifest is an ordered list of (tag, frequency) pairs. It drives
// autocomplete suggestions and the discovery of index shards for fuzzy
// terms; it is never used to evaluate a query.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
)

const (
	// DefaultMinCount is the minimum tag frequency for suggestions.
	DefaultMinCount = 100
	// DefaultSuggestLimit is the maximum number of suggestions.
	DefaultSuggestLimit = 5
)

// ErrMalformed is returned when the payload is not a JSON array.
var ErrMalformed = errors.New("manifest: malformed payload")

// Entry is one vocabulary entry.
type Entry struct {
	Tag   string
	Count int
}

// Manifest is the decoded tag vocabulary, in publication order.
// A Manifest is immutable once decoded.
type Manifest struct {
	Entries []Entry
	// Dropped counts wire entries that could not be decoded.
	Dropped int
}

// UnmarshalJSON decodes the wire form [[tag, count], ...].
// Entries that are not a (string, number) pair are skipped.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw []gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	m.Entries = make([]Entry, 0, len(raw))
	m.Dropped = 0
	for _, r := range raw {
		e, ok := decodeEntry(r)
		if !ok {
			m.Dropped++
			continue
		}
		m.Entries = append(m.Entries, e)
	}
	return nil
}

func decodeEntry(r gojson.RawMessage) (Entry, bool) {
	var pair []gojson.RawMessage
	if err := gojson.Unmarshal(r, &pair); err != nil || len(pair) < 2 {
		return Entry{}, false
	}
	var tag string
	if err := gojson.Unmarshal(pair[0], &tag); err != nil {
		return Entry{}, false
	}
	var count float64
	if err := gojson.Unmarshal(bytes.TrimSpace(pair[1]), &count); err != nil {
		return Entry{}, false
	}
	return Entry{Tag: tag, Count: int(count)}, true
}

// MarshalJSON encodes the wire form.
func (m Manifest) MarshalJSON() ([]byte, error) {
	out := make([][2]any, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = [2]any{e.Tag, e.Count}
	}
	return gojson.Marshal(out)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

// Tags returns the tag strings in manifest order.
func (m *Manifest) Tags() []string {
	if m == nil {
		return nil
	}
	tags := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		tags[i] = e.Tag
	}
	return tags
}

// Count returns the frequency of tag, or 0 if absent.
func (m *Manifest) Count(tag string) int {
	if m == nil {
		return 0
	}
	for _, e := range m.Entries {
		if e.Tag == tag {
			return e.Count
		}
	}
	return 0
}

// Suggest returns up to limit tags containing q (case-insensitive) whose
// frequency is at least minCount, in manifest order.
// A blank q yields no suggestions.
func (m *Manifest) Suggest(q string, minCount, limit int) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	if m == nil || q == "" || limit <= 0 {
		return nil
	}

	var out []string
	for _, e := range m.Entries {
		if e.Count < minCount {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Tag), q) {
			continue
		}
		out = append(out, e.Tag)
		if len(out) == limit {
			break
		}
	}
	return out
}
