// Package codec centralizes payload decoding at the fetch boundary.
//
// Every resource the engine fetches (tag manifest, index shards, detail
// shards, location catalog) is a JSON document, optionally wrapped in a
// whole-file compression format. A Codec turns bytes into Go values and a
// Compression undoes the wrapping.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json", "":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Decode decompresses data according to comp and unmarshals it into v.
func Decode(c Codec, comp Compression, data []byte, v any) error {
	if c == nil {
		c = Default
	}
	raw, err := comp.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", comp, err)
	}
	if err := c.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return nil
}

// Encode marshals v and compresses the result according to comp.
func Encode(c Codec, comp Compression, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}
	raw, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	return comp.Compress(raw)
}
