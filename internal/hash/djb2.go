package hash

import "unicode/utf16"

const djb2Seed = 5381

// DJB2 computes the DJB2 hash of s over its UTF-16 code units.
// Arithmetic wraps at 32 bits, which is equivalent to coercing the
// accumulator to an unsigned 32-bit value after every step.
func DJB2(s string) uint32 {
	h := uint32(djb2Seed)
	for _, r := range s {
		if r < 0x10000 {
			h = (h << 5) + h + uint32(r)
			continue
		}
		// Characters outside the BMP hash as a surrogate pair.
		r1, r2 := utf16.EncodeRune(r)
		h = (h << 5) + h + uint32(r1)
		h = (h << 5) + h + uint32(r2)
	}
	return h
}
