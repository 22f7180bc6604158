// Package bearing converts directional bitmasks into view bearings.
package bearing

import (
	"math/bits"

	"github.com/hupe1980/streetsearch/model"
)

// Step is the angular width of one octant in degrees.
const Step = 45

// First returns the bearing of the lowest set bit of mask, or 0 if mask is
// empty.
func First(mask model.Mask) int {
	if mask == 0 {
		return 0
	}
	return bits.TrailingZeros8(uint8(mask)) * Step
}

// Count returns the number of octants set in mask.
func Count(mask model.Mask) int {
	return bits.OnesCount8(uint8(mask))
}

// Octants returns the bearings of all set bits in ascending order.
func Octants(mask model.Mask) []int {
	out := make([]int, 0, Count(mask))
	for m := uint8(mask); m != 0; m &= m - 1 {
		out = append(out, bits.TrailingZeros8(m)*Step)
	}
	return out
}

// ToMask returns the octant bit for a bearing in degrees, rounding to the
// nearest octant.
func ToMask(degrees int) model.Mask {
	d := ((degrees % 360) + 360) % 360
	return model.Mask(1) << (((d + Step/2) / Step) % 8)
}
