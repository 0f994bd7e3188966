package vorbis

import (
	"math"
	"math/bits"
)

// Ilog returns the position of the highest set bit plus one, 0 for 0.
func Ilog(x uint32) int {
	return bits.Len32(x)
}

// Float32Unpack converts the packed codebook float format: 21-bit mantissa,
// 10-bit exponent biased by 788 and a sign bit.
func Float32Unpack(x uint32) float32 {
	mantissa := float64(x & 0x1fffff)
	if x&0x80000000 != 0 {
		mantissa = -mantissa
	}
	exponent := int(x&0x7fe00000) >> 21

	return float32(math.Ldexp(mantissa, exponent-788))
}

// Lookup1Values returns the largest r such that r^dimensions <= entries.
func Lookup1Values(entries, dimensions uint32) uint32 {
	if dimensions == 0 || entries == 0 {
		return 0
	}
	r := uint32(math.Floor(math.Pow(float64(entries), 1/float64(dimensions))))
	for powAtMost(r+1, dimensions, entries) {
		r++
	}
	for r > 0 && !powAtMost(r, dimensions, entries) {
		r--
	}
	return r
}

// powAtMost reports whether base^exp <= limit without overflowing.
func powAtMost(base, exp, limit uint32) bool {
	acc := uint64(1)
	for i := uint32(0); i < exp; i++ {
		acc *= uint64(base)
		if acc > uint64(limit) {
			return false
		}
	}
	return true
}
