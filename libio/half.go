package libio

import (
	"github.com/chewxy/math32"
)

const (
	// Float16Max is the largest finite half precision value.
	Float16Max = 65504.0

	float16MaxBits = 0x7bff
	float16NaNBits = 0x7e00
	float16InfBits = 0x7c00
)

// Float32ToFloat16 converts f to IEEE 754 binary16 using round-to-nearest-even.
//
// Magnitudes above Float16Max, including infinities, saturate to ±Float16Max.
// NaN stays NaN.
func Float32ToFloat16(f float32) uint16 {
	bits := math32.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23) & 0xff
	mant := bits & 0x7fffff

	if exp == 0xff {
		if mant != 0 {
			return sign | float16NaNBits
		}
		return sign | float16MaxBits
	}

	e := exp - 127
	if e > 15 {
		return sign | float16MaxBits
	}

	if e >= -14 {
		hexp := uint32(e + 15)
		hmant := mant >> 13
		rem := mant & 0x1fff
		if rem > 0x1000 || (rem == 0x1000 && hmant&1 == 1) {
			hmant++
			if hmant == 0x400 {
				hmant = 0
				hexp++
			}
		}
		if hexp >= 31 {
			return sign | float16MaxBits
		}
		return sign | uint16(hexp<<10) | uint16(hmant)
	}

	// subnormal half, or zero
	if e < -25 {
		return sign
	}
	m := mant | 0x800000
	shift := uint32(-e - 1)
	hmant := m >> shift
	rem := m & (1<<shift - 1)
	half := uint32(1) << (shift - 1)
	if rem > half || (rem == half && hmant&1 == 1) {
		// may carry into the smallest normal, which has the same bit pattern
		hmant++
	}
	return sign | uint16(hmant)
}

// Float16ToFloat32 expands a binary16 value. The conversion is exact.
func Float16ToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch {
	case exp == 0x1f:
		return math32.Float32frombits(sign | 0x7f800000 | mant<<13)
	case exp != 0:
		return math32.Float32frombits(sign | (exp+112)<<23 | mant<<13)
	case mant == 0:
		return math32.Float32frombits(sign)
	}

	// subnormal: normalize the mantissa
	e := uint32(113)
	for mant&0x400 == 0 {
		mant <<= 1
		e--
	}
	mant &= 0x3ff
	return math32.Float32frombits(sign | e<<23 | mant<<13)
}

// EncodeFloat16 converts src into dst, which must be at least as long as src.
func EncodeFloat16(dst []uint16, src []float32) {
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = Float32ToFloat16(v)
	}
}

// DecodeFloat16 converts src into dst, which must be at least as long as src.
func DecodeFloat16(dst []float32, src []uint16) {
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = Float16ToFloat32(v)
	}
}
