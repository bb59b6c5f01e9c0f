package libio_test

import (
	"iblbake/libio"
	"math"
	"testing"

	"github.com/chewxy/math32"
)

func TestFloat16RoundTripExact(t *testing.T) {
	values := []float32{0.0, 1.0, 0.5, 65504.0, -1.0, -0.5, 2.0, 0.25, 1024.0, -65504.0, 6.103515625e-05, 5.9604645e-08}

	for _, v := range values {
		is := libio.Float16ToFloat32(libio.Float32ToFloat16(v))
		if is != v {
			t.Errorf("round trip of %v should be exact but is %v\n", v, is)
		}
	}
}

func TestFloat16KnownBits(t *testing.T) {
	cases := []struct {
		value float32
		bits  uint16
	}{
		{0.0, 0x0000},
		{1.0, 0x3c00},
		{0.5, 0x3800},
		{-2.0, 0xc000},
		{65504.0, 0x7bff},
		{6.103515625e-05, 0x0400},
		{5.9604645e-08, 0x0001},
		{0.333333333, 0x3555},
	}

	for _, c := range cases {
		is := libio.Float32ToFloat16(c.value)
		if is != c.bits {
			t.Errorf("bits of %v should be 0x%04x but are 0x%04x\n", c.value, c.bits, is)
		}
	}

	negZero := libio.Float32ToFloat16(math32.Float32frombits(0x80000000))
	if negZero != 0x8000 {
		t.Errorf("bits of -0 should be 0x8000 but are 0x%04x\n", negZero)
	}
}

func TestFloat16Saturates(t *testing.T) {
	values := []float32{65520.0, 70000.0, 1e10, math.MaxFloat32, math32.Inf(1)}

	for _, v := range values {
		is := libio.Float32ToFloat16(v)
		if is != 0x7bff {
			t.Errorf("%v should saturate to 0x7bff but is 0x%04x\n", v, is)
		}
		is = libio.Float32ToFloat16(-v)
		if is != 0xfbff {
			t.Errorf("%v should saturate to 0xfbff but is 0x%04x\n", -v, is)
		}
	}
}

func TestFloat16NaN(t *testing.T) {
	h := libio.Float32ToFloat16(math32.NaN())
	if !math32.IsNaN(libio.Float16ToFloat32(h)) {
		t.Errorf("NaN should stay NaN but is 0x%04x\n", h)
	}
}

func TestFloat16RoundsToNearestEven(t *testing.T) {
	// 1 + 2^-11 is exactly halfway between 1 and the next half (1 + 2^-10)
	halfway := float32(1.0 + 1.0/2048.0)
	if is := libio.Float32ToFloat16(halfway); is != 0x3c00 {
		t.Errorf("halfway value should round down to even 0x3c00 but is 0x%04x\n", is)
	}

	// 1 + 3*2^-11 is halfway between 1+2^-10 (odd) and 1+2^-9 (even)
	halfwayOdd := float32(1.0 + 3.0/2048.0)
	if is := libio.Float32ToFloat16(halfwayOdd); is != 0x3c02 {
		t.Errorf("halfway value should round up to even 0x3c02 but is 0x%04x\n", is)
	}

	above := float32(1.0 + 1.0/2048.0 + 1.0/65536.0)
	if is := libio.Float32ToFloat16(above); is != 0x3c01 {
		t.Errorf("value above halfway should round up to 0x3c01 but is 0x%04x\n", is)
	}

	// the largest subnormal rounds up into the smallest normal
	carry := float32(6.1e-05)
	if is := libio.Float32ToFloat16(carry); is != 0x03ff && is != 0x0400 {
		t.Errorf("%v should round to 0x03ff or 0x0400 but is 0x%04x\n", carry, is)
	}
}

func TestFloat16RelativeError(t *testing.T) {
	values := randomFloats(10000, -1000, 1000)

	for _, v := range values {
		is := libio.Float16ToFloat32(libio.Float32ToFloat16(v))
		// half precision has 11 significant bits
		tolerance := math.Abs(float64(v)) * (1.0 / 2048.0)
		if math.Abs(float64(is-v)) > tolerance+1e-7 {
			t.Errorf("round trip of %v should be within %v but is %v\n", v, tolerance, is)
		}
	}
}

func TestEncodeFloat16(t *testing.T) {
	src := []float32{0, 0.5, 1, 2}
	dst := make([]uint16, len(src))
	libio.EncodeFloat16(dst, src)

	back := make([]float32, len(dst))
	libio.DecodeFloat16(back, dst)

	for i := range src {
		if back[i] != src[i] {
			t.Errorf("value %d should be %v but is %v\n", i, src[i], back[i])
		}
	}
}
