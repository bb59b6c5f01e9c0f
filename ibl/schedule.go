package ibl

import (
	"fmt"
	"math/bits"
)

// MipCount returns floor(log2(edge)) + 1, the length of a full mip chain.
// It returns 0 for edge <= 0.
func MipCount(edge int) int {
	if edge <= 0 {
		return 0
	}
	return bits.Len(uint(edge))
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// MipSchedule describes the levels of a square mip chain.
type MipSchedule struct {
	Edge  int
	Count int
}

func NewMipSchedule(edge int) (MipSchedule, error) {
	if !IsPowerOfTwo(edge) {
		return MipSchedule{}, fmt.Errorf("%w: edge length %d is not a power of two", ErrSchedule, edge)
	}
	return MipSchedule{Edge: edge, Count: MipCount(edge)}, nil
}

// Resolution returns the edge length of level m.
func (s MipSchedule) Resolution(m int) int {
	return s.Edge >> m
}

// Roughness returns m / (Count - 1). It is exactly 0 for the first
// and exactly 1 for the last level.
func (s MipSchedule) Roughness(m int) (float32, error) {
	if s.Count < 2 {
		return 0, fmt.Errorf("%w: roughness requires at least two mip levels, edge is %d", ErrSchedule, s.Edge)
	}
	if m < 0 || m >= s.Count {
		return 0, fmt.Errorf("%w: mip level %d out of range [0, %d)", ErrSchedule, m, s.Count)
	}
	if m == s.Count-1 {
		return 1.0, nil
	}
	return float32(m) / float32(s.Count-1), nil
}

// Levels returns the level indices 0..Count-1.
func (s MipSchedule) Levels() []int {
	levels := make([]int, s.Count)
	for i := range levels {
		levels[i] = i
	}
	return levels
}
