package libio_test

import (
	"math/rand"
)

func randomFloats(count int, min, max float32) []float32 {
	rng := rand.New(rand.NewSource(0))
	ret := make([]float32, count)
	for i := range ret {
		ret[i] = rng.Float32()*(max-min) + min
	}
	return ret
}
