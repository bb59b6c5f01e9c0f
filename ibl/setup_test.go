package ibl_test

import (
	"iblbake/ibl"
	"iblbake/libio"
	"math"
	"testing"
)

// fastConfig keeps the exported sizes but uses very few samples
// so the software backend finishes quickly.
func fastConfig() ibl.BakeConfig {
	conf := ibl.DefaultBakeConfig()
	conf.EnvironmentSize = 16
	conf.IrradianceQuality = 1
	conf.PrefilterSamples = 4
	conf.BrdfLutSamples = 4
	return conf
}

// tinyConfig also shrinks the exported sizes.
func tinyConfig() ibl.BakeConfig {
	conf := fastConfig()
	conf.EnvironmentSize = 8
	conf.IrradianceSize = 4
	conf.PrefilterSize = 8
	conf.BrdfLutSize = 4
	return conf
}

func constantImage(width, height int, value float32) *libio.FloatImage {
	pix := make([]float32, width*height*4)
	for i := range pix {
		pix[i] = value
	}
	return libio.NewFloatImage(pix, 4, width, height)
}

func approxEqual(a, b, tolerance float32) bool {
	return math.Abs(float64(a-b)) <= float64(tolerance)
}

func newSoftwarePipeline(t *testing.T, conf ibl.BakeConfig) *ibl.BakePipeline {
	t.Helper()
	p, err := ibl.NewBakePipeline(ibl.NewSoftwareBackend(), conf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Release)
	return p
}
