package ibl_test

import (
	"iblbake/ibl"
	"testing"
)

func TestIntegrateBrdfMirror(t *testing.T) {
	seq := ibl.HammersleySequence(16)
	// with roughness 0 every half vector is the normal: a = 1 - (1-n.v)^5, b = (1-n.v)^5
	a, b := ibl.IntegrateBrdf(seq, 0.75, 0.0)
	if !approxEqual(a, 1.0-1.0/1024.0, 1e-5) || !approxEqual(b, 1.0/1024.0, 1e-5) {
		t.Errorf("brdf of a mirror at n.v=0.75 should be (%v, %v) but is (%v, %v)\n", 1.0-1.0/1024.0, 1.0/1024.0, a, b)
	}
}

func TestIntegrateBrdfBounds(t *testing.T) {
	seq := ibl.HammersleySequence(256)
	for _, ndotv := range []float32{0.05, 0.25, 0.5, 0.75, 0.99} {
		for _, roughness := range []float32{0.05, 0.3, 0.6, 1.0} {
			a, b := ibl.IntegrateBrdf(seq, ndotv, roughness)
			if a < 0 || b < 0 || a+b > 1.0+1e-3 {
				t.Errorf("brdf at (%v, %v) should be within [0, 1] but is (%v, %v)\n", ndotv, roughness, a, b)
			}
		}
	}

	// rough surfaces reflect less at grazing angles
	smooth, _ := ibl.IntegrateBrdf(seq, 0.1, 0.1)
	rough, _ := ibl.IntegrateBrdf(seq, 0.1, 1.0)
	if rough >= smooth {
		t.Errorf("scale at grazing angles should drop with roughness but is %v for smooth and %v for rough\n", smooth, rough)
	}
}

func TestHammersleySequence(t *testing.T) {
	seq := ibl.HammersleySequence(8)
	expected := [][2]float32{{0, 0}, {0.125, 0.5}, {0.25, 0.25}, {0.375, 0.75}}
	for i, e := range expected {
		if seq[i] != e {
			t.Errorf("hammersley point %d should be %v but is %v\n", i, e, seq[i])
		}
	}
}

func TestDiffuseSampleCount(t *testing.T) {
	if is := ibl.DiffuseSampleCount(0); is != 1 {
		t.Errorf("quality 0 should use a single sample but uses %d\n", is)
	}
	// 32 rings with 128 segments each plus the pole
	if is := ibl.DiffuseSampleCount(32); is != 32*128+1 {
		t.Errorf("quality 32 should use %d samples but uses %d\n", 32*128+1, is)
	}
}

func TestSphericalMapPoles(t *testing.T) {
	if _, v := ibl.SampleSphericalMap(0, 1, 0); !approxEqual(v, 1, 1e-6) {
		t.Errorf("up should map to v=1 but maps to %v\n", v)
	}
	if _, v := ibl.SampleSphericalMap(0, -1, 0); !approxEqual(v, 0, 1e-6) {
		t.Errorf("down should map to v=0 but maps to %v\n", v)
	}
	if u, v := ibl.SampleSphericalMap(1, 0, 0); !approxEqual(u, 0.5, 1e-6) || !approxEqual(v, 0.5, 1e-6) {
		t.Errorf("+X should map to the image center but maps to (%v, %v)\n", u, v)
	}
}

func TestConstantEnvironmentStaysConstant(t *testing.T) {
	conf := tinyConfig()
	conf.IrradianceQuality = 4
	conf.PrefilterSamples = 32
	p := newSoftwarePipeline(t, conf)
	if err := p.Bake(constantImage(8, 4, 2.0)); err != nil {
		t.Fatal(err)
	}

	for _, id := range []ibl.StageID{ibl.StageEnvironment, ibl.StageIrradiance, ibl.StagePrefilter} {
		target, _ := p.Target(id)
		desc := target.Color.Desc()
		for level := 0; level < desc.Levels; level++ {
			w, h := desc.LevelSize(level)
			pix := make([]float32, w*h*4)
			for _, face := range ibl.CubeMapFaces {
				if err := p.Backend().ReadbackPixels(target.Color, face, level, pix); err != nil {
					t.Fatal(err)
				}
				for i := 0; i < len(pix); i += 4 {
					if !approxEqual(pix[i], 2.0, 1e-3) || !approxEqual(pix[i+3], 1.0, 1e-6) {
						t.Fatalf("%v (%v, %d) should be constant 2 but texel %d is %v\n", id, face, level, i/4, pix[i:i+4])
					}
				}
			}
		}
	}
}
