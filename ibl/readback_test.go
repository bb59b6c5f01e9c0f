package ibl_test

import (
	"iblbake/ibl"
	"testing"
)

// patternBackend reads back the face index in red and the row index,
// counted from the bottom, in green.
type patternBackend struct {
	*ibl.SoftwareBackend
}

func (b *patternBackend) ReadbackPixels(target ibl.Target, face ibl.CubeMapFace, level int, dst []float32) error {
	w, _ := target.Desc().LevelSize(level)
	for i := 0; i < len(dst)/4; i++ {
		dst[i*4+0] = float32(face)
		dst[i*4+1] = float32(i / w)
		dst[i*4+2] = float32(level)
		dst[i*4+3] = 1
	}
	return nil
}

func TestReadbackFaceOrder(t *testing.T) {
	backend := &patternBackend{ibl.NewSoftwareBackend()}
	target, err := backend.CreateTarget(ibl.TargetDesc{Label: "test", Kind: ibl.TargetCube, Width: 4, Height: 4, Levels: 3, Samples: 1})
	if err != nil {
		t.Fatal(err)
	}

	a, err := ibl.ReadbackArtifact(backend, target, 1, "test")
	if err != nil {
		t.Fatal(err)
	}
	if a.Size != 2 || len(a.Data) != 6*2*2*8 {
		t.Fatalf("artifact should be 2x2 with %d bytes but is %dx%d with %d bytes\n", 6*2*2*8, a.Size, a.Size, len(a.Data))
	}

	img, err := ibl.DecodeArtifact(a)
	if err != nil {
		t.Fatal(err)
	}

	faceLen := 2 * 2 * 4
	for i, face := range ibl.ExportFaceOrder {
		pix := img.Pix[i*faceLen : (i+1)*faceLen]
		if pix[0] != float32(face) {
			t.Errorf("face %d of the artifact should be %v but is %v\n", i, face, ibl.CubeMapFace(pix[0]))
		}
		if pix[2] != 1 {
			t.Errorf("face %d of the artifact should be from level 1 but is from %v\n", i, pix[2])
		}
	}

	// -Y and +Y are swapped
	if img.Pix[2*faceLen] != float32(ibl.CubeMapNegativeY) || img.Pix[3*faceLen] != float32(ibl.CubeMapPositiveY) {
		t.Errorf("third and fourth face should be -Y and +Y\n")
	}
}

func TestReadbackFlipsRows(t *testing.T) {
	backend := &patternBackend{ibl.NewSoftwareBackend()}
	target, err := backend.CreateTarget(ibl.TargetDesc{Label: "test", Kind: ibl.Target2D, Width: 4, Height: 4, Levels: 1, Samples: 1})
	if err != nil {
		t.Fatal(err)
	}

	a, err := ibl.ReadbackArtifact(backend, target, 0, "test")
	if err != nil {
		t.Fatal(err)
	}
	img, err := ibl.DecodeArtifact(a)
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 4; y++ {
		// the first row of the artifact is the top row
		if is := img.Pix[img.Index(0, y)+1]; is != float32(3-y) {
			t.Errorf("artifact row %d should be target row %d but is %v\n", y, 3-y, is)
		}
	}
}

func TestDecodeArtifactRejectsBadLength(t *testing.T) {
	a := &ibl.Artifact{Name: "broken", Kind: ibl.TargetCube, Size: 2, Data: make([]byte, 10)}
	if _, err := ibl.DecodeArtifact(a); err == nil {
		t.Errorf("artifact with a bad length should not decode\n")
	}
}

func TestSoftwareReadbackMatchesReadbackArtifact(t *testing.T) {
	p := newSoftwarePipeline(t, tinyConfig())
	if err := p.Bake(constantImage(4, 2, 0.5)); err != nil {
		t.Fatal(err)
	}
	artifacts, err := p.Readback()
	if err != nil {
		t.Fatal(err)
	}

	names := []string{"irradiance", "prefilter_mm_0", "prefilter_mm_1", "prefilter_mm_2", "prefilter_mm_3", "brdf_lut"}
	if len(artifacts) != len(names) {
		t.Fatalf("there should be %d artifacts but there are %d\n", len(names), len(artifacts))
	}
	for i, a := range artifacts {
		if a.Name != names[i] {
			t.Errorf("artifact %d should be %s but is %s\n", i, names[i], a.Name)
		}
		if len(a.Data) != a.ExpectedBytes() {
			t.Errorf("artifact %s should have %d bytes but has %d\n", a.Name, a.ExpectedBytes(), len(a.Data))
		}
	}
}
