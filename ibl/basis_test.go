package ibl_test

import (
	"iblbake/ibl"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCubeBasisFaceCenters(t *testing.T) {
	basis := ibl.NewCubeBasis()
	expected := [6]mgl32.Vec3{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}

	for _, face := range ibl.CubeMapFaces {
		is := basis.Direction(face, 0, 0)
		if !is.ApproxEqualThreshold(expected[face], 1e-5) {
			t.Errorf("center of face %v should look at %v but looks at %v\n", face, expected[face], is)
		}
	}
}

// Rendering a face with the basis and sampling it with the cube map rules
// has to land on the same face and texel.
func TestCubeBasisMatchesCubeMapLookup(t *testing.T) {
	basis := ibl.NewCubeBasis()
	coords := []float32{-0.9, -0.5, 0.0, 0.3, 0.8}

	for _, face := range ibl.CubeMapFaces {
		for _, y := range coords {
			for _, x := range coords {
				d := basis.Direction(face, x, y)
				sface, u, v := ibl.SampleCubeMap(d[0], d[1], d[2])
				if sface != face {
					t.Errorf("ndc (%v, %v) of face %v should sample face %v but samples %v\n", x, y, face, face, sface)
					continue
				}
				if !approxEqual(u, x*0.5+0.5, 1e-4) || !approxEqual(v, y*0.5+0.5, 1e-4) {
					t.Errorf("ndc (%v, %v) of face %v should sample uv (%v, %v) but samples (%v, %v)\n", x, y, face, x*0.5+0.5, y*0.5+0.5, u, v)
				}
			}
		}
	}
}

func TestCubeBasisProjection(t *testing.T) {
	basis := ibl.NewCubeBasis()
	for _, face := range ibl.CubeMapFaces {
		vp := basis.ViewProjection(face)
		if !vp.ApproxEqualThreshold(basis.Projection().Mul4(basis.View(face)), 1e-6) {
			t.Errorf("view projection of face %v should be projection * view\n", face)
		}
		// a point on the view axis inside the frustum projects to the center
		d := basis.Direction(face, 0, 0).Mul(5)
		clip := vp.Mul4x1(d.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip.W())
		if !approxEqual(ndc[0], 0, 1e-5) || !approxEqual(ndc[1], 0, 1e-5) {
			t.Errorf("view axis of face %v should project to the center but projects to %v\n", face, ndc)
		}
	}
}

func TestExportFaceOrder(t *testing.T) {
	expected := []string{"+X", "-X", "-Y", "+Y", "+Z", "-Z"}
	for i, face := range ibl.ExportFaceOrder {
		if face.String() != expected[i] {
			t.Errorf("export face %d should be %s but is %v\n", i, expected[i], face)
		}
	}
}
