package ibl

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	captureFov  = 90.0
	captureNear = 0.1
	captureFar  = 10.0
)

// CubeBasis holds the view matrices of the six cube faces and the shared projection.
// The zero value is not usable, see NewCubeBasis.
type CubeBasis struct {
	views      [6]mgl32.Mat4
	projection mgl32.Mat4
	inverseVPs [6]mgl32.Mat4
}

// NewCubeBasis computes the capture matrices for rendering into the layers of a cube map.
func NewCubeBasis() *CubeBasis {
	origin := mgl32.Vec3{0.0, 0.0, 0.0}
	basis := &CubeBasis{
		projection: mgl32.Perspective(mgl32.DegToRad(captureFov), 1.0, captureNear, captureFar),
		views: [6]mgl32.Mat4{
			mgl32.LookAtV(origin, mgl32.Vec3{1.0, 0.0, 0.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
			mgl32.LookAtV(origin, mgl32.Vec3{-1.0, 0.0, 0.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
			mgl32.LookAtV(origin, mgl32.Vec3{0.0, 1.0, 0.0}, mgl32.Vec3{0.0, 0.0, 1.0}),
			mgl32.LookAtV(origin, mgl32.Vec3{0.0, -1.0, 0.0}, mgl32.Vec3{0.0, 0.0, -1.0}),
			mgl32.LookAtV(origin, mgl32.Vec3{0.0, 0.0, 1.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
			mgl32.LookAtV(origin, mgl32.Vec3{0.0, 0.0, -1.0}, mgl32.Vec3{0.0, -1.0, 0.0}),
		},
	}
	for i := range basis.views {
		basis.inverseVPs[i] = basis.projection.Mul4(basis.views[i]).Inv()
	}
	return basis
}

func (basis *CubeBasis) View(face CubeMapFace) mgl32.Mat4 {
	return basis.views[face]
}

func (basis *CubeBasis) Projection() mgl32.Mat4 {
	return basis.projection
}

func (basis *CubeBasis) ViewProjection(face CubeMapFace) mgl32.Mat4 {
	return basis.projection.Mul4(basis.views[face])
}

// Direction unprojects the normalized device coordinates (x, y) of the given face
// into a normalized world space direction.
func (basis *CubeBasis) Direction(face CubeMapFace, x, y float32) mgl32.Vec3 {
	return unproject(basis.inverseVPs[face], x, y)
}

func unproject(inverseVP mgl32.Mat4, x, y float32) mgl32.Vec3 {
	p := inverseVP.Mul4x1(mgl32.Vec4{x, y, 1.0, 1.0})
	return p.Vec3().Mul(1.0 / p.W()).Normalize()
}
