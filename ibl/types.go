package ibl

import "fmt"

// CubeMapFace is a cube map layer in render order (+X, -X, +Y, -Y, +Z, -Z),
// the same order OpenGL uses for cube map layers.
type CubeMapFace int

const (
	CubeMapPositiveX CubeMapFace = iota
	CubeMapNegativeX
	CubeMapPositiveY
	CubeMapNegativeY
	CubeMapPositiveZ
	CubeMapNegativeZ
)

var CubeMapFaces = [6]CubeMapFace{
	CubeMapPositiveX, CubeMapNegativeX,
	CubeMapPositiveY, CubeMapNegativeY,
	CubeMapPositiveZ, CubeMapNegativeZ,
}

// ExportFaceOrder is the face order of exported cube artifacts.
// Note that -Y comes before +Y.
var ExportFaceOrder = [6]CubeMapFace{
	CubeMapPositiveX, CubeMapNegativeX,
	CubeMapNegativeY, CubeMapPositiveY,
	CubeMapPositiveZ, CubeMapNegativeZ,
}

func (face CubeMapFace) String() string {
	switch face {
	case CubeMapPositiveX:
		return "+X"
	case CubeMapNegativeX:
		return "-X"
	case CubeMapPositiveY:
		return "+Y"
	case CubeMapNegativeY:
		return "-Y"
	case CubeMapPositiveZ:
		return "+Z"
	case CubeMapNegativeZ:
		return "-Z"
	}
	return fmt.Sprintf("CubeMapFace(%d)", int(face))
}

type TargetKind int

const (
	Target2D TargetKind = iota
	TargetCube
)

func (kind TargetKind) String() string {
	if kind == TargetCube {
		return "cube"
	}
	return "2d"
}

// Faces returns the number of layers of a target of this kind.
func (kind TargetKind) Faces() int {
	if kind == TargetCube {
		return 6
	}
	return 1
}

type PixelFormat int

const (
	RGBA16F PixelFormat = iota
	RGBA32F
	Depth24
)

func (format PixelFormat) String() string {
	switch format {
	case RGBA16F:
		return "rgba16f"
	case RGBA32F:
		return "rgba32f"
	case Depth24:
		return "depth24"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(format))
}

// Kernel identifies the shading function evaluated by a draw.
type Kernel int

const (
	KernelEquirectangular Kernel = iota
	KernelIrradiance
	KernelPrefilter
	KernelBrdfLut
)

func (kernel Kernel) String() string {
	switch kernel {
	case KernelEquirectangular:
		return "equirectangular"
	case KernelIrradiance:
		return "irradiance"
	case KernelPrefilter:
		return "prefilter"
	case KernelBrdfLut:
		return "brdf_lut"
	}
	return fmt.Sprintf("Kernel(%d)", int(kernel))
}

type Geometry int

const (
	// GeometryUnitCube is a 36 vertex cube around the origin, viewed from the inside.
	GeometryUnitCube Geometry = iota
	// GeometryFullscreenTriangle covers the whole viewport with a single triangle.
	GeometryFullscreenTriangle
)
