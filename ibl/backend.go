package ibl

import (
	"fmt"
	"iblbake/libio"
	"iblbake/libutil"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

// TargetDesc describes a color target. Level sizes are halved per level,
// but never drop below 1.
type TargetDesc struct {
	Label         string
	Kind          TargetKind
	Width, Height int
	Levels        int
	Samples       int
	Format        PixelFormat
}

func (desc TargetDesc) LevelSize(level int) (width, height int) {
	return max(1, desc.Width>>level), max(1, desc.Height>>level)
}

func (desc TargetDesc) validate() error {
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("%w: target %q has zero size %dx%d", ErrResource, desc.Label, desc.Width, desc.Height)
	}
	if desc.Kind == TargetCube && desc.Width != desc.Height {
		return fmt.Errorf("%w: cube target %q is not square", ErrResource, desc.Label)
	}
	if desc.Levels < 1 || desc.Levels > MipCount(max(desc.Width, desc.Height)) {
		return fmt.Errorf("%w: target %q has invalid level count %d", ErrResource, desc.Label, desc.Levels)
	}
	if desc.Samples < 1 {
		return fmt.Errorf("%w: target %q has invalid sample count %d", ErrResource, desc.Label, desc.Samples)
	}
	return nil
}

// Target is a color texture owned by a backend.
type Target interface {
	libutil.Deleter
	Desc() TargetDesc
}

// DepthBuffer is a depth attachment of a single size.
type DepthBuffer interface {
	libutil.Deleter
	Size() (width, height int)
	Samples() int
}

// Pass binds one (face, level) of a color target together with a depth buffer of the same size.
type Pass interface {
	libutil.Deleter
	Target() Target
	Face() CubeMapFace
	Level() int
}

// DrawCall holds everything a shading kernel needs.
// The viewport is always the full size of the bound pass level.
type DrawCall struct {
	Kernel     Kernel
	Geometry   Geometry
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// Source is the sampled texture, nil for the brdf lut.
	Source    Target
	Roughness float32
	// Samples is the number of importance samples,
	// or the number of rings for the irradiance kernel.
	Samples int
	// Filtered enables lod selection by sample density for the prefilter kernel.
	Filtered bool
}

// Backend is the minimal set of rendering capabilities needed for baking.
// All methods must be called from the same goroutine.
type Backend interface {
	Name() string
	// CreateTexture uploads a 2D image with rows ordered bottom to top.
	CreateTexture(img *libio.FloatImage) (Target, error)
	CreateTarget(desc TargetDesc) (Target, error)
	CreateDepth(width, height, samples int) (DepthBuffer, error)
	CreatePass(color Target, face CubeMapFace, level int, depth DepthBuffer) (Pass, error)
	BeginPass(pass Pass) error
	Draw(call DrawCall) error
	EndPass() error
	GenerateMipmaps(target Target) error
	// ReadbackPixels blocks until all previous draws are done and copies
	// one (face, level) as RGBA float32 into dst, rows ordered bottom to top.
	ReadbackPixels(target Target, face CubeMapFace, level int, dst []float32) error
	// Release frees the backend itself; created resources are deleted by their owner.
	Release()
}

// BackendFactory creates a backend. GPU backends require a current context
// or an available device.
type BackendFactory func() (Backend, error)

var backendFactories = map[string]BackendFactory{
	"software": func() (Backend, error) { return NewSoftwareBackend(), nil },
	"opengl":   func() (Backend, error) { return NewGlBackend() },
	"opencl":   func() (Backend, error) { return NewClBackend(DeviceTypeGPU) },
}

// BackendNames returns the sorted names accepted by NewBackend.
func BackendNames() []string {
	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewBackend creates the named backend.
func NewBackend(name string) (Backend, error) {
	factory, ok := backendFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInput, name)
	}
	backend, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s backend: %w", ErrResource, name, err)
	}
	Logger().Info("backend created", "name", backend.Name())
	return backend, nil
}

func checkReadback(desc TargetDesc, face CubeMapFace, level int, dst []float32) error {
	if level < 0 || level >= desc.Levels {
		return fmt.Errorf("%w: level %d of %q out of range", ErrResource, level, desc.Label)
	}
	if int(face) < 0 || int(face) >= desc.Kind.Faces() {
		return fmt.Errorf("%w: face %v of %q out of range", ErrResource, face, desc.Label)
	}
	w, h := desc.LevelSize(level)
	if len(dst) != w*h*4 {
		return fmt.Errorf("%w: readback buffer has %d values, expected %d", ErrResource, len(dst), w*h*4)
	}
	return nil
}
