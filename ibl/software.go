package ibl

import (
	"fmt"
	"iblbake/libio"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type swTarget struct {
	desc TargetDesc
	// RGBA values indexed by [level][face], rows bottom to top
	pix [][][]float32
}

func (t *swTarget) Desc() TargetDesc {
	return t.desc
}

func (t *swTarget) Delete() {
	t.pix = nil
}

func (t *swTarget) face(level int, face CubeMapFace) []float32 {
	return t.pix[level][face]
}

func (t *swTarget) sample2D(level int, u, v float32) [4]float32 {
	w, h := t.desc.LevelSize(level)
	return sampleBilinear(w, h, t.pix[level][0], u, v)
}

// sampleCube samples the cube map trilinearly. Seams between faces are not filtered.
func (t *swTarget) sampleCube(lod float32, rx, ry, rz float32) [4]float32 {
	face, u, v := sampleCubeMap(rx, ry, rz)
	maxLevel := t.desc.Levels - 1
	lfloor := math32.Floor(lod)
	l0 := clampInt(int(lfloor), 0, maxLevel)
	size := t.desc.Width >> l0
	a := sampleBilinear(size, size, t.pix[l0][face], u, v)
	if l0 == maxLevel || lod <= lfloor {
		return a
	}
	size = t.desc.Width >> (l0 + 1)
	b := sampleBilinear(size, size, t.pix[l0+1][face], u, v)
	return mix4(a, b, lod-lfloor)
}

type swDepth struct {
	width, height int
	samples       int
}

func (d *swDepth) Size() (int, int) { return d.width, d.height }
func (d *swDepth) Samples() int      { return d.samples }
func (d *swDepth) Delete()           {}

type swPass struct {
	target *swTarget
	face   CubeMapFace
	level  int
	depth  *swDepth
}

func (p *swPass) Target() Target     { return p.target }
func (p *swPass) Face() CubeMapFace { return p.face }
func (p *swPass) Level() int         { return p.level }
func (p *swPass) Delete()            {}

// SoftwareBackend renders on the cpu. It is slow, but exact and needs no device,
// which makes it the reference for the gpu backends.
type SoftwareBackend struct {
	active *swPass
}

func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

func (*SoftwareBackend) Name() string {
	return "software"
}

func (*SoftwareBackend) CreateTexture(img *libio.FloatImage) (Target, error) {
	t, err := newSourceTarget(img)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func newSourceTarget(img *libio.FloatImage) (*swTarget, error) {
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	if img.Channels > 4 {
		return nil, fmt.Errorf("%w: image has %d channels", ErrInput, img.Channels)
	}

	t := &swTarget{
		desc: TargetDesc{
			Label:   "source",
			Kind:    Target2D,
			Width:   img.Width,
			Height:  img.Height,
			Levels:  1,
			Samples: 1,
			Format:  RGBA32F,
		},
	}
	pix := expandRGBA(img)
	t.pix = [][][]float32{{pix}}
	return t, nil
}

// expandRGBA fills missing channels with 0 and missing alpha with 1.
func expandRGBA(img *libio.FloatImage) []float32 {
	if img.Channels == 4 {
		return append([]float32(nil), img.Pix...)
	}
	pix := make([]float32, img.Count()*4)
	for i := 0; i < img.Count(); i++ {
		for c := 0; c < img.Channels; c++ {
			pix[i*4+c] = img.Pix[i*img.Channels+c]
		}
		pix[i*4+3] = 1.0
	}
	return pix
}

func (*SoftwareBackend) CreateTarget(desc TargetDesc) (Target, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	Logger().Debug("target created", "label", desc.Label, "kind", desc.Kind, "size", desc.Width, "levels", desc.Levels, "samples", desc.Samples)
	return newHostTarget(desc), nil
}

// newHostTarget allocates zeroed storage for every level and face of desc.
func newHostTarget(desc TargetDesc) *swTarget {
	t := &swTarget{desc: desc, pix: make([][][]float32, desc.Levels)}
	for l := range t.pix {
		w, h := desc.LevelSize(l)
		t.pix[l] = make([][]float32, desc.Kind.Faces())
		for f := range t.pix[l] {
			t.pix[l][f] = make([]float32, w*h*4)
		}
	}
	return t
}

func (*SoftwareBackend) CreateDepth(width, height, samples int) (DepthBuffer, error) {
	if width <= 0 || height <= 0 || samples < 1 {
		return nil, fmt.Errorf("%w: invalid depth buffer %dx%d with %d samples", ErrResource, width, height, samples)
	}
	return &swDepth{width: width, height: height, samples: samples}, nil
}

func (*SoftwareBackend) CreatePass(color Target, face CubeMapFace, level int, depth DepthBuffer) (Pass, error) {
	t, ok := color.(*swTarget)
	if !ok || t.pix == nil {
		return nil, fmt.Errorf("%w: pass target is not a live software target", ErrResource)
	}
	d, ok := depth.(*swDepth)
	if !ok {
		return nil, fmt.Errorf("%w: pass depth is not a software depth buffer", ErrResource)
	}
	if err := checkPass(t.desc, face, level, d); err != nil {
		return nil, err
	}
	return &swPass{target: t, face: face, level: level, depth: d}, nil
}

func checkPass(desc TargetDesc, face CubeMapFace, level int, depth DepthBuffer) error {
	if level < 0 || level >= desc.Levels {
		return fmt.Errorf("%w: level %d of %q out of range", ErrResource, level, desc.Label)
	}
	if int(face) < 0 || int(face) >= desc.Kind.Faces() {
		return fmt.Errorf("%w: face %v of %q out of range", ErrResource, face, desc.Label)
	}
	w, h := desc.LevelSize(level)
	dw, dh := depth.Size()
	if dw != w || dh != h {
		return fmt.Errorf("%w: depth buffer is %dx%d, level %d of %q is %dx%d", ErrResource, dw, dh, level, desc.Label, w, h)
	}
	if depth.Samples() != desc.Samples {
		return fmt.Errorf("%w: depth buffer has %d samples, %q has %d", ErrResource, depth.Samples(), desc.Label, desc.Samples)
	}
	return nil
}

func (sw *SoftwareBackend) BeginPass(pass Pass) error {
	if sw.active != nil {
		return fmt.Errorf("%w: pass already active", ErrState)
	}
	p, ok := pass.(*swPass)
	if !ok || p.target.pix == nil {
		return fmt.Errorf("%w: pass is not a live software pass", ErrResource)
	}
	sw.active = p
	return nil
}

func (sw *SoftwareBackend) EndPass() error {
	if sw.active == nil {
		return fmt.Errorf("%w: no active pass", ErrState)
	}
	sw.active = nil
	return nil
}

func (sw *SoftwareBackend) Draw(call DrawCall) error {
	pass := sw.active
	if pass == nil {
		return fmt.Errorf("%w: draw outside of a pass", ErrState)
	}

	var source *swTarget
	if call.Kernel != KernelBrdfLut {
		var ok bool
		source, ok = call.Source.(*swTarget)
		if !ok || source.pix == nil {
			return fmt.Errorf("%w: %v draw needs a live software source", ErrResource, call.Kernel)
		}
	}

	shade, err := sw.kernelFunc(call, source)
	if err != nil {
		return err
	}

	w, h := pass.target.desc.LevelSize(pass.level)
	dst := pass.target.face(pass.level, pass.face)

	// supersampling on a regular grid
	grid := int(math32.Ceil(math32.Sqrt(float32(pass.target.desc.Samples))))
	subSamples := float32(grid * grid)

	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			var rgba [4]float32
			for sy := 0; sy < grid; sy++ {
				for sx := 0; sx < grid; sx++ {
					// normalized device coordinates, y up
					nx := (float32(px)+(float32(sx)+0.5)/float32(grid))/float32(w)*2.0 - 1.0
					ny := (float32(py)+(float32(sy)+0.5)/float32(grid))/float32(h)*2.0 - 1.0
					s := shade(nx, ny)
					for c := range rgba {
						rgba[c] += s[c]
					}
				}
			}
			i := (py*w + px) * 4
			for c := range rgba {
				dst[i+c] = rgba[c] / subSamples
			}
		}
	}

	Logger().Debug("draw", "kernel", call.Kernel, "target", pass.target.desc.Label, "face", pass.face, "level", pass.level)
	return nil
}

type shadeFunc func(nx, ny float32) [4]float32

func (sw *SoftwareBackend) kernelFunc(call DrawCall, source *swTarget) (shadeFunc, error) {
	wantGeometry := GeometryUnitCube
	if call.Kernel == KernelBrdfLut {
		wantGeometry = GeometryFullscreenTriangle
	}
	if call.Geometry != wantGeometry {
		return nil, fmt.Errorf("%w: %v kernel cannot be drawn with geometry %d", ErrResource, call.Kernel, call.Geometry)
	}

	inverseVP := call.Projection.Mul4(call.View).Inv()
	direction := func(nx, ny float32) mgl32.Vec3 {
		return unproject(inverseVP, nx, ny)
	}

	switch call.Kernel {
	case KernelEquirectangular:
		return func(nx, ny float32) [4]float32 {
			d := direction(nx, ny)
			return shadeEquirectangular(source, d[0], d[1], d[2])
		}, nil
	case KernelIrradiance:
		samples := generateDiffuseConvolutionSamples(call.Samples)
		return func(nx, ny float32) [4]float32 {
			d := direction(nx, ny)
			return shadeIrradiance(source, samples, d[0], d[1], d[2])
		}, nil
	case KernelPrefilter:
		seq := generateHammersleySequence(call.Samples)
		return func(nx, ny float32) [4]float32 {
			d := direction(nx, ny)
			return shadePrefilter(source, seq, call.Roughness, call.Filtered, d[0], d[1], d[2])
		}, nil
	case KernelBrdfLut:
		seq := generateHammersleySequence(call.Samples)
		return func(nx, ny float32) [4]float32 {
			// u is n.v, v is the roughness
			a, b := integrateBrdf(seq, nx*0.5+0.5, ny*0.5+0.5)
			return [4]float32{a, b, 0.0, 1.0}
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown kernel %v", ErrResource, call.Kernel)
}

// GenerateMipmaps fills every level after the first with a 2x2 box filter of the previous one.
func (*SoftwareBackend) GenerateMipmaps(target Target) error {
	t, ok := target.(*swTarget)
	if !ok || t.pix == nil {
		return fmt.Errorf("%w: not a live software target", ErrResource)
	}
	t.generateMipmaps()
	return nil
}

func (t *swTarget) generateMipmaps() {
	for l := 1; l < t.desc.Levels; l++ {
		sw, sh := t.desc.LevelSize(l - 1)
		dw, dh := t.desc.LevelSize(l)
		for f := range t.pix[l] {
			downsample(t.pix[l-1][f], sw, sh, t.pix[l][f], dw, dh)
		}
	}
}

// packed concatenates all faces of all levels.
func (t *swTarget) packed() []float32 {
	n := 0
	for l := range t.pix {
		for f := range t.pix[l] {
			n += len(t.pix[l][f])
		}
	}
	pix := make([]float32, 0, n)
	for l := range t.pix {
		for f := range t.pix[l] {
			pix = append(pix, t.pix[l][f]...)
		}
	}
	return pix
}

func downsample(src []float32, sw, sh int, dst []float32, dw, dh int) {
	for y := 0; y < dh; y++ {
		y0, y1 := min(y*2, sh-1), min(y*2+1, sh-1)
		for x := 0; x < dw; x++ {
			x0, x1 := min(x*2, sw-1), min(x*2+1, sw-1)
			for c := 0; c < 4; c++ {
				sum := src[(y0*sw+x0)*4+c] + src[(y0*sw+x1)*4+c] + src[(y1*sw+x0)*4+c] + src[(y1*sw+x1)*4+c]
				dst[(y*dw+x)*4+c] = sum * 0.25
			}
		}
	}
}

func (sw *SoftwareBackend) ReadbackPixels(target Target, face CubeMapFace, level int, dst []float32) error {
	if sw.active != nil {
		return fmt.Errorf("%w: readback during an active pass", ErrState)
	}
	t, ok := target.(*swTarget)
	if !ok || t.pix == nil {
		return fmt.Errorf("%w: not a live software target", ErrResource)
	}
	if err := checkReadback(t.desc, face, level, dst); err != nil {
		return err
	}
	copy(dst, t.face(level, face))
	return nil
}

func (sw *SoftwareBackend) Release() {
	sw.active = nil
}
