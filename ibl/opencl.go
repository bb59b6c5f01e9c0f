package ibl

import (
	_ "embed"
	"fmt"
	"unsafe"

	"iblbake/libio"

	"github.com/Qendolin/go-opencl/cl"
	"github.com/chewxy/math32"
	"golang.org/x/exp/slices"
)

//go:embed kernels/shared.cl
var openclSharedSrc string

//go:embed kernels/bake.cl
var openclBakeSrc string

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

var clKernelNames = map[Kernel]string{
	KernelEquirectangular: "reproject_environment",
	KernelIrradiance:      "convolve_diffuse",
	KernelPrefilter:       "convolve_specular",
	KernelBrdfLut:         "integrate_brdf",
}

var clLocalWorkSize = []int{16, 16}

// clTarget keeps its pixels on the host. A packed copy is uploaded
// to the device when the target is sampled.
type clTarget struct {
	*swTarget
	mem   *cl.MemObject
	stale bool
}

func (t *clTarget) Delete() {
	if t.mem != nil {
		t.mem.Release()
		t.mem = nil
	}
	t.swTarget.Delete()
}

type clPass struct {
	target *clTarget
	face   CubeMapFace
	level  int
}

func (p *clPass) Target() Target     { return p.target }
func (p *clPass) Face() CubeMapFace { return p.face }
func (p *clPass) Level() int         { return p.level }
func (p *clPass) Delete()            {}

// ClBackend evaluates the shading kernels with OpenCL, one pass at a time.
type ClBackend struct {
	device  *cl.Device
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernels map[Kernel]*cl.Kernel
	active  *clPass
}

// NewClBackend picks the most powerful device, preferring devices of the preferred type.
func NewClBackend(preferredDevice DeviceType) (_ *ClBackend, err error) {
	device, err := selectClDevice(preferredDevice)
	if err != nil {
		return nil, err
	}

	backend := &ClBackend{device: device, kernels: map[Kernel]*cl.Kernel{}}
	defer func() {
		if err != nil {
			backend.Release()
		}
	}()

	backend.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}
	backend.queue, err = backend.context.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}
	backend.program, err = backend.context.CreateProgramWithSource([]string{openclSharedSrc, openclBakeSrc})
	if err != nil {
		return nil, err
	}
	if err = backend.program.BuildProgram(nil, ""); err != nil {
		return nil, fmt.Errorf("build opencl program: %w", err)
	}

	for kernel, name := range clKernelNames {
		k, err := backend.program.CreateKernel(name)
		if err != nil {
			return nil, fmt.Errorf("opencl kernel %s: %w", name, err)
		}
		backend.kernels[kernel] = k
	}

	Logger().Debug("opencl backend ready", "device", device.Name(), "type", device.Type())
	return backend, nil
}

func selectClDevice(preferredDevice DeviceType) (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferredDevice && b.Type() != preferredDevice {
			return -1
		}
		if a.Type() != preferredDevice && b.Type() == preferredDevice {
			return 1
		}

		aPower := a.MaxComputeUnits() * a.MaxClockFrequency()
		bPower := b.MaxComputeUnits() * b.MaxClockFrequency()

		return bPower - aPower
	})

	return devices[0], nil
}

func (*ClBackend) Name() string {
	return "opencl"
}

func (*ClBackend) CreateTexture(img *libio.FloatImage) (Target, error) {
	t, err := newSourceTarget(img)
	if err != nil {
		return nil, err
	}
	return &clTarget{swTarget: t, stale: true}, nil
}

func (*ClBackend) CreateTarget(desc TargetDesc) (Target, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	Logger().Debug("target created", "label", desc.Label, "kind", desc.Kind, "size", desc.Width, "levels", desc.Levels, "samples", desc.Samples)
	return &clTarget{swTarget: newHostTarget(desc), stale: true}, nil
}

func (*ClBackend) CreateDepth(width, height, samples int) (DepthBuffer, error) {
	if width <= 0 || height <= 0 || samples < 1 {
		return nil, fmt.Errorf("%w: invalid depth buffer %dx%d with %d samples", ErrResource, width, height, samples)
	}
	// kernels have no depth test, only the size is tracked
	return &swDepth{width: width, height: height, samples: samples}, nil
}

func (*ClBackend) CreatePass(color Target, face CubeMapFace, level int, depth DepthBuffer) (Pass, error) {
	t, ok := color.(*clTarget)
	if !ok || t.pix == nil {
		return nil, fmt.Errorf("%w: pass target is not a live opencl target", ErrResource)
	}
	if err := checkPass(t.desc, face, level, depth); err != nil {
		return nil, err
	}
	return &clPass{target: t, face: face, level: level}, nil
}

func (cb *ClBackend) BeginPass(pass Pass) error {
	if cb.active != nil {
		return fmt.Errorf("%w: pass already active", ErrState)
	}
	p, ok := pass.(*clPass)
	if !ok || p.target.pix == nil {
		return fmt.Errorf("%w: pass is not a live opencl pass", ErrResource)
	}
	cb.active = p
	return nil
}

func (cb *ClBackend) EndPass() error {
	if cb.active == nil {
		return fmt.Errorf("%w: no active pass", ErrState)
	}
	cb.active = nil
	return nil
}

// upload refreshes the device copy of t if the host pixels changed.
func (cb *ClBackend) upload(t *clTarget) (*cl.MemObject, error) {
	if t.mem != nil && !t.stale {
		return t.mem, nil
	}
	if t.mem != nil {
		t.mem.Release()
		t.mem = nil
	}
	pix := t.packed()
	mem, err := cb.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, len(pix)*4, unsafe.Pointer(&pix[0]))
	if err != nil {
		return nil, err
	}
	t.mem = mem
	t.stale = false
	return mem, nil
}

func (cb *ClBackend) Draw(call DrawCall) (err error) {
	pass := cb.active
	if pass == nil {
		return fmt.Errorf("%w: draw outside of a pass", ErrState)
	}
	kernel, ok := cb.kernels[call.Kernel]
	if !ok {
		return fmt.Errorf("%w: unknown kernel %v", ErrResource, call.Kernel)
	}
	wantGeometry := GeometryUnitCube
	if call.Kernel == KernelBrdfLut {
		wantGeometry = GeometryFullscreenTriangle
	}
	if call.Geometry != wantGeometry {
		return fmt.Errorf("%w: %v kernel cannot be drawn with geometry %d", ErrResource, call.Kernel, call.Geometry)
	}

	var temporary []*cl.MemObject
	defer func() {
		for _, mem := range temporary {
			mem.Release()
		}
		if err != nil {
			err = fmt.Errorf("%w: opencl %v draw: %w", ErrResource, call.Kernel, err)
		}
	}()
	createBuffer := func(size int, ptr unsafe.Pointer) (*cl.MemObject, error) {
		mem, err := cb.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, size, ptr)
		if err == nil {
			temporary = append(temporary, mem)
		}
		return mem, err
	}

	w, h := pass.target.desc.LevelSize(pass.level)
	grid := int(math32.Ceil(math32.Sqrt(float32(pass.target.desc.Samples))))

	dstImage, err := cb.context.CreateImage(cl.MemWriteOnly, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  w,
		Height: h,
	}, w*h*4*4, nil)
	if err != nil {
		return err
	}
	temporary = append(temporary, dstImage)

	args := []any{dstImage, w, h, grid}

	if call.Kernel != KernelBrdfLut {
		source, ok := call.Source.(*clTarget)
		if !ok || source.pix == nil {
			return fmt.Errorf("%v draw needs a live opencl source", call.Kernel)
		}
		srcMem, err := cb.upload(source)
		if err != nil {
			return err
		}
		inverseVP := call.Projection.Mul4(call.View).Inv()
		matMem, err := createBuffer(len(inverseVP)*4, unsafe.Pointer(&inverseVP[0]))
		if err != nil {
			return err
		}
		args = append(args, matMem, srcMem)
		if call.Kernel == KernelEquirectangular {
			args = append(args, source.desc.Width, source.desc.Height)
		} else {
			args = append(args, source.desc.Width, source.desc.Levels)
		}
	}

	switch call.Kernel {
	case KernelIrradiance:
		samples := generateDiffuseConvolutionSamples(call.Samples)
		sampleMem, err := createBuffer(len(samples)*int(unsafe.Sizeof(samples[0])), unsafe.Pointer(&samples[0]))
		if err != nil {
			return err
		}
		args = append(args, sampleMem, len(samples))
	case KernelPrefilter, KernelBrdfLut:
		seq := generateHammersleySequence(call.Samples)
		seqMem, err := createBuffer(len(seq)*int(unsafe.Sizeof(seq[0])), unsafe.Pointer(&seq[0]))
		if err != nil {
			return err
		}
		args = append(args, seqMem, len(seq))
		if call.Kernel == KernelPrefilter {
			args = append(args, call.Roughness, call.Filtered)
		}
	}

	if err := setClKernelArgs(kernel, args...); err != nil {
		return err
	}

	globalWorkSize := []int{roundUpKernelSize(clLocalWorkSize[0], w), roundUpKernelSize(clLocalWorkSize[1], h)}
	_, err = cb.queue.EnqueueNDRangeKernel(kernel, []int{0, 0}, globalWorkSize, clLocalWorkSize, nil)
	if err != nil {
		return err
	}

	dst := pass.target.face(pass.level, pass.face)
	_, err = cb.queue.EnqueueReadImage(dstImage, true, [3]int{}, [3]int{w, h, 1}, 0, 0, unsafe.Pointer(&dst[0]), nil)
	if err != nil {
		return err
	}
	pass.target.stale = true

	Logger().Debug("draw", "kernel", call.Kernel, "target", pass.target.desc.Label, "face", pass.face, "level", pass.level)
	return nil
}

func setClKernelArgs(kernel *cl.Kernel, args ...any) error {
	for i, arg := range args {
		var err error
		switch v := arg.(type) {
		case *cl.MemObject:
			err = kernel.SetArgBuffer(i, v)
		case int:
			err = kernel.SetArgInt32(i, int32(v))
		case float32:
			err = kernel.SetArgFloat32(i, v)
		case bool:
			var b int32
			if v {
				b = 1
			}
			err = kernel.SetArgInt32(i, b)
		default:
			return fmt.Errorf("unsupported kernel argument %d of type %T", i, arg)
		}
		if err != nil {
			return fmt.Errorf("kernel argument %d: %w", i, err)
		}
	}
	return nil
}

func (*ClBackend) GenerateMipmaps(target Target) error {
	t, ok := target.(*clTarget)
	if !ok || t.pix == nil {
		return fmt.Errorf("%w: not a live opencl target", ErrResource)
	}
	t.generateMipmaps()
	t.stale = true
	return nil
}

func (cb *ClBackend) ReadbackPixels(target Target, face CubeMapFace, level int, dst []float32) error {
	if cb.active != nil {
		return fmt.Errorf("%w: readback during an active pass", ErrState)
	}
	t, ok := target.(*clTarget)
	if !ok || t.pix == nil {
		return fmt.Errorf("%w: not a live opencl target", ErrResource)
	}
	if err := checkReadback(t.desc, face, level, dst); err != nil {
		return err
	}
	if err := cb.queue.Finish(); err != nil {
		return fmt.Errorf("%w: %w", ErrResource, err)
	}
	copy(dst, t.face(level, face))
	return nil
}

func (cb *ClBackend) Release() {
	cb.active = nil
	for _, k := range cb.kernels {
		k.Release()
	}
	cb.kernels = nil
	if cb.program != nil {
		cb.program.Release()
		cb.program = nil
	}
	if cb.queue != nil {
		cb.queue.Release()
		cb.queue = nil
	}
	if cb.context != nil {
		cb.context.Release()
		cb.context = nil
	}
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}
