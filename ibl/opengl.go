package ibl

import (
	_ "embed"
	"fmt"
	"strings"

	"iblbake/libgl"
	"iblbake/libio"
	"iblbake/libutil"

	"github.com/go-gl/gl/v4.5-core/gl"
)

//go:embed shaders/common.glsl
var glslCommonSrc string

//go:embed shaders/cube.vert
var cubeVertSrc string

//go:embed shaders/fullscreen.vert
var fullscreenVertSrc string

//go:embed shaders/equirect.frag
var equirectFragSrc string

//go:embed shaders/irradiance.frag
var irradianceFragSrc string

//go:embed shaders/prefilter.frag
var prefilterFragSrc string

//go:embed shaders/brdf.frag
var brdfFragSrc string

type glTarget struct {
	desc    TargetDesc
	texture libgl.UnboundTexture
}

func (t *glTarget) Desc() TargetDesc {
	return t.desc
}

func (t *glTarget) Delete() {
	if t.texture != nil {
		t.texture.Delete()
		t.texture = nil
	}
}

type glDepth struct {
	renderbuffer libgl.UnboundRenderbuffer
}

func (d *glDepth) Size() (int, int) { return d.renderbuffer.Size() }
func (d *glDepth) Samples() int      { return d.renderbuffer.Samples() }

func (d *glDepth) Delete() {
	d.renderbuffer.Delete()
}

// glPass renders into fbo. Multisampled passes render into msFbo instead
// and are resolved into fbo when the pass ends.
type glPass struct {
	target  *glTarget
	face    CubeMapFace
	level   int
	fbo     libgl.UnboundFramebuffer
	msFbo   libgl.UnboundFramebuffer
	msColor libgl.UnboundRenderbuffer
}

func (p *glPass) Target() Target     { return p.target }
func (p *glPass) Face() CubeMapFace { return p.face }
func (p *glPass) Level() int         { return p.level }

func (p *glPass) Delete() {
	if p.msFbo != nil {
		p.msFbo.Delete()
		p.msColor.Delete()
	}
	p.fbo.Delete()
}

func (p *glPass) drawFramebuffer() libgl.UnboundFramebuffer {
	if p.msFbo != nil {
		return p.msFbo
	}
	return p.fbo
}

// GlBackend renders with OpenGL 4.5. The context must stay current on the calling thread.
type GlBackend struct {
	pipelines   map[Kernel]libgl.UnboundShaderPipeline
	programs    []libgl.ShaderProgram
	cubeVao     libgl.UnboundVertexArray
	cubeVbo     libgl.UnboundBuffer
	emptyVao    libgl.UnboundVertexArray
	flatSampler libgl.UnboundSampler
	cubeSampler libgl.UnboundSampler
	active      *glPass
}

// NewGlBackend compiles the shaders and uploads the cube geometry.
// libgl.Init must have been called with a current context.
func NewGlBackend() (backend *GlBackend, err error) {
	if libgl.State == nil || libgl.Env == nil {
		return nil, fmt.Errorf("no current opengl context")
	}

	cleanup := []libutil.Deleter{}
	defer func() {
		if err != nil {
			libutil.DeleteAll(cleanup)
		}
	}()

	backend = &GlBackend{pipelines: map[Kernel]libgl.UnboundShaderPipeline{}}

	compile := func(source string, stage int) (libgl.ShaderProgram, error) {
		source = strings.ReplaceAll(source, `#include "common.glsl"`, glslCommonSrc)
		prog := libgl.NewShader(source, stage)
		if err := prog.Compile(); err != nil {
			return nil, err
		}
		cleanup = append(cleanup, prog)
		backend.programs = append(backend.programs, prog)
		return prog, nil
	}

	cubeVsh, err := compile(cubeVertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	fullscreenVsh, err := compile(fullscreenVertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}

	fragments := []struct {
		kernel Kernel
		source string
		vsh    libgl.ShaderProgram
	}{
		{KernelEquirectangular, equirectFragSrc, cubeVsh},
		{KernelIrradiance, irradianceFragSrc, cubeVsh},
		{KernelPrefilter, prefilterFragSrc, cubeVsh},
		{KernelBrdfLut, brdfFragSrc, fullscreenVsh},
	}
	for _, f := range fragments {
		fsh, err := compile(f.source, gl.FRAGMENT_SHADER)
		if err != nil {
			return nil, err
		}
		pipeline := libgl.NewPipeline()
		cleanup = append(cleanup, pipeline)
		pipeline.Attach(f.vsh, gl.VERTEX_SHADER_BIT)
		pipeline.Attach(fsh, gl.FRAGMENT_SHADER_BIT)
		backend.pipelines[f.kernel] = pipeline
	}

	backend.cubeVbo = libgl.NewBuffer()
	cleanup = append(cleanup, backend.cubeVbo)
	backend.cubeVbo.Allocate(libutil.NewUnitCube(), 0)
	backend.cubeVao = libgl.NewVertexArray()
	cleanup = append(cleanup, backend.cubeVao)
	backend.cubeVao.Layout(0, 0, 3, gl.FLOAT, false, 0)
	backend.cubeVao.BindBuffer(0, backend.cubeVbo, 0, 3*4)

	backend.emptyVao = libgl.NewVertexArray()
	cleanup = append(cleanup, backend.emptyVao)

	backend.flatSampler = libgl.NewSampler()
	cleanup = append(cleanup, backend.flatSampler)
	backend.flatSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, 0)
	backend.flatSampler.FilterMode(gl.LINEAR, gl.LINEAR)

	backend.cubeSampler = libgl.NewSampler()
	cleanup = append(cleanup, backend.cubeSampler)
	backend.cubeSampler.WrapMode(gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE, gl.CLAMP_TO_EDGE)
	backend.cubeSampler.FilterMode(gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR)

	libgl.State.SetEnabled(libgl.DepthTest, libgl.TextureCubeMapSeamless)
	libgl.State.DepthFunc(libgl.DepthFuncLEqual)

	if err := libgl.Error(); err != nil {
		return nil, err
	}
	Logger().Debug("opengl backend ready", "vendor", libgl.Env.Vendor, "renderer", libgl.Env.Renderer, "version", libgl.Env.Version)
	return backend, nil
}

func (*GlBackend) Name() string {
	return "opengl"
}

func glInternalFormat(format PixelFormat) uint32 {
	switch format {
	case RGBA32F:
		return gl.RGBA32F
	case Depth24:
		return gl.DEPTH_COMPONENT24
	}
	return gl.RGBA16F
}

func (*GlBackend) CreateTexture(img *libio.FloatImage) (Target, error) {
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	if img.Channels > 4 {
		return nil, fmt.Errorf("%w: image has %d channels", ErrInput, img.Channels)
	}
	if max(img.Width, img.Height) > int(libgl.Env.Features.MaxTextureSize) {
		return nil, fmt.Errorf("%w: image is larger than the maximum texture size %d", ErrResource, libgl.Env.Features.MaxTextureSize)
	}

	desc := TargetDesc{
		Label:   "source",
		Kind:    Target2D,
		Width:   img.Width,
		Height:  img.Height,
		Levels:  1,
		Samples: 1,
		Format:  RGBA32F,
	}
	texture := libgl.NewTexture(gl.TEXTURE_2D)
	texture.SetDebugLabel(desc.Label)
	texture.Allocate(1, gl.RGBA32F, img.Width, img.Height, 0)
	texture.Load(0, img.Width, img.Height, gl.RGBA, expandRGBA(img))
	if err := libgl.Error(); err != nil {
		texture.Delete()
		return nil, fmt.Errorf("%w: source upload: %w", ErrResource, err)
	}
	return &glTarget{desc: desc, texture: texture}, nil
}

func (*GlBackend) CreateTarget(desc TargetDesc) (Target, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}
	if desc.Samples > int(libgl.Env.Features.MaxSamples) {
		return nil, fmt.Errorf("%w: %d samples requested, at most %d supported", ErrResource, desc.Samples, libgl.Env.Features.MaxSamples)
	}

	glType := uint32(gl.TEXTURE_2D)
	if desc.Kind == TargetCube {
		glType = gl.TEXTURE_CUBE_MAP
	}
	texture := libgl.NewTexture(glType)
	texture.SetDebugLabel(desc.Label)
	texture.Allocate(desc.Levels, glInternalFormat(desc.Format), desc.Width, desc.Height, 0)
	texture.MipmapLevels(0, desc.Levels-1)
	if err := libgl.Error(); err != nil {
		texture.Delete()
		return nil, fmt.Errorf("%w: target %q: %w", ErrResource, desc.Label, err)
	}
	Logger().Debug("target created", "label", desc.Label, "kind", desc.Kind, "size", desc.Width, "levels", desc.Levels, "samples", desc.Samples)
	return &glTarget{desc: desc, texture: texture}, nil
}

func (*GlBackend) CreateDepth(width, height, samples int) (DepthBuffer, error) {
	if width <= 0 || height <= 0 || samples < 1 {
		return nil, fmt.Errorf("%w: invalid depth buffer %dx%d with %d samples", ErrResource, width, height, samples)
	}
	rb := libgl.NewRenderbuffer()
	if samples > 1 {
		rb.AllocateMS(glInternalFormat(Depth24), width, height, samples)
	} else {
		rb.Allocate(glInternalFormat(Depth24), width, height)
	}
	if err := libgl.Error(); err != nil {
		rb.Delete()
		return nil, fmt.Errorf("%w: depth buffer: %w", ErrResource, err)
	}
	return &glDepth{renderbuffer: rb}, nil
}

func (*GlBackend) CreatePass(color Target, face CubeMapFace, level int, depth DepthBuffer) (pass Pass, err error) {
	t, ok := color.(*glTarget)
	if !ok || t.texture == nil {
		return nil, fmt.Errorf("%w: pass target is not a live opengl target", ErrResource)
	}
	d, ok := depth.(*glDepth)
	if !ok {
		return nil, fmt.Errorf("%w: pass depth is not an opengl depth buffer", ErrResource)
	}
	if err := checkPass(t.desc, face, level, d); err != nil {
		return nil, err
	}

	p := &glPass{target: t, face: face, level: level}
	defer func() {
		if err != nil {
			p.Delete()
		}
	}()

	p.fbo = libgl.NewFramebuffer()
	p.fbo.SetDebugLabel(fmt.Sprintf("%s %v %d", t.desc.Label, face, level))
	p.fbo.AttachTextureLayerLevel(gl.COLOR_ATTACHMENT0, t.texture, int(face), level)

	if t.desc.Samples > 1 {
		w, h := t.desc.LevelSize(level)
		p.msColor = libgl.NewRenderbuffer()
		p.msColor.AllocateMS(glInternalFormat(t.desc.Format), w, h, t.desc.Samples)
		p.msFbo = libgl.NewFramebuffer()
		p.msFbo.AttachRenderbuffer(gl.COLOR_ATTACHMENT0, p.msColor)
		p.msFbo.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, d.renderbuffer)
		if err := p.msFbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResource, err)
		}
	} else {
		p.fbo.AttachRenderbuffer(gl.DEPTH_ATTACHMENT, d.renderbuffer)
	}

	if err := p.fbo.Check(gl.DRAW_FRAMEBUFFER); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	return p, nil
}

func (gb *GlBackend) BeginPass(pass Pass) error {
	if gb.active != nil {
		return fmt.Errorf("%w: pass already active", ErrState)
	}
	p, ok := pass.(*glPass)
	if !ok || p.target.texture == nil {
		return fmt.Errorf("%w: pass is not a live opengl pass", ErrResource)
	}

	p.drawFramebuffer().Bind(gl.DRAW_FRAMEBUFFER)
	w, h := p.target.desc.LevelSize(p.level)
	libgl.State.Viewport(0, 0, w, h)
	libgl.State.DepthMask(true)
	libgl.State.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gb.active = p
	return nil
}

func (gb *GlBackend) EndPass() error {
	p := gb.active
	if p == nil {
		return fmt.Errorf("%w: no active pass", ErrState)
	}
	gb.active = nil

	if p.msFbo != nil {
		w, h := p.target.desc.LevelSize(p.level)
		p.msFbo.BlitTo(p.fbo, w, h, gl.COLOR_BUFFER_BIT)
	}
	if err := libgl.Error(); err != nil {
		return fmt.Errorf("%w: pass %q %v %d: %w", ErrResource, p.target.desc.Label, p.face, p.level, err)
	}
	return nil
}

func (gb *GlBackend) Draw(call DrawCall) error {
	if gb.active == nil {
		return fmt.Errorf("%w: draw outside of a pass", ErrState)
	}
	pipeline, ok := gb.pipelines[call.Kernel]
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

	pipeline.Bind()
	vsh := pipeline.Get(gl.VERTEX_SHADER)
	fsh := pipeline.Get(gl.FRAGMENT_SHADER)

	if call.Kernel != KernelBrdfLut {
		source, ok := call.Source.(*glTarget)
		if !ok || source.texture == nil {
			return fmt.Errorf("%w: %v draw needs a live opengl source", ErrResource, call.Kernel)
		}
		source.texture.Bind(0)
		if source.desc.Kind == TargetCube {
			gb.cubeSampler.Bind(0)
		} else {
			gb.flatSampler.Bind(0)
		}
		vsh.SetUniform("u_view_mat", call.View)
		vsh.SetUniform("u_projection_mat", call.Projection)

		switch call.Kernel {
		case KernelIrradiance:
			fsh.SetUniform("u_quality", call.Samples)
		case KernelPrefilter:
			fsh.SetUniform("u_roughness", call.Roughness)
			fsh.SetUniform("u_sample_count", call.Samples)
			fsh.SetUniform("u_filtered", call.Filtered)
			fsh.SetUniform("u_environment_size", source.desc.Width)
			fsh.SetUniform("u_environment_levels", source.desc.Levels)
		}

		gb.cubeVao.Bind()
		gl.DrawArrays(gl.TRIANGLES, 0, 6*6)
	} else {
		fsh.SetUniform("u_sample_count", call.Samples)
		gb.emptyVao.Bind()
		gl.DrawArrays(gl.TRIANGLES, 0, 3)
	}

	Logger().Debug("draw", "kernel", call.Kernel, "target", gb.active.target.desc.Label, "face", gb.active.face, "level", gb.active.level)
	return nil
}

func (*GlBackend) GenerateMipmaps(target Target) error {
	t, ok := target.(*glTarget)
	if !ok || t.texture == nil {
		return fmt.Errorf("%w: not a live opengl target", ErrResource)
	}
	t.texture.GenerateMipmap()
	return nil
}

func (gb *GlBackend) ReadbackPixels(target Target, face CubeMapFace, level int, dst []float32) error {
	if gb.active != nil {
		return fmt.Errorf("%w: readback during an active pass", ErrState)
	}
	t, ok := target.(*glTarget)
	if !ok || t.texture == nil {
		return fmt.Errorf("%w: not a live opengl target", ErrResource)
	}
	if err := checkReadback(t.desc, face, level, dst); err != nil {
		return err
	}

	gl.Finish()
	if err := t.texture.ReadLayer(level, int(face), gl.RGBA, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrResource, err)
	}
	if err := libgl.Error(); err != nil {
		return fmt.Errorf("%w: readback of %q: %w", ErrResource, t.desc.Label, err)
	}
	return nil
}

func (gb *GlBackend) Release() {
	gb.active = nil
	deleters := []libutil.Deleter{gb.cubeVbo, gb.cubeVao, gb.emptyVao, gb.flatSampler, gb.cubeSampler}
	for _, p := range gb.pipelines {
		deleters = append(deleters, p)
	}
	for _, p := range gb.programs {
		deleters = append(deleters, p)
	}
	libutil.DeleteAll(deleters)
	gb.pipelines = nil
	gb.programs = nil
	libgl.State.Forget()
}
