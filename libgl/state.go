package libgl

import (
	"github.com/go-gl/gl/v4.5-core/gl"
)

type Capability uint32

const (
	DepthTest              Capability = gl.DEPTH_TEST
	Blend                  Capability = gl.BLEND
	ScissorTest            Capability = gl.SCISSOR_TEST
	CullFace               Capability = gl.CULL_FACE
	TextureCubeMapSeamless Capability = gl.TEXTURE_CUBE_MAP_SEAMLESS
	FramebufferSrgb        Capability = gl.FRAMEBUFFER_SRGB
	DebugOutput            Capability = gl.DEBUG_OUTPUT
	DebugOutputSynchronous Capability = gl.DEBUG_OUTPUT_SYNCHRONOUS
)

type DepthFunc uint32

const (
	DepthFuncLess   DepthFunc = gl.LESS
	DepthFuncLEqual DepthFunc = gl.LEQUAL
	DepthFuncAlways DepthFunc = gl.ALWAYS
)

// State caches the bindings of the current context. Set by Init.
var State *StateManager

// StateManager skips redundant state changes. All state changes
// must go through it or the cache gets out of sync.
type StateManager struct {
	Caps                             map[Capability]bool
	TextureUnits, SamplerUnits       []uint32
	DrawFramebuffer, ReadFramebuffer uint32
	ArrayBuffer, ElementArrayBuffer  uint32
	ProgramPipeline, VertexArray     uint32
	ViewportRect, ScissorRect        [4]int
	BlendFactorSrc, BlendFactorDst   uint32
	BlendEquationMode                uint32
	DepthFuncFn                      DepthFunc
	DepthWriteMask                   bool
	ClearColorRGBA                   [4]float32
}

func NewStateManager() *StateManager {
	return &StateManager{
		Caps:           map[Capability]bool{},
		TextureUnits:   make([]uint32, 32),
		SamplerUnits:   make([]uint32, 32),
		DepthFuncFn:    DepthFuncLess,
		DepthWriteMask: true,
	}
}

func (s *StateManager) Enable(cap Capability) {
	if s.Caps[cap] {
		return
	}
	gl.Enable(uint32(cap))
	s.Caps[cap] = true
}

func (s *StateManager) Disable(cap Capability) {
	if enabled, known := s.Caps[cap]; known && !enabled {
		return
	}
	gl.Disable(uint32(cap))
	s.Caps[cap] = false
}

// SetEnabled enables caps and disables every other known capability.
func (s *StateManager) SetEnabled(caps ...Capability) {
	want := map[Capability]bool{}
	for _, c := range caps {
		want[c] = true
	}
	for c, v := range s.Caps {
		if v && !want[c] {
			s.Disable(c)
		}
	}
	for c := range want {
		s.Enable(c)
	}
}

func (s *StateManager) BlendFunc(sfactor, dfactor uint32) {
	if s.BlendFactorSrc == sfactor && s.BlendFactorDst == dfactor {
		return
	}
	gl.BlendFunc(sfactor, dfactor)
	s.BlendFactorSrc = sfactor
	s.BlendFactorDst = dfactor
}

func (s *StateManager) BlendEquation(mode uint32) {
	if s.BlendEquationMode == mode {
		return
	}
	gl.BlendEquation(mode)
	s.BlendEquationMode = mode
}

func (s *StateManager) DepthFunc(fn DepthFunc) {
	if s.DepthFuncFn == fn {
		return
	}
	gl.DepthFunc(uint32(fn))
	s.DepthFuncFn = fn
}

func (s *StateManager) DepthMask(flag bool) {
	if s.DepthWriteMask == flag {
		return
	}
	gl.DepthMask(flag)
	s.DepthWriteMask = flag
}

func (s *StateManager) BindTextureUnit(unit int, texture uint32) {
	if s.TextureUnits[unit] == texture {
		return
	}
	gl.BindTextureUnit(uint32(unit), texture)
	s.TextureUnits[unit] = texture
}

func (s *StateManager) BindSampler(unit int, sampler uint32) {
	if s.SamplerUnits[unit] == sampler {
		return
	}
	gl.BindSampler(uint32(unit), sampler)
	s.SamplerUnits[unit] = sampler
}

func (s *StateManager) BindBuffer(target uint32, buffer uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		if s.ArrayBuffer == buffer {
			return
		}
		s.ArrayBuffer = buffer
	case gl.ELEMENT_ARRAY_BUFFER:
		if s.ElementArrayBuffer == buffer {
			return
		}
		s.ElementArrayBuffer = buffer
	}
	gl.BindBuffer(target, buffer)
}

func (s *StateManager) BindFramebuffer(target, framebuffer uint32) {
	if target == gl.DRAW_FRAMEBUFFER {
		s.BindDrawFramebuffer(framebuffer)
	} else if target == gl.READ_FRAMEBUFFER {
		s.BindReadFramebuffer(framebuffer)
	} else {
		if framebuffer == s.DrawFramebuffer && framebuffer == s.ReadFramebuffer {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer)
		s.DrawFramebuffer = framebuffer
		s.ReadFramebuffer = framebuffer
	}
}

func (s *StateManager) BindDrawFramebuffer(framebuffer uint32) {
	if s.DrawFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, framebuffer)
	s.DrawFramebuffer = framebuffer
}

func (s *StateManager) BindReadFramebuffer(framebuffer uint32) {
	if s.ReadFramebuffer == framebuffer {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, framebuffer)
	s.ReadFramebuffer = framebuffer
}

func (s *StateManager) BindProgramPipeline(pipeline uint32) {
	if s.ProgramPipeline == pipeline {
		return
	}
	gl.BindProgramPipeline(pipeline)
	s.ProgramPipeline = pipeline
}

func (s *StateManager) BindVertexArray(array uint32) {
	if s.VertexArray == array {
		return
	}
	gl.BindVertexArray(array)
	s.VertexArray = array
}

func (s *StateManager) Viewport(x, y, w, h int) {
	if s.ViewportRect == [4]int{x, y, w, h} {
		return
	}
	gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	s.ViewportRect = [4]int{x, y, w, h}
}

func (s *StateManager) Scissor(x, y, w, h int) {
	if s.ScissorRect == [4]int{x, y, w, h} {
		return
	}
	gl.Scissor(int32(x), int32(y), int32(w), int32(h))
	s.ScissorRect = [4]int{x, y, w, h}
}

func (s *StateManager) ClearColor(r, g, b, a float32) {
	if s.ClearColorRGBA == [4]float32{r, g, b, a} {
		return
	}
	gl.ClearColor(r, g, b, a)
	s.ClearColorRGBA = [4]float32{r, g, b, a}
}

// Forget drops cached object ids after they were deleted, so that a reused id is bound again.
func (s *StateManager) Forget() {
	for i := range s.TextureUnits {
		s.TextureUnits[i] = 0
		s.SamplerUnits[i] = 0
	}
	s.DrawFramebuffer, s.ReadFramebuffer = 0, 0
	s.ArrayBuffer, s.ElementArrayBuffer = 0, 0
	s.ProgramPipeline, s.VertexArray = 0, 0
}
