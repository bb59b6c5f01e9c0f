package libgl

import (
	"fmt"
	"log"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type texture struct {
	glId          uint32
	target        uint32
	levels        int
	width, height int
	layers        int
}

type UnboundTexture interface {
	LabeledGlObject
	Id() uint32
	Type() uint32
	Levels() int
	Size() (width, height int)
	Bind(unit int) BoundTexture
	Allocate(levels int, internalFormat uint32, width, height, layers int)
	Load(level int, width, height int, format uint32, data any)
	LoadLayer(level, layer int, width, height int, format uint32, data any)
	ReadLayer(level, layer int, format uint32, dst []float32) error
	GenerateMipmap()
	MipmapLevels(base, max int)
	Delete()
}

type BoundTexture interface {
	UnboundTexture
}

// NewTexture creates a texture for target, e.g. GL_TEXTURE_2D or GL_TEXTURE_CUBE_MAP.
func NewTexture(target uint32) UnboundTexture {
	var id uint32
	gl.CreateTextures(target, 1, &id)
	return &texture{
		glId:   id,
		target: target,
	}
}

func (tex *texture) Id() uint32 {
	return tex.glId
}

func (tex *texture) Type() uint32 {
	return tex.target
}

func (tex *texture) Levels() int {
	return tex.levels
}

func (tex *texture) Size() (width, height int) {
	return tex.width, tex.height
}

func (tex *texture) SetDebugLabel(label string) {
	setObjectLabel(gl.TEXTURE, tex.glId, label)
}

func (tex *texture) Bind(unit int) BoundTexture {
	State.BindTextureUnit(unit, tex.glId)
	return BoundTexture(tex)
}

func (tex *texture) Delete() {
	gl.DeleteTextures(1, &tex.glId)
	tex.glId = 0
}

// Allocate creates immutable storage. A levels value of 0 allocates the full mip chain.
// layers is ignored for 2D and cube map textures.
func (tex *texture) Allocate(levels int, internalFormat uint32, width, height, layers int) {
	if levels == 0 {
		levels = 1
		for size := max(width, height); size > 1; size >>= 1 {
			levels++
		}
	}
	tex.levels = levels
	tex.width = width
	tex.height = height
	tex.layers = layers

	switch tex.target {
	case gl.TEXTURE_2D, gl.TEXTURE_CUBE_MAP:
		// cube maps use 2D storage, all six faces are allocated implicitly
		gl.TextureStorage2D(tex.glId, int32(levels), internalFormat, int32(width), int32(height))
	case gl.TEXTURE_2D_ARRAY, gl.TEXTURE_3D:
		gl.TextureStorage3D(tex.glId, int32(levels), internalFormat, int32(width), int32(height), int32(layers))
	default:
		log.Panicf("cannot allocate texture of type 0x%04x", tex.target)
	}
}

func (tex *texture) Load(level int, width, height int, format uint32, data any) {
	dataType := getGlType(data)
	gl.TextureSubImage2D(tex.glId, int32(level), 0, 0, int32(width), int32(height), format, dataType, Pointer(data))
}

// LoadLayer uploads a single layer or cube map face.
func (tex *texture) LoadLayer(level, layer int, width, height int, format uint32, data any) {
	dataType := getGlType(data)
	gl.TextureSubImage3D(tex.glId, int32(level), 0, 0, int32(layer), int32(width), int32(height), 1, format, dataType, Pointer(data))
}

// ReadLayer copies a layer or cube map face of level into dst, rows bottom to top.
func (tex *texture) ReadLayer(level, layer int, format uint32, dst []float32) error {
	w, h := max(1, tex.width>>level), max(1, tex.height>>level)
	n := w * h * formatComponents(format)
	if len(dst) < n {
		return fmt.Errorf("readback needs %d values but has space for %d", n, len(dst))
	}

	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	if tex.target == gl.TEXTURE_CUBE_MAP && Env.UseIntelCubemapDsaFix {
		tex.Bind(0)
		gl.GetTexImage(uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+layer), int32(level), format, gl.FLOAT, Pointer(dst))
		return nil
	}

	if tex.target == gl.TEXTURE_2D {
		layer = 0
	}
	gl.GetTextureSubImage(tex.glId, int32(level), 0, 0, int32(layer), int32(w), int32(h), 1, format, gl.FLOAT, int32(n*4), Pointer(dst))
	return nil
}

func (tex *texture) GenerateMipmap() {
	gl.GenerateTextureMipmap(tex.glId)
}

func (tex *texture) MipmapLevels(base, max int) {
	gl.TextureParameteri(tex.glId, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TextureParameteri(tex.glId, gl.TEXTURE_MAX_LEVEL, int32(max))
}

func formatComponents(format uint32) int {
	switch format {
	case gl.RED, gl.DEPTH_COMPONENT:
		return 1
	case gl.RG:
		return 2
	case gl.RGB:
		return 3
	}
	return 4
}

func getGlType(data any) uint32 {
	switch data.(type) {
	case []byte:
		return gl.UNSIGNED_BYTE
	case []uint16:
		return gl.UNSIGNED_SHORT
	case []int32:
		return gl.INT
	case []uint32:
		return gl.UNSIGNED_INT
	case []float32:
		return gl.FLOAT
	}
	log.Panicf("invalid type: %T", data)
	return 0
}

type sampler struct {
	glId uint32
}

type UnboundSampler interface {
	Id() uint32
	Bind(unit int) BoundSampler
	FilterMode(min, mag int32)
	WrapMode(s, t, r int32)
	Delete()
}

type BoundSampler interface {
	UnboundSampler
}

func NewSampler() UnboundSampler {
	var id uint32
	gl.CreateSamplers(1, &id)
	return &sampler{
		glId: id,
	}
}

func (s *sampler) Id() uint32 {
	return s.glId
}

func (s *sampler) Bind(unit int) BoundSampler {
	State.BindSampler(unit, s.glId)
	return BoundSampler(s)
}

func (s *sampler) FilterMode(min, mag int32) {
	if min != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MIN_FILTER, min)
	}
	if mag != 0 {
		gl.SamplerParameteri(s.glId, gl.TEXTURE_MAG_FILTER, mag)
	}
}

func (sampler *sampler) WrapMode(s, t, r int32) {
	if s != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_S, s)
	}
	if t != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_T, t)
	}
	if r != 0 {
		gl.SamplerParameteri(sampler.glId, gl.TEXTURE_WRAP_R, r)
	}
}

func (s *sampler) Delete() {
	gl.DeleteSamplers(1, &s.glId)
	s.glId = 0
}
