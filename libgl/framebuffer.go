package libgl

import (
	"fmt"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type framebuffer struct {
	glId uint32
}

type UnboundFramebuffer interface {
	LabeledGlObject
	Id() uint32
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Bind(target uint32) BoundFramebuffer
	// target must be GL_DRAW_FRAMEBUFFER, GL_READ_FRAMEBUFFER or GL_FRAMEBUFFER
	Check(target uint32) error
	AttachTextureLevel(attachment uint32, texture UnboundTexture, level int)
	AttachTextureLayerLevel(attachment uint32, texture UnboundTexture, layer, level int)
	AttachRenderbuffer(attachment uint32, renderbuffer UnboundRenderbuffer)
	BlitTo(dst UnboundFramebuffer, width, height int, mask uint32)
	Delete()
}

type BoundFramebuffer interface {
	UnboundFramebuffer
}

func NewFramebuffer() UnboundFramebuffer {
	var id uint32
	gl.CreateFramebuffers(1, &id)
	return &framebuffer{
		glId: id,
	}
}

func (fb *framebuffer) Id() uint32 {
	return fb.glId
}

func (fb *framebuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.FRAMEBUFFER, fb.glId, label)
}

func (fb *framebuffer) Check(target uint32) error {
	status := gl.CheckNamedFramebufferStatus(fb.glId, target)
	switch status {
	case gl.FRAMEBUFFER_COMPLETE:
		return nil
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return fmt.Errorf("an attachment is framebuffer incomplete (GL_FRAMEBUFFER_INCOMPLETE_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return fmt.Errorf("the framebuffer has no attachments (GL_FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT)")
	case gl.FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER:
		return fmt.Errorf("the object type of a draw attachment is none (GL_FRAMEBUFFER_INCOMPLETE_DRAW_BUFFER)")
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return fmt.Errorf("the combination of internal formats of the attachments is not supported (GL_FRAMEBUFFER_UNSUPPORTED)")
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return fmt.Errorf("the attachments have different sampling (GL_FRAMEBUFFER_INCOMPLETE_MULTISAMPLE)")
	}
	return fmt.Errorf("unknown framebuffer status: %X", status)
}

func (fb *framebuffer) Bind(target uint32) BoundFramebuffer {
	State.BindFramebuffer(target, fb.glId)
	return BoundFramebuffer(fb)
}

func (fb *framebuffer) AttachTextureLevel(attachment uint32, texture UnboundTexture, level int) {
	gl.NamedFramebufferTexture(fb.glId, attachment, texture.Id(), int32(level))
}

// AttachTextureLayerLevel attaches one layer of level. For cube maps the layer is the face index.
func (fb *framebuffer) AttachTextureLayerLevel(attachment uint32, texture UnboundTexture, layer, level int) {
	if texture.Type() == gl.TEXTURE_2D {
		fb.AttachTextureLevel(attachment, texture, level)
		return
	}
	// https://community.intel.com/t5/Graphics/glNamedFramebufferTextureLayer-rejects-cubemaps-of-any-kind/td-p/1167643
	if texture.Type() == gl.TEXTURE_CUBE_MAP && Env.UseIntelCubemapDsaFix {
		prevDraw := State.DrawFramebuffer
		prevRead := State.ReadFramebuffer
		fb.Bind(gl.FRAMEBUFFER)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, uint32(gl.TEXTURE_CUBE_MAP_POSITIVE_X+layer), texture.Id(), int32(level))
		State.BindDrawFramebuffer(prevDraw)
		State.BindReadFramebuffer(prevRead)
		return
	}
	gl.NamedFramebufferTextureLayer(fb.glId, attachment, texture.Id(), int32(level), int32(layer))
}

func (fb *framebuffer) AttachRenderbuffer(attachment uint32, renderbuffer UnboundRenderbuffer) {
	gl.NamedFramebufferRenderbuffer(fb.glId, attachment, gl.RENDERBUFFER, renderbuffer.Id())
}

// BlitTo copies the first color attachment, resolving multisampled buffers.
func (fb *framebuffer) BlitTo(dst UnboundFramebuffer, width, height int, mask uint32) {
	w, h := int32(width), int32(height)
	gl.BlitNamedFramebuffer(fb.glId, dst.Id(), 0, 0, w, h, 0, 0, w, h, mask, gl.NEAREST)
}

func (fb *framebuffer) Delete() {
	gl.DeleteFramebuffers(1, &fb.glId)
	fb.glId = 0
}

type renderbuffer struct {
	glId          uint32
	width, height int
	samples       int
}

type UnboundRenderbuffer interface {
	LabeledGlObject
	Id() uint32
	Size() (width, height int)
	Samples() int
	Allocate(internalFormat uint32, width, height int)
	AllocateMS(internalFormat uint32, width, height, samples int)
	Delete()
}

func NewRenderbuffer() UnboundRenderbuffer {
	var id uint32
	gl.CreateRenderbuffers(1, &id)
	return &renderbuffer{
		glId: id,
	}
}

func (rb *renderbuffer) Id() uint32 {
	return rb.glId
}

func (rb *renderbuffer) Size() (width, height int) {
	return rb.width, rb.height
}

func (rb *renderbuffer) Samples() int {
	return rb.samples
}

func (rb *renderbuffer) SetDebugLabel(label string) {
	setObjectLabel(gl.RENDERBUFFER, rb.glId, label)
}

func (rb *renderbuffer) Allocate(internalFormat uint32, width, height int) {
	gl.NamedRenderbufferStorage(rb.glId, internalFormat, int32(width), int32(height))
	rb.width, rb.height, rb.samples = width, height, 1
}

func (rb *renderbuffer) AllocateMS(internalFormat uint32, width, height, samples int) {
	gl.NamedRenderbufferStorageMultisample(rb.glId, int32(samples), internalFormat, int32(width), int32(height))
	rb.width, rb.height, rb.samples = width, height, samples
}

func (rb *renderbuffer) Delete() {
	gl.DeleteRenderbuffers(1, &rb.glId)
	rb.glId = 0
}
