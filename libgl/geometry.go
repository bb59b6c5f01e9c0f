package libgl

import (
	"log"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type buffer struct {
	glId      uint32
	size      int
	immutable bool
}

type UnboundBuffer interface {
	Id() uint32
	Allocate(data any, flags int)
	AllocateMutable(size int, usage int)
	Grow(size int) bool
	Write(offset int, data []byte)
	Size() int
	Delete()
}

func NewBuffer() UnboundBuffer {
	var id uint32
	gl.CreateBuffers(1, &id)
	return &buffer{
		glId: id,
	}
}

func (vbo *buffer) Id() uint32 {
	return vbo.glId
}

func (vbo *buffer) Size() int {
	return vbo.size
}

// Allocate creates immutable storage holding data.
func (vbo *buffer) Allocate(data any, flags int) {
	if vbo.immutable || vbo.size != 0 {
		log.Panicf("buffer is already allocated")
	}
	size := ByteSize(data)
	if size <= 0 {
		log.Panicf("%T does not have a fixed, non zero size", data)
	}
	gl.NamedBufferStorage(vbo.glId, size, Pointer(data), uint32(flags))
	vbo.size = size
	vbo.immutable = true
}

// AllocateMutable (re)specifies the storage with undefined content.
// The buffer name stays the same, so existing bindings remain valid.
func (vbo *buffer) AllocateMutable(size int, usage int) {
	if vbo.immutable {
		log.Panicf("buffer is immutable")
	}
	gl.NamedBufferData(vbo.glId, size, nil, uint32(usage))
	vbo.size = size
}

// Grow reallocates mutable storage when size does not fit, doubling the
// capacity. The content is lost. Returns true when the storage changed.
func (vbo *buffer) Grow(size int) bool {
	if size <= vbo.size {
		return false
	}
	newSize := max(vbo.size*2, size, 1024)
	vbo.AllocateMutable(newSize, gl.DYNAMIC_DRAW)
	return true
}

func (vbo *buffer) Write(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.NamedBufferSubData(vbo.glId, offset, len(data), Pointer(data))
}

func (vbo *buffer) Delete() {
	gl.DeleteBuffers(1, &vbo.glId)
	vbo.glId = 0
}

type vertexArray struct {
	glId uint32
}

type UnboundVertexArray interface {
	Id() uint32
	Layout(bufferIndex int, attributeIndex int, size int, dataType int, normalized bool, offset int)
	BindBuffer(bufferIndex int, vbo UnboundBuffer, offset int, stride int)
	BindElementBuffer(ebo UnboundBuffer)
	Bind() BoundVertexArray
	Delete()
}

type BoundVertexArray interface {
	UnboundVertexArray
}

func NewVertexArray() UnboundVertexArray {
	var id uint32
	gl.CreateVertexArrays(1, &id)
	return &vertexArray{
		glId: id,
	}
}

func (vao *vertexArray) Bind() BoundVertexArray {
	State.BindVertexArray(vao.glId)
	return BoundVertexArray(vao)
}

func (vao *vertexArray) Id() uint32 {
	return vao.glId
}

func (vao *vertexArray) Layout(bufferIndex int, attributeIndex int, size int, dataType int, normalized bool, offset int) {
	gl.EnableVertexArrayAttrib(vao.glId, uint32(attributeIndex))
	gl.VertexArrayAttribFormat(vao.glId, uint32(attributeIndex), int32(size), uint32(dataType), normalized, uint32(offset))
	gl.VertexArrayAttribBinding(vao.glId, uint32(attributeIndex), uint32(bufferIndex))
}

func (vao *vertexArray) BindBuffer(bufferIndex int, vbo UnboundBuffer, offset int, stride int) {
	gl.VertexArrayVertexBuffer(vao.glId, uint32(bufferIndex), vbo.Id(), offset, int32(stride))
}

func (vao *vertexArray) BindElementBuffer(ebo UnboundBuffer) {
	gl.VertexArrayElementBuffer(vao.glId, ebo.Id())
}

func (vao *vertexArray) Delete() {
	gl.DeleteVertexArrays(1, &vao.glId)
	vao.glId = 0
}
